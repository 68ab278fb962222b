package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/parking-client/internal/model"
)

const (
	defaultTimeout = 15 * time.Second

	retryMax     = 3
	retryWaitMin = 500 * time.Millisecond
	retryWaitMax = 3 * time.Second
)

// Client инкапсулирует HTTP-взаимодействие с сервисом парковок.
// Идемпотентные чтения выполняются с автоповтором, мутации — строго
// один раз: повтор после сбоя инициирует пользователь.
type Client struct {
	baseURL string
	reads   *http.Client
	writes  *http.Client
	logger  *zap.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewClient создаёт клиент сервиса парковок по указанному адресу.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		reads:   rc.StandardClient(),
		writes:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken устанавливает bearer-токен текущей сессии.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken сбрасывает токен при завершении сессии.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token возвращает текущий bearer-токен.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized регистрирует обработчик ответа 401: сессия считается
// недействительной и должна быть создана заново.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// do выполняет запрос и возвращает полезную нагрузку ответа.
// oneShot помечает невозобновляемые мутации: к ним добавляется ключ
// идемпотентности, чтобы сервер мог отбросить случайный дубль.
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, query url.Values, body any, oneShot bool) (json.RawMessage, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("parking api client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	reqURL := base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if oneShot {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.invalidateSession()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return nil, classifyRejection(respBody)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Warn("parking api server error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path))
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return unwrapEnvelope(respBody), nil
}

// unwrapEnvelope снимает обёртку {success, data}; ответы без обёртки
// возвращаются как есть.
func unwrapEnvelope(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		return env.Data
	}
	return body
}

// classifyRejection переводит отказ сервера в бизнес-таксономию.
// Сначала по машинному коду, затем по тексту сообщения: развёрнутый
// бэкенд отвечает на испанском.
func classifyRejection(body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)

	switch env.Code {
	case "RESERVA_ACTIVA", "OCUPACION_ACTIVA":
		return &ConflictError{Kind: ConflictActiveReservation, Message: env.Message}
	case "ESPACIO_NO_DISPONIBLE":
		return &ConflictError{Kind: ConflictSpaceUnavailable, Message: env.Message}
	case "RESERVA_NO_CANCELABLE":
		return &ConflictError{Kind: ConflictNotCancellable, Message: env.Message}
	}

	lower := strings.ToLower(env.Message)
	switch {
	case strings.Contains(lower, "reserva activa") || strings.Contains(lower, "ocupación activa") || strings.Contains(lower, "ocupacion activa"):
		return &ConflictError{Kind: ConflictActiveReservation, Message: env.Message}
	case strings.Contains(lower, "no disponible") || strings.Contains(lower, "ya está reservado") || strings.Contains(lower, "ya esta reservado"):
		return &ConflictError{Kind: ConflictSpaceUnavailable, Message: env.Message}
	case strings.Contains(lower, "no se puede cancelar"):
		return &ConflictError{Kind: ConflictNotCancellable, Message: env.Message}
	}

	if env.Message != "" {
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	return ErrRejected
}

// Ping проверяет доступность API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, c.writes, http.MethodGet, "/health", nil, nil, false)
	return err
}

type loginResponse struct {
	Token   string   `json:"token"`
	Usuario *userDTO `json:"usuario"`
	User    *userDTO `json:"user"`
}

func (r loginResponse) user() (model.User, bool) {
	switch {
	case r.Usuario != nil:
		return r.Usuario.toModel(), true
	case r.User != nil:
		return r.User.toModel(), true
	}
	return model.User{}, false
}

// Login выполняет вход и возвращает профиль пользователя и токен сессии.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, string, error) {
	payload := map[string]string{"email": email, "password": password}

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/auth/login", nil, payload, false)
	if err != nil {
		return model.User{}, "", fmt.Errorf("login: %w", err)
	}

	var resp loginResponse
	if err := decodeInto(raw, &resp); err != nil {
		return model.User{}, "", err
	}
	if resp.Token == "" {
		return model.User{}, "", fmt.Errorf("login: no token in response")
	}

	u, _ := resp.user()
	return u, resp.Token, nil
}

// RegisterInput содержит данные регистрации нового пользователя.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Register регистрирует пользователя. Мобильный клиент всегда создаёт
// учётную запись с ролью "cliente"; при авторегистрации сервер может
// сразу вернуть токен.
func (c *Client) Register(ctx context.Context, in RegisterInput) (model.User, string, error) {
	payload := map[string]string{
		"nombre":   in.FirstName,
		"apellido": in.LastName,
		"email":    in.Email,
		"password": in.Password,
		"rol":      "cliente",
	}
	if in.Phone != "" {
		payload["telefono"] = in.Phone
	}

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/auth/register", nil, payload, false)
	if err != nil {
		return model.User{}, "", fmt.Errorf("register: %w", err)
	}

	var resp loginResponse
	if err := decodeInto(raw, &resp); err != nil {
		return model.User{}, "", err
	}

	u, _ := resp.user()
	return u, resp.Token, nil
}

// ForgotPassword запрашивает письмо восстановления пароля.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	if _, err := c.do(ctx, c.writes, http.MethodPost, "/auth/forgot-password", nil, payload, false); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// Profile возвращает профиль текущего пользователя.
func (c *Client) Profile(ctx context.Context) (model.User, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/auth/profile", nil, nil, false)
	if err != nil {
		return model.User{}, fmt.Errorf("get profile: %w", err)
	}

	var dto userDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.User{}, err
	}
	return dto.toModel(), nil
}

// ProfileUpdate содержит изменяемые поля профиля.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// UpdateProfile обновляет профиль текущего пользователя.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (model.User, error) {
	payload := map[string]string{}
	if in.FirstName != "" {
		payload["nombre"] = in.FirstName
	}
	if in.LastName != "" {
		payload["apellido"] = in.LastName
	}
	if in.Email != "" {
		payload["email"] = in.Email
	}
	if in.Phone != "" {
		payload["telefono"] = in.Phone
	}

	raw, err := c.do(ctx, c.writes, http.MethodPut, "/auth/profile", nil, payload, false)
	if err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}

	var dto userDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.User{}, err
	}
	return dto.toModel(), nil
}

// Parkings возвращает список всех парковок.
func (c *Client) Parkings(ctx context.Context) ([]model.ParkingLot, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/parking", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list parkings: %w", err)
	}

	var dtos []parkingDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	lots := make([]model.ParkingLot, 0, len(dtos))
	for _, d := range dtos {
		lots = append(lots, d.toModel())
	}
	return lots, nil
}

// NearbyParkings возвращает парковки в радиусе (км) от точки.
func (c *Client) NearbyParkings(ctx context.Context, lat, lng, radiusKm float64) ([]model.ParkingLot, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", lat))
	q.Set("lng", fmt.Sprintf("%g", lng))
	q.Set("radius", fmt.Sprintf("%g", radiusKm))

	raw, err := c.do(ctx, c.reads, http.MethodGet, "/parking/cercanos", q, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list nearby parkings: %w", err)
	}

	var dtos []parkingDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	lots := make([]model.ParkingLot, 0, len(dtos))
	for _, d := range dtos {
		lots = append(lots, d.toModel())
	}
	return lots, nil
}

// ParkingByID возвращает парковку по идентификатору.
func (c *Client) ParkingByID(ctx context.Context, id int64) (model.ParkingLot, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, fmt.Sprintf("/parking/%d", id), nil, nil, false)
	if err != nil {
		return model.ParkingLot{}, fmt.Errorf("get parking %d: %w", id, err)
	}

	var dto parkingDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.ParkingLot{}, err
	}
	return dto.toModel(), nil
}

// Tariffs возвращает тарифы парковки. Пустой список — валидный ответ.
func (c *Client) Tariffs(ctx context.Context, parkingLotID int64) ([]model.Tariff, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, fmt.Sprintf("/parking/%d/tarifas", parkingLotID), nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list tariffs: %w", err)
	}

	var dtos []tariffDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	tariffs := make([]model.Tariff, 0, len(dtos))
	for _, d := range dtos {
		tariffs = append(tariffs, d.toModel())
	}
	return tariffs, nil
}

// AvailableSpaces возвращает свободные на данный момент места парковки.
func (c *Client) AvailableSpaces(ctx context.Context, parkingLotID int64) ([]model.Space, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, fmt.Sprintf("/espacios/parking/%d/disponibles", parkingLotID), nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list available spaces: %w", err)
	}

	var dtos []spaceDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	spaces := make([]model.Space, 0, len(dtos))
	for _, d := range dtos {
		spaces = append(spaces, d.toModel())
	}
	return spaces, nil
}

// Vehicles возвращает транспортные средства текущего пользователя.
func (c *Client) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/vehiculos", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	var dtos []vehicleDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	vehicles := make([]model.Vehicle, 0, len(dtos))
	for _, d := range dtos {
		vehicles = append(vehicles, d.toModel())
	}
	return vehicles, nil
}

// VehicleInput содержит поля создания и изменения транспортного средства.
type VehicleInput struct {
	Make  string
	Model string
	Plate string
	Color string
}

// CreateVehicle создаёт транспортное средство и возвращает запись
// с назначенным сервером идентификатором.
func (c *Client) CreateVehicle(ctx context.Context, in VehicleInput) (model.Vehicle, error) {
	raw, err := c.do(ctx, c.writes, http.MethodPost, "/vehiculos", nil, vehicleRequest{
		Make:  in.Make,
		Model: in.Model,
		Plate: in.Plate,
		Color: in.Color,
	}, false)
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}

	var dto vehicleDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.Vehicle{}, err
	}
	return dto.toModel(), nil
}

// UpdateVehicle изменяет транспортное средство.
func (c *Client) UpdateVehicle(ctx context.Context, id int64, in VehicleInput) (model.Vehicle, error) {
	raw, err := c.do(ctx, c.writes, http.MethodPut, fmt.Sprintf("/vehiculos/%d", id), nil, vehicleRequest{
		Make:  in.Make,
		Model: in.Model,
		Plate: in.Plate,
		Color: in.Color,
	}, false)
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("update vehicle %d: %w", id, err)
	}

	var dto vehicleDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.Vehicle{}, err
	}
	return dto.toModel(), nil
}

// DeleteVehicle удаляет транспортное средство.
func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, c.writes, http.MethodDelete, fmt.Sprintf("/vehiculos/%d", id), nil, nil, false); err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	return nil
}

// CreateReservationInput содержит параметры создания бронирования.
type CreateReservationInput struct {
	SpaceID   int64
	VehicleID int64
	TariffID  int64
	StartTime time.Time
	EndTime   time.Time
}

// CreateReservation создаёт бронирование. Единственная мутация сервера
// в потоке бронирования; конфликты различаются по виду.
func (c *Client) CreateReservation(ctx context.Context, in CreateReservationInput) (model.Reservation, error) {
	raw, err := c.do(ctx, c.writes, http.MethodPost, "/reservas", nil, reservationRequest{
		SpaceID:   in.SpaceID,
		VehicleID: in.VehicleID,
		TariffID:  in.TariffID,
		StartTime: formatTime(in.StartTime),
		EndTime:   formatTime(in.EndTime),
	}, true)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}

	var dto reservationDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.Reservation{}, err
	}
	return dto.toModel(), nil
}

// MyReservations возвращает бронирования текущего пользователя.
func (c *Client) MyReservations(ctx context.Context) ([]model.Reservation, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/reservas/mis-reservas", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	var dtos []reservationDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	reservations := make([]model.Reservation, 0, len(dtos))
	for _, d := range dtos {
		reservations = append(reservations, d.toModel())
	}
	return reservations, nil
}

// CancelReservation отменяет бронирование. Операция необратима
// и допустима только для неконечных статусов.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	payload := map[string]string{"estado": "cancelada"}
	if _, err := c.do(ctx, c.writes, http.MethodPatch, fmt.Sprintf("/reservas/%d/estado", id), nil, payload, false); err != nil {
		return fmt.Errorf("cancel reservation %d: %w", id, err)
	}
	return nil
}

// CheckAvailability проверяет доступность места на интервал времени.
// Результат носит справочный характер: гонку за место разрешает сервер
// при создании бронирования.
func (c *Client) CheckAvailability(ctx context.Context, spaceID int64, start, end time.Time) (bool, error) {
	payload := map[string]any{
		"id_espacio":   spaceID,
		"fecha_inicio": formatTime(start),
		"fecha_fin":    formatTime(end),
	}

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/reservas/verificar-disponibilidad", nil, payload, false)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}

	var resp struct {
		Available bool `json:"disponible"`
	}
	if err := decodeInto(raw, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// MarkArrival отмечает прибытие по бронированию и открывает занятие места.
func (c *Client) MarkArrival(ctx context.Context, reservationID int64) (int64, error) {
	payload := map[string]int64{"id_reserva": reservationID}

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/ocupaciones/marcar-entrada", nil, payload, true)
	if err != nil {
		return 0, fmt.Errorf("mark arrival: %w", err)
	}

	var resp struct {
		OccupancyID int64 `json:"id_ocupacion"`
	}
	if err := decodeInto(raw, &resp); err != nil {
		return 0, err
	}
	return resp.OccupancyID, nil
}

// ActiveOccupancy возвращает текущее занятие места. Отсутствие занятия —
// валидный ответ, а не ошибка: возвращается (nil, nil).
func (c *Client) ActiveOccupancy(ctx context.Context) (*model.Occupancy, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/ocupaciones/activa", nil, nil, false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active occupancy: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var dto occupancyDTO
	if err := decodeInto(raw, &dto); err != nil {
		return nil, err
	}
	o := dto.toModel()
	return &o, nil
}

// MarkExit отмечает выезд. Одношаговый переход: сервер фиксирует
// exitTime и окончательную стоимость ровно один раз, повторный вызов
// для завершённого занятия возвращает те же значения.
func (c *Client) MarkExit(ctx context.Context, occupancyID int64) (model.ExitReceipt, error) {
	payload := map[string]int64{"id_ocupacion": occupancyID}

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/ocupaciones/marcar-salida", nil, payload, true)
	if err != nil {
		return model.ExitReceipt{}, fmt.Errorf("mark exit: %w", err)
	}

	var dto exitReceiptDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.ExitReceipt{}, err
	}
	return model.ExitReceipt{
		FinalCost:         model.CentsFromFloat(dto.FinalCost),
		FinalElapsedHours: dto.FinalElapsedHours,
	}, nil
}

// RequestExit запрашивает выезд в сценарии с оператором: оплату
// закрывает оператор, возвращённая сумма носит справочный характер.
func (c *Client) RequestExit(ctx context.Context, occupancyID int64) (model.ExitRequest, error) {
	raw, err := c.do(ctx, c.writes, http.MethodPost, fmt.Sprintf("/pagos/ocupaciones/%d/solicitar-salida", occupancyID), nil, nil, true)
	if err != nil {
		return model.ExitRequest{}, fmt.Errorf("request exit: %w", err)
	}

	var dto exitRequestDTO
	if err := decodeInto(raw, &dto); err != nil {
		return model.ExitRequest{}, err
	}
	return model.ExitRequest{
		PaymentID:      dto.PaymentID,
		EstimatedCost:  model.CentsFromFloat(dto.Amount),
		ElapsedMinutes: dto.ElapsedMinutes,
	}, nil
}

// OccupancyHistory возвращает завершённые занятия мест пользователя.
func (c *Client) OccupancyHistory(ctx context.Context) ([]model.Occupancy, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, "/ocupaciones/historial", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list occupancy history: %w", err)
	}

	var dtos []occupancyDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	occupancies := make([]model.Occupancy, 0, len(dtos))
	for _, d := range dtos {
		occupancies = append(occupancies, d.toModel())
	}
	return occupancies, nil
}

// HistoryFilters ограничивает выборку объединённой истории.
type HistoryFilters struct {
	Status string
	From   time.Time
	To     time.Time
	Query  string
	Limit  int
}

// UserHistory возвращает объединённую историю операций пользователя.
func (c *Client) UserHistory(ctx context.Context, userID string, f HistoryFilters) ([]model.HistoryEntry, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("estado", f.Status)
	}
	if !f.From.IsZero() {
		q.Set("fecha_desde", formatTime(f.From))
	}
	if !f.To.IsZero() {
		q.Set("fecha_hasta", formatTime(f.To))
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", f.Limit))
	}

	raw, err := c.do(ctx, c.reads, http.MethodGet, fmt.Sprintf("/usuarios/%s/historial", url.PathEscape(userID)), q, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list user history: %w", err)
	}

	var dtos []historyEntryDTO
	if err := decodeInto(raw, &dtos); err != nil {
		return nil, err
	}
	entries := make([]model.HistoryEntry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, d.toModel())
	}
	return entries, nil
}
