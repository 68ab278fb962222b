package api

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/mmeshcher/parking-client/internal/model"
)

// Бэкенд отвечает на испанском: имена полей и значения статусов
// переводятся в доменные типы строго на этой границе.

// envelope описывает обёртку ответа сервера {success, message, data}.
// Часть эндпоинтов отвечает без обёртки, тогда данные лежат в корне.
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type userDTO struct {
	ID           string      `json:"id_usuario"`
	FirstName    string      `json:"nombre"`
	LastName     string      `json:"apellido"`
	Email        string      `json:"email"`
	Phone        null.String `json:"telefono"`
	Role         string      `json:"rol"`
	RegisteredAt string      `json:"fecha_registro"`
}

func (d userDTO) toModel() model.User {
	return model.User{
		ID:           d.ID,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Phone:        d.Phone,
		Role:         d.Role,
		RegisteredAt: parseTime(d.RegisteredAt),
	}
}

type vehicleDTO struct {
	ID    int64       `json:"id_vehiculo"`
	Make  string      `json:"marca"`
	Model null.String `json:"modelo"`
	Plate string      `json:"placa"`
	Color null.String `json:"color"`
}

func (d vehicleDTO) toModel() model.Vehicle {
	return model.Vehicle{
		ID:    d.ID,
		Make:  d.Make,
		Model: d.Model,
		Plate: d.Plate,
		Color: d.Color,
	}
}

type vehicleRequest struct {
	Make  string `json:"marca"`
	Model string `json:"modelo,omitempty"`
	Plate string `json:"placa"`
	Color string `json:"color,omitempty"`
}

type parkingDTO struct {
	ID        int64   `json:"id_parking"`
	Name      string  `json:"nombre"`
	Address   string  `json:"direccion"`
	Latitude  float64 `json:"latitud"`
	Longitude float64 `json:"longitud"`
	Capacity  int     `json:"capacidad_total"`
}

func (d parkingDTO) toModel() model.ParkingLot {
	return model.ParkingLot{
		ID:        d.ID,
		Name:      d.Name,
		Address:   d.Address,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Capacity:  d.Capacity,
	}
}

type tariffDTO struct {
	ID           int64       `json:"id_tarifa"`
	ParkingLotID int64       `json:"id_parking"`
	Kind         string      `json:"tipo"`
	Amount       float64     `json:"monto"`
	Conditions   null.String `json:"condiciones"`
}

func (d tariffDTO) toModel() model.Tariff {
	return model.Tariff{
		ID:           d.ID,
		ParkingLotID: d.ParkingLotID,
		Kind:         tariffKindFromWire(d.Kind),
		Amount:       model.CentsFromFloat(d.Amount),
		Conditions:   d.Conditions,
	}
}

type spaceDTO struct {
	ID           int64  `json:"id_espacio"`
	ParkingLotID int64  `json:"id_parking"`
	Label        string `json:"numero_espacio"`
	Status       string `json:"estado"`
}

func (d spaceDTO) toModel() model.Space {
	return model.Space{
		ID:           d.ID,
		ParkingLotID: d.ParkingLotID,
		Label:        d.Label,
		Status:       spaceStatusFromWire(d.Status),
	}
}

type reservationSpaceDTO struct {
	ID      int64  `json:"id_espacio"`
	Label   string `json:"numero_espacio"`
	Parking struct {
		ID      int64  `json:"id_parking"`
		Name    string `json:"nombre"`
		Address string `json:"direccion"`
	} `json:"parking"`
}

type reservationVehicleDTO struct {
	ID    int64  `json:"id_vehiculo"`
	Plate string `json:"placa"`
	Make  string `json:"marca"`
	Model string `json:"modelo"`
	Color string `json:"color"`
}

type reservationDTO struct {
	ID        int64                  `json:"id_reserva"`
	UserID    string                 `json:"id_usuario"`
	SpaceID   int64                  `json:"id_espacio"`
	VehicleID null.Int               `json:"id_vehiculo"`
	StartTime string                 `json:"hora_inicio"`
	EndTime   string                 `json:"hora_fin"`
	Status    string                 `json:"estado"`
	Space     *reservationSpaceDTO   `json:"espacio"`
	Vehicle   *reservationVehicleDTO `json:"vehiculo"`
}

func (d reservationDTO) toModel() model.Reservation {
	r := model.Reservation{
		ID:        d.ID,
		UserID:    d.UserID,
		SpaceID:   d.SpaceID,
		VehicleID: d.VehicleID,
		StartTime: parseTime(d.StartTime),
		EndTime:   parseTime(d.EndTime),
		Status:    reservationStatusFromWire(d.Status),
	}
	if d.Space != nil {
		r.Space = &model.ReservedSpace{
			ID:             d.Space.ID,
			Label:          d.Space.Label,
			ParkingLotID:   d.Space.Parking.ID,
			ParkingName:    d.Space.Parking.Name,
			ParkingAddress: d.Space.Parking.Address,
		}
	}
	if d.Vehicle != nil {
		r.Vehicle = &model.ReservedVehicle{
			ID:    d.Vehicle.ID,
			Plate: d.Vehicle.Plate,
			Make:  d.Vehicle.Make,
			Model: d.Vehicle.Model,
			Color: d.Vehicle.Color,
		}
	}
	return r
}

type reservationRequest struct {
	SpaceID   int64  `json:"id_espacio"`
	VehicleID int64  `json:"id_vehiculo"`
	TariffID  int64  `json:"id_tarifa"`
	StartTime string `json:"fecha_inicio"`
	EndTime   string `json:"fecha_fin"`
}

type occupancyDTO struct {
	ID            int64     `json:"id_ocupacion"`
	ReservationID null.Int  `json:"id_reserva"`
	SpaceID       int64     `json:"id_espacio"`
	VehicleID     null.Int  `json:"id_vehiculo"`
	EntryTime     string    `json:"hora_entrada"`
	ExitTime      null.Time `json:"hora_salida"`
	TotalCost     *float64  `json:"costo_total"`
	ComputedCost  *float64  `json:"monto_calculado"`
	HourlyRate    *float64  `json:"tarifa_hora"`
	ParkingName   string    `json:"parking"`
	SpaceLabel    string    `json:"numero_espacio"`
	VehiclePlate  string    `json:"vehiculo_placa"`
}

func (d occupancyDTO) toModel() model.Occupancy {
	o := model.Occupancy{
		ID:            d.ID,
		ReservationID: d.ReservationID,
		SpaceID:       d.SpaceID,
		VehicleID:     d.VehicleID,
		EntryTime:     parseTime(d.EntryTime),
		ExitTime:      d.ExitTime,
		ParkingName:   d.ParkingName,
		SpaceLabel:    d.SpaceLabel,
		VehiclePlate:  d.VehiclePlate,
	}
	if d.HourlyRate != nil {
		o.HourlyRate = model.CentsFromFloat(*d.HourlyRate)
	}
	// Сервер отдаёт итоговую сумму либо как costo_total, либо как monto_calculado.
	switch {
	case d.TotalCost != nil:
		o.ComputedCost = null.IntFrom(int64(model.CentsFromFloat(*d.TotalCost)))
	case d.ComputedCost != nil:
		o.ComputedCost = null.IntFrom(int64(model.CentsFromFloat(*d.ComputedCost)))
	}
	return o
}

type exitReceiptDTO struct {
	FinalCost         float64 `json:"costo_calculado"`
	FinalElapsedHours float64 `json:"tiempo_total_horas"`
}

type exitRequestDTO struct {
	Amount         float64 `json:"monto"`
	ElapsedMinutes int64   `json:"tiempo_minutos"`
	PaymentID      int64   `json:"id_pago"`
}

type historyPaymentDTO struct {
	ID     int64       `json:"id_pago"`
	Amount float64     `json:"monto"`
	Status string      `json:"estado"`
	Method null.String `json:"metodo"`
	PaidAt null.Time   `json:"pago_at"`
}

type historyEntryDTO struct {
	ID            string   `json:"id_operacion"`
	Kind          string   `json:"tipo"`
	FinalStatus   string   `json:"estado_final"`
	ReservationID null.Int `json:"id_reserva"`
	OccupancyID   null.Int `json:"id_ocupacion"`
	Vehicle       *struct {
		Plate string `json:"placa"`
	} `json:"vehiculo"`
	Space *struct {
		Label        string `json:"numero_espacio"`
		ParkingLotID int64  `json:"id_parking"`
	} `json:"espacio"`
	Dates struct {
		CreatedAt null.Time `json:"creada_at"`
		EntryAt   null.Time `json:"entrada_at"`
		ExitAt    null.Time `json:"salida_at"`
	} `json:"fechas"`
	DurationMinutes null.Int           `json:"duracion_minutos"`
	Payment         *historyPaymentDTO `json:"pago"`
}

func (d historyEntryDTO) toModel() model.HistoryEntry {
	e := model.HistoryEntry{
		ID:              d.ID,
		Kind:            historyKindFromWire(d.Kind),
		FinalStatus:     string(reservationStatusFromWire(d.FinalStatus)),
		ReservationID:   d.ReservationID,
		OccupancyID:     d.OccupancyID,
		CreatedAt:       d.Dates.CreatedAt,
		EntryAt:         d.Dates.EntryAt,
		ExitAt:          d.Dates.ExitAt,
		DurationMinutes: d.DurationMinutes,
	}
	if d.Vehicle != nil {
		e.Plate = null.StringFrom(d.Vehicle.Plate)
	}
	if d.Space != nil {
		e.SpaceLabel = null.StringFrom(d.Space.Label)
		e.ParkingLotID = null.IntFrom(d.Space.ParkingLotID)
	}
	if d.Payment != nil {
		e.Payment = &model.Payment{
			ID:     d.Payment.ID,
			Amount: model.CentsFromFloat(d.Payment.Amount),
			Status: d.Payment.Status,
			Method: d.Payment.Method,
			PaidAt: d.Payment.PaidAt,
		}
	}
	return e
}

// parseTime разбирает метку времени ISO-8601. Невалидная или пустая
// строка даёт нулевое время: часть серверных представлений отдаёт
// необязательные даты пустыми строками.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func spaceStatusFromWire(s string) model.SpaceStatus {
	switch s {
	case "disponible":
		return model.SpaceAvailable
	case "ocupado":
		return model.SpaceOccupied
	case "reservado":
		return model.SpaceReserved
	case "mantenimiento":
		return model.SpaceMaintenance
	}
	return model.SpaceStatus(s)
}

func reservationStatusFromWire(s string) model.ReservationStatus {
	switch s {
	case "pendiente":
		return model.ReservationPending
	case "confirmada":
		return model.ReservationConfirmed
	case "activa":
		return model.ReservationActive
	case "cancelada":
		return model.ReservationCancelled
	case "completada":
		return model.ReservationCompleted
	case "expirada":
		return model.ReservationExpired
	}
	return model.ReservationStatus(s)
}

func tariffKindFromWire(s string) model.TariffKind {
	switch s {
	case "hora":
		return model.TariffHourly
	case "dia":
		return model.TariffDaily
	case "mes":
		return model.TariffMonthly
	}
	return model.TariffKind(s)
}

func historyKindFromWire(s string) model.HistoryKind {
	switch s {
	case "reserva":
		return model.HistoryReservation
	case "walk_in":
		return model.HistoryWalkIn
	}
	return model.HistoryKind(s)
}

func decodeInto(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
