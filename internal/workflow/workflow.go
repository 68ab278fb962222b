// Package workflow реализует пошаговый поток бронирования места.
//
// Поток — строго упорядоченная машина из четырёх шагов: выбор тарифа,
// выбор места, выбор транспортного средства, подтверждение. Переходы
// сериализованы; единственная мутация сервера — отправка бронирования
// с шага подтверждения. Успешная отправка завершает экземпляр потока,
// для нового бронирования создаётся новый экземпляр.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
)

// Step описывает текущий шаг потока бронирования.
type Step int

const (
	StepTariff Step = iota
	StepSpace
	StepVehicle
	StepConfirm
)

// String возвращает имя шага.
func (s Step) String() string {
	switch s {
	case StepTariff:
		return "tariff"
	case StepSpace:
		return "space"
	case StepVehicle:
		return "vehicle"
	case StepConfirm:
		return "confirm"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ErrTariffRequired возвращается при попытке продолжить без выбранного
// тарифа. Ошибки валидации локальны: до сети они не доходят.
var (
	ErrTariffRequired = errors.New("select a tariff to continue")
	// ErrSpaceRequired возвращается при попытке продолжить без выбранного места.
	ErrSpaceRequired = errors.New("select a space to continue")
	// ErrVehicleRequired возвращается при попытке продолжить без выбранного транспортного средства.
	ErrVehicleRequired = errors.New("select a vehicle to continue")
	// ErrSubmitInFlight возвращается при повторной отправке до завершения предыдущей.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrNotAtConfirmation возвращается при отправке не с шага подтверждения.
	ErrNotAtConfirmation = errors.New("submit is allowed only at confirmation")
	// ErrCompleted возвращается при обращении к уже завершённому потоку.
	ErrCompleted = errors.New("workflow already completed")
)

// Submitter описывает единственную мутацию сервера, доступную потоку.
type Submitter interface {
	CreateReservation(ctx context.Context, in api.CreateReservationInput) (model.Reservation, error)
}

// reservationWindow — длительность окна бронирования от момента отправки.
const reservationWindow = 2 * time.Hour

// Workflow представляет один экземпляр потока бронирования.
type Workflow struct {
	client Submitter
	lot    model.ParkingLot
	now    func() time.Time

	mu         sync.Mutex
	step       Step
	tariffs    []model.Tariff
	spaces     []model.Space
	vehicles   []model.Vehicle
	tariff     *model.Tariff
	space      *model.Space
	vehicle    *model.Vehicle
	submitting bool
	done       bool
	result     *model.Reservation
}

// New создаёт поток бронирования для парковки с предзагруженным списком
// тарифов. Начальный шаг — выбор тарифа.
func New(client Submitter, lot model.ParkingLot, tariffs []model.Tariff) *Workflow {
	return &Workflow{
		client:  client,
		lot:     lot,
		now:     time.Now,
		step:    StepTariff,
		tariffs: tariffs,
	}
}

// Step возвращает текущий шаг потока.
func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Done сообщает, завершён ли поток успешной отправкой.
func (w *Workflow) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Reservation возвращает созданное бронирование после успешной отправки.
func (w *Workflow) Reservation() *model.Reservation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Tariffs возвращает предзагруженные тарифы парковки.
func (w *Workflow) Tariffs() []model.Tariff {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tariffs
}

// Spaces возвращает загруженный список свободных мест.
func (w *Workflow) Spaces() []model.Space {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spaces
}

// Vehicles возвращает загруженный список транспортных средств.
func (w *Workflow) Vehicles() []model.Vehicle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vehicles
}

// SetSpaces обновляет локальный список свободных мест. Если выбранное
// место пропало из свежего списка, выбор сбрасывается.
func (w *Workflow) SetSpaces(spaces []model.Space) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spaces = spaces
	if w.space != nil && findSpace(spaces, w.space.ID) == nil {
		w.space = nil
	}
}

// SetVehicles обновляет локальный список транспортных средств.
// Если выбранное средство пропало из свежего списка, выбор сбрасывается.
func (w *Workflow) SetVehicles(vehicles []model.Vehicle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.vehicles = vehicles
	if w.vehicle != nil && findVehicle(vehicles, w.vehicle.ID) == nil {
		w.vehicle = nil
	}
}

// SelectTariff выбирает тариф. Выбор допустим только на шаге тарифа
// и только из загруженного списка; иначе вызов игнорируется.
func (w *Workflow) SelectTariff(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepTariff || w.submitting || w.done {
		return false
	}
	for i := range w.tariffs {
		if w.tariffs[i].ID == id {
			w.tariff = &w.tariffs[i]
			return true
		}
	}
	return false
}

// SelectSpace выбирает место. Выбор остаётся предварительным:
// до подтверждения сервером место может занять другой клиент.
func (w *Workflow) SelectSpace(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepSpace || w.submitting || w.done {
		return false
	}
	if sp := findSpace(w.spaces, id); sp != nil {
		w.space = sp
		return true
	}
	return false
}

// SelectVehicle выбирает транспортное средство.
func (w *Workflow) SelectVehicle(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepVehicle || w.submitting || w.done {
		return false
	}
	if v := findVehicle(w.vehicles, id); v != nil {
		w.vehicle = v
		return true
	}
	return false
}

// SelectedTariff возвращает выбранный тариф.
func (w *Workflow) SelectedTariff() *model.Tariff {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tariff
}

// SelectedSpace возвращает выбранное место.
func (w *Workflow) SelectedSpace() *model.Space {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.space
}

// SelectedVehicle возвращает выбранное транспортное средство.
func (w *Workflow) SelectedVehicle() *model.Vehicle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.vehicle
}

// Advance проверяет выбор текущего шага и переходит к следующему.
// При невыполненном выборе переход отклоняется ошибкой валидации,
// текущий шаг не меняется и запрос в сеть не уходит. На шаге
// подтверждения Advance выполняет отправку бронирования.
func (w *Workflow) Advance(ctx context.Context) (Step, error) {
	w.mu.Lock()

	if w.done {
		step := w.step
		w.mu.Unlock()
		return step, ErrCompleted
	}
	if w.submitting {
		step := w.step
		w.mu.Unlock()
		return step, ErrSubmitInFlight
	}

	switch w.step {
	case StepTariff:
		if w.tariff == nil {
			w.mu.Unlock()
			return StepTariff, ErrTariffRequired
		}
		w.step = StepSpace
	case StepSpace:
		if w.space == nil {
			w.mu.Unlock()
			return StepSpace, ErrSpaceRequired
		}
		w.step = StepVehicle
	case StepVehicle:
		if w.vehicle == nil {
			w.mu.Unlock()
			return StepVehicle, ErrVehicleRequired
		}
		w.step = StepConfirm
	case StepConfirm:
		w.mu.Unlock()
		_, err := w.Submit(ctx)
		return w.Step(), err
	}

	step := w.step
	w.mu.Unlock()
	return step, nil
}

// Retreat возвращает поток на предыдущий шаг. Отступ с шага тарифа
// завершает поток целиком: второй результат равен true, и вызывающая
// сторона покидает сценарий бронирования.
func (w *Workflow) Retreat() (Step, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting || w.done {
		return w.step, false
	}

	switch w.step {
	case StepTariff:
		return StepTariff, true
	case StepSpace:
		w.step = StepTariff
	case StepVehicle:
		w.step = StepSpace
	case StepConfirm:
		w.step = StepVehicle
	}
	return w.step, false
}

// Submit отправляет бронирование. Вызов допустим только с шага
// подтверждения; повторный вызов до завершения предыдущего — no-op.
// Окно бронирования: с текущего момента на два часа вперёд.
//
// Разбор отказов:
//   - конфликт "активное бронирование" — шаг не меняется, вызывающая
//     сторона ведёт пользователя к списку его бронирований;
//   - конфликт "место занято" — поток возвращается на шаг выбора места
//     со сброшенным списком, остальные выборы сохраняются;
//   - временный сбой — состояние сохранено полностью, повторная
//     отправка выполняется вручную с шага подтверждения.
func (w *Workflow) Submit(ctx context.Context) (model.Reservation, error) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return model.Reservation{}, ErrCompleted
	}
	if w.step != StepConfirm {
		step := w.step
		w.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("%w: current step %s", ErrNotAtConfirmation, step)
	}
	if w.submitting {
		w.mu.Unlock()
		return model.Reservation{}, ErrSubmitInFlight
	}
	if w.tariff == nil || w.space == nil || w.vehicle == nil {
		w.mu.Unlock()
		return model.Reservation{}, ErrNotAtConfirmation
	}

	w.submitting = true
	in := api.CreateReservationInput{
		SpaceID:   w.space.ID,
		VehicleID: w.vehicle.ID,
		TariffID:  w.tariff.ID,
		StartTime: w.now(),
	}
	in.EndTime = in.StartTime.Add(reservationWindow)
	w.mu.Unlock()

	reservation, err := w.client.CreateReservation(ctx, in)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		if ce, ok := api.AsConflict(err); ok && ce.Kind == api.ConflictSpaceUnavailable {
			// Место успел занять другой клиент: возвращаемся к выбору
			// места, список требуется перечитать.
			w.step = StepSpace
			w.space = nil
			w.spaces = nil
		}
		return model.Reservation{}, err
	}

	w.done = true
	w.result = &reservation
	return reservation, nil
}

func findSpace(spaces []model.Space, id int64) *model.Space {
	for i := range spaces {
		if spaces[i].ID == id {
			return &spaces[i]
		}
	}
	return nil
}

func findVehicle(vehicles []model.Vehicle, id int64) *model.Vehicle {
	for i := range vehicles {
		if vehicles[i].ID == id {
			return &vehicles[i]
		}
	}
	return nil
}
