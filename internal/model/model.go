// Package model содержит доменные сущности клиента сервиса парковок.
package model

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Cents представляет денежную сумму в сотых долях валюты.
// Все расчёты стоимости ведутся в целых числах, перевод в float
// выполняется только на границе отображения и JSON.
type Cents int64

// CentsFromFloat переводит сумму с двумя знаками после запятой в центы.
func CentsFromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// Float возвращает сумму в основной валюте с двумя знаками.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String форматирует сумму в виде "4.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// User представляет профиль авторизованного пользователя.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        null.String
	Role         string
	RegisteredAt time.Time
}

// Vehicle представляет транспортное средство пользователя.
// Идентификатор назначается сервером, локально записи не создаются.
type Vehicle struct {
	ID    int64
	Make  string
	Model null.String
	Plate string
	Color null.String
}

// ParkingLot представляет парковку с координатами и общей вместимостью.
type ParkingLot struct {
	ID        int64
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Capacity  int
}

// TariffKind описывает единицу тарификации парковки.
type TariffKind string

const (
	TariffHourly  TariffKind = "hour"
	TariffDaily   TariffKind = "day"
	TariffMonthly TariffKind = "month"
)

// Tariff представляет тариф парковки. После загрузки в рамках сеанса
// бронирования тариф считается неизменяемым.
type Tariff struct {
	ID           int64
	ParkingLotID int64
	Kind         TariffKind
	Amount       Cents
	Conditions   null.String
}

// SpaceStatus описывает состояние парковочного места на сервере.
type SpaceStatus string

const (
	SpaceAvailable   SpaceStatus = "available"
	SpaceOccupied    SpaceStatus = "occupied"
	SpaceReserved    SpaceStatus = "reserved"
	SpaceMaintenance SpaceStatus = "maintenance"
)

// Space представляет одно парковочное место. Статус авторитетен только
// на сервере: выбранное место остаётся предварительным до подтверждения
// бронирования.
type Space struct {
	ID           int64
	ParkingLotID int64
	Label        string
	Status       SpaceStatus
}

// ReservationStatus описывает состояние бронирования.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationExpired   ReservationStatus = "expired"
)

// Terminal сообщает, является ли статус бронирования конечным.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationCancelled, ReservationCompleted, ReservationExpired:
		return true
	case ReservationPending, ReservationConfirmed, ReservationActive:
		return false
	}
	return false
}

// Cancellable сообщает, допускает ли статус отмену пользователем.
// Отмена необратима и возможна только до завершения бронирования.
func (s ReservationStatus) Cancellable() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationActive:
		return true
	case ReservationCancelled, ReservationCompleted, ReservationExpired:
		return false
	}
	return false
}

// ReservedSpace содержит сведения о месте в составе бронирования.
type ReservedSpace struct {
	ID             int64
	Label          string
	ParkingLotID   int64
	ParkingName    string
	ParkingAddress string
}

// ReservedVehicle содержит сведения о транспортном средстве в составе бронирования.
type ReservedVehicle struct {
	ID    int64
	Plate string
	Make  string
	Model string
	Color string
}

// Reservation представляет бронирование места для транспортного средства
// на интервал времени до фактического прибытия.
type Reservation struct {
	ID        int64
	UserID    string
	SpaceID   int64
	VehicleID null.Int
	StartTime time.Time
	EndTime   time.Time
	Status    ReservationStatus
	Space     *ReservedSpace
	Vehicle   *ReservedVehicle
}

// Occupancy представляет фактическое занятие места от въезда до выезда.
// EntryTime неизменяемо после создания. ExitTime и ComputedCost
// устанавливаются сервером ровно один раз при отметке выезда
// и после этого не пересчитываются.
type Occupancy struct {
	ID            int64
	ReservationID null.Int
	SpaceID       int64
	VehicleID     null.Int
	EntryTime     time.Time
	ExitTime      null.Time
	HourlyRate    Cents
	ComputedCost  null.Int

	// Денормализованные поля из серверных представлений для отображения.
	ParkingName  string
	SpaceLabel   string
	VehiclePlate string
}

// Terminal сообщает, завершено ли занятие места.
func (o *Occupancy) Terminal() bool {
	return o != nil && o.ExitTime.Valid
}

// ExitReceipt содержит итог отметки выезда: единственную авторитетную
// стоимость сессии и фактическую длительность в часах.
type ExitReceipt struct {
	FinalCost         Cents
	FinalElapsedHours float64
}

// ExitRequest содержит итог запроса выезда при сценарии с оператором:
// сумма носит справочный характер, оплату закрывает оператор.
type ExitRequest struct {
	PaymentID      int64
	EstimatedCost  Cents
	ElapsedMinutes int64
}

// HistoryKind описывает происхождение записи истории.
type HistoryKind string

const (
	HistoryReservation HistoryKind = "reservation"
	HistoryWalkIn      HistoryKind = "walk_in"
)

// Payment содержит сведения об оплате в составе записи истории.
type Payment struct {
	ID     int64
	Amount Cents
	Status string
	Method null.String
	PaidAt null.Time
}

// HistoryEntry представляет одну запись объединённой истории операций:
// завершённые бронирования и разовые въезды вместе с оплатами.
type HistoryEntry struct {
	ID              string
	Kind            HistoryKind
	FinalStatus     string
	ReservationID   null.Int
	OccupancyID     null.Int
	Plate           null.String
	SpaceLabel      null.String
	ParkingLotID    null.Int
	CreatedAt       null.Time
	EntryAt         null.Time
	ExitAt          null.Time
	DurationMinutes null.Int
	Payment         *Payment
}
