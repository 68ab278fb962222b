// Package catalog предоставляет справочники парковок, тарифов и мест.
// Списки загружаются заново при каждом обращении: между сеансами
// бронирования ничего не кэшируется, авторитетное состояние — на сервере.
package catalog

import (
	"context"
	"sort"

	"github.com/mmeshcher/parking-client/internal/model"
)

// Client описывает операции API, используемые справочниками.
type Client interface {
	Parkings(ctx context.Context) ([]model.ParkingLot, error)
	NearbyParkings(ctx context.Context, lat, lng, radiusKm float64) ([]model.ParkingLot, error)
	ParkingByID(ctx context.Context, id int64) (model.ParkingLot, error)
	Tariffs(ctx context.Context, parkingLotID int64) ([]model.Tariff, error)
	AvailableSpaces(ctx context.Context, parkingLotID int64) ([]model.Space, error)
}

// Directory предоставляет доступ к справочнику парковок.
type Directory struct {
	client Client
}

// NewDirectory создаёт справочник парковок.
func NewDirectory(client Client) *Directory {
	return &Directory{client: client}
}

// List возвращает все парковки.
func (d *Directory) List(ctx context.Context) ([]model.ParkingLot, error) {
	return d.client.Parkings(ctx)
}

// Nearby возвращает парковки в заданном радиусе (км) от точки.
func (d *Directory) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]model.ParkingLot, error) {
	return d.client.NearbyParkings(ctx, lat, lng, radiusKm)
}

// Get возвращает парковку по идентификатору.
func (d *Directory) Get(ctx context.Context, id int64) (model.ParkingLot, error) {
	return d.client.ParkingByID(ctx, id)
}

// TariffCatalog определяет цену за единицу времени для парковки.
type TariffCatalog struct {
	client Client
}

// NewTariffCatalog создаёт каталог тарифов.
func NewTariffCatalog(client Client) *TariffCatalog {
	return &TariffCatalog{client: client}
}

// List возвращает тарифы парковки в порядке час, день, месяц.
// Пустой список — валидный результат: у парковки может не быть тарифов.
func (t *TariffCatalog) List(ctx context.Context, parkingLotID int64) ([]model.Tariff, error) {
	tariffs, err := t.client.Tariffs(ctx, parkingLotID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tariffs, func(i, j int) bool {
		return tariffKindOrder(tariffs[i].Kind) < tariffKindOrder(tariffs[j].Kind)
	})
	return tariffs, nil
}

// Hourly возвращает часовой тариф парковки, если он задан.
func (t *TariffCatalog) Hourly(ctx context.Context, parkingLotID int64) (*model.Tariff, error) {
	tariffs, err := t.client.Tariffs(ctx, parkingLotID)
	if err != nil {
		return nil, err
	}
	for i := range tariffs {
		if tariffs[i].Kind == model.TariffHourly {
			return &tariffs[i], nil
		}
	}
	return nil, nil
}

func tariffKindOrder(k model.TariffKind) int {
	switch k {
	case model.TariffHourly:
		return 0
	case model.TariffDaily:
		return 1
	case model.TariffMonthly:
		return 2
	}
	return 3
}

// SpaceAvailability возвращает свободные места парковки.
type SpaceAvailability struct {
	client Client
}

// NewSpaceAvailability создаёт запрос свободных мест.
func NewSpaceAvailability(client Client) *SpaceAvailability {
	return &SpaceAvailability{client: client}
}

// List возвращает свободные места, отсортированные по номеру.
// Список — мгновенный снимок: статус может поменяться до подтверждения
// бронирования, выбор места остаётся предварительным.
func (s *SpaceAvailability) List(ctx context.Context, parkingLotID int64) ([]model.Space, error) {
	spaces, err := s.client.AvailableSpaces(ctx, parkingLotID)
	if err != nil {
		return nil, err
	}

	free := spaces[:0]
	for _, sp := range spaces {
		if sp.Status == model.SpaceAvailable {
			free = append(free, sp)
		}
	}

	sort.Slice(free, func(i, j int) bool { return free[i].Label < free[j].Label })
	return free, nil
}
