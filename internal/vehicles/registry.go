// Package vehicles реализует реестр транспортных средств пользователя.
package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
	"github.com/mmeshcher/parking-client/internal/validation"
)

// ErrMissingMake возвращается при пустой марке транспортного средства.
var (
	ErrMissingMake = errors.New("vehicle make is required")
	// ErrInvalidPlate возвращается при неверном формате номерного знака.
	ErrInvalidPlate = errors.New("invalid plate format")
)

// Client описывает операции API, используемые реестром.
type Client interface {
	Vehicles(ctx context.Context) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, in api.VehicleInput) (model.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, in api.VehicleInput) (model.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error
}

// Registry предоставляет CRUD над транспортными средствами пользователя.
// Идентификаторы назначает сервер, поэтому после каждой успешной мутации
// список перечитывается целиком: оптимистичные локальные правки могли бы
// разойтись с авторитетным состоянием.
type Registry struct {
	client Client
}

// NewRegistry создаёт реестр транспортных средств.
func NewRegistry(client Client) *Registry {
	return &Registry{client: client}
}

// List возвращает актуальный список транспортных средств.
func (r *Registry) List(ctx context.Context) ([]model.Vehicle, error) {
	return r.client.Vehicles(ctx)
}

// Create создаёт транспортное средство и возвращает созданную запись
// вместе с перечитанным списком. Локальная валидация выполняется
// до обращения к сети.
func (r *Registry) Create(ctx context.Context, in api.VehicleInput) (model.Vehicle, []model.Vehicle, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return model.Vehicle{}, nil, err
	}

	created, err := r.client.CreateVehicle(ctx, in)
	if err != nil {
		return model.Vehicle{}, nil, err
	}

	list, err := r.client.Vehicles(ctx)
	if err != nil {
		return created, nil, fmt.Errorf("refetch vehicles: %w", err)
	}
	return created, list, nil
}

// Update изменяет транспортное средство и возвращает обновлённую запись
// вместе с перечитанным списком.
func (r *Registry) Update(ctx context.Context, id int64, in api.VehicleInput) (model.Vehicle, []model.Vehicle, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return model.Vehicle{}, nil, err
	}

	updated, err := r.client.UpdateVehicle(ctx, id, in)
	if err != nil {
		return model.Vehicle{}, nil, err
	}

	list, err := r.client.Vehicles(ctx)
	if err != nil {
		return updated, nil, fmt.Errorf("refetch vehicles: %w", err)
	}
	return updated, list, nil
}

// Delete удаляет транспортное средство и возвращает перечитанный список.
func (r *Registry) Delete(ctx context.Context, id int64) ([]model.Vehicle, error) {
	if err := r.client.DeleteVehicle(ctx, id); err != nil {
		return nil, err
	}

	list, err := r.client.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("refetch vehicles: %w", err)
	}
	return list, nil
}

func normalizeInput(in api.VehicleInput) (api.VehicleInput, error) {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Color = strings.TrimSpace(in.Color)
	in.Plate = validation.NormalizePlate(in.Plate)

	if in.Make == "" {
		return in, ErrMissingMake
	}
	if !validation.IsValidPlate(in.Plate) {
		return in, ErrInvalidPlate
	}
	return in, nil
}
