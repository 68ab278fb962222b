package vehicles

import (
	"context"
	"errors"
	"testing"

	"gopkg.in/guregu/null.v4"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
)

type fakeClient struct {
	vehicles []model.Vehicle

	createCalls int
	updateCalls int
	deleteCalls int
	listCalls   int

	lastInput api.VehicleInput
}

func (f *fakeClient) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	f.listCalls++
	return f.vehicles, nil
}

func (f *fakeClient) CreateVehicle(ctx context.Context, in api.VehicleInput) (model.Vehicle, error) {
	f.createCalls++
	f.lastInput = in
	created := model.Vehicle{
		ID:    int64(100 + f.createCalls),
		Make:  in.Make,
		Model: null.NewString(in.Model, in.Model != ""),
		Plate: in.Plate,
	}
	f.vehicles = append(f.vehicles, created)
	return created, nil
}

func (f *fakeClient) UpdateVehicle(ctx context.Context, id int64, in api.VehicleInput) (model.Vehicle, error) {
	f.updateCalls++
	f.lastInput = in
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles[i].Make = in.Make
			f.vehicles[i].Plate = in.Plate
			return f.vehicles[i], nil
		}
	}
	return model.Vehicle{}, api.ErrNotFound
}

func (f *fakeClient) DeleteVehicle(ctx context.Context, id int64) error {
	f.deleteCalls++
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles = append(f.vehicles[:i], f.vehicles[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func TestCreate_RefetchesList(t *testing.T) {
	fc := &fakeClient{}
	r := NewRegistry(fc)

	created, list, err := r.Create(context.Background(), api.VehicleInput{
		Make:  "  Toyota ",
		Plate: "abc-1234",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Make != "Toyota" || created.Plate != "ABC-1234" {
		t.Fatalf("input must be normalized before the request: %+v", created)
	}
	if len(list) != 1 {
		t.Fatalf("refetched list len = %d, want 1", len(list))
	}
	if fc.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1 refetch after the mutation", fc.listCalls)
	}
}

func TestCreate_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		in      api.VehicleInput
		wantErr error
	}{
		{name: "missing make", in: api.VehicleInput{Plate: "ABC-1234"}, wantErr: ErrMissingMake},
		{name: "bad plate", in: api.VehicleInput{Make: "Toyota", Plate: "??"}, wantErr: ErrInvalidPlate},
		{name: "empty plate", in: api.VehicleInput{Make: "Toyota"}, wantErr: ErrInvalidPlate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{}
			r := NewRegistry(fc)

			_, _, err := r.Create(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create error = %v, want %v", err, tt.wantErr)
			}
			if fc.createCalls != 0 || fc.listCalls != 0 {
				t.Fatal("invalid input must not reach the network")
			}
		})
	}
}

func TestUpdate_RefetchesList(t *testing.T) {
	fc := &fakeClient{vehicles: []model.Vehicle{{ID: 101, Make: "Toyota", Plate: "ABC-1234"}}}
	r := NewRegistry(fc)

	updated, list, err := r.Update(context.Background(), 101, api.VehicleInput{
		Make:  "Honda",
		Plate: "xyz-9876",
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Make != "Honda" || updated.Plate != "XYZ-9876" {
		t.Fatalf("unexpected updated record: %+v", updated)
	}
	if len(list) != 1 || list[0].Make != "Honda" {
		t.Fatalf("refetched list = %+v", list)
	}
	if fc.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1", fc.listCalls)
	}
}

func TestDelete_RefetchesList(t *testing.T) {
	fc := &fakeClient{vehicles: []model.Vehicle{
		{ID: 101, Make: "Toyota", Plate: "ABC-1234"},
		{ID: 102, Make: "Honda", Plate: "XYZ-9876"},
	}}
	r := NewRegistry(fc)

	list, err := r.Delete(context.Background(), 101)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(list) != 1 || list[0].ID != 102 {
		t.Fatalf("refetched list = %+v", list)
	}
}

func TestDelete_NotFound(t *testing.T) {
	fc := &fakeClient{}
	r := NewRegistry(fc)

	_, err := r.Delete(context.Background(), 999)
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("Delete error = %v, want ErrNotFound", err)
	}
	if fc.listCalls != 0 {
		t.Fatal("failed mutation must not trigger a refetch")
	}
}
