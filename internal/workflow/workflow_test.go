package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gopkg.in/guregu/null.v4"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
)

type fakeSubmitter struct {
	mu sync.Mutex

	calls   int
	lastIn  api.CreateReservationInput
	result  model.Reservation
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) CreateReservation(ctx context.Context, in api.CreateReservationInput) (model.Reservation, error) {
	f.mu.Lock()
	f.calls++
	f.lastIn = in
	started := f.started
	release := f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	return f.result, nil
}

var (
	testLot = model.ParkingLot{ID: 1, Name: "Centro", Address: "Av. Principal 1"}

	testTariffs = []model.Tariff{
		{ID: 10, ParkingLotID: 1, Kind: model.TariffHourly, Amount: 400},
		{ID: 11, ParkingLotID: 1, Kind: model.TariffDaily, Amount: 2500},
	}
	testSpaces = []model.Space{
		{ID: 21, ParkingLotID: 1, Label: "A-01", Status: model.SpaceAvailable},
		{ID: 22, ParkingLotID: 1, Label: "A-02", Status: model.SpaceAvailable},
	}
	testVehicles = []model.Vehicle{
		{ID: 31, Make: "Toyota", Plate: "ABC-123"},
	}
)

// readyWorkflow собирает поток, доведённый до шага подтверждения.
func readyWorkflow(t *testing.T, client Submitter) *Workflow {
	t.Helper()

	w := New(client, testLot, testTariffs)
	if !w.SelectTariff(10) {
		t.Fatal("SelectTariff failed")
	}
	if _, err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance to space: %v", err)
	}
	w.SetSpaces(testSpaces)
	if !w.SelectSpace(21) {
		t.Fatal("SelectSpace failed")
	}
	if _, err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance to vehicle: %v", err)
	}
	w.SetVehicles(testVehicles)
	if !w.SelectVehicle(31) {
		t.Fatal("SelectVehicle failed")
	}
	if _, err := w.Advance(context.Background()); err != nil {
		t.Fatalf("advance to confirm: %v", err)
	}
	if w.Step() != StepConfirm {
		t.Fatalf("step = %s, want confirm", w.Step())
	}
	return w
}

func TestAdvance_ValidationBlocksWithoutNetwork(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(w *Workflow)
		wantErr error
		step    Step
	}{
		{
			name:    "no tariff selected",
			prepare: func(w *Workflow) {},
			wantErr: ErrTariffRequired,
			step:    StepTariff,
		},
		{
			name: "no space selected",
			prepare: func(w *Workflow) {
				w.SelectTariff(10)
				w.Advance(context.Background())
				w.SetSpaces(testSpaces)
			},
			wantErr: ErrSpaceRequired,
			step:    StepSpace,
		},
		{
			name: "no vehicle selected",
			prepare: func(w *Workflow) {
				w.SelectTariff(10)
				w.Advance(context.Background())
				w.SetSpaces(testSpaces)
				w.SelectSpace(21)
				w.Advance(context.Background())
				w.SetVehicles(testVehicles)
			},
			wantErr: ErrVehicleRequired,
			step:    StepVehicle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeSubmitter{}
			w := New(fs, testLot, testTariffs)
			tt.prepare(w)

			step, err := w.Advance(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Advance error = %v, want %v", err, tt.wantErr)
			}
			if step != tt.step || w.Step() != tt.step {
				t.Fatalf("step = %s, want unchanged %s", w.Step(), tt.step)
			}
			if fs.calls != 0 {
				t.Fatalf("validation must not reach the network, calls = %d", fs.calls)
			}
		})
	}
}

func TestSelect_OutOfStepIgnored(t *testing.T) {
	w := New(&fakeSubmitter{}, testLot, testTariffs)
	w.SetSpaces(testSpaces)

	if w.SelectSpace(21) {
		t.Fatal("space selection must be rejected at the tariff step")
	}
	if w.SelectTariff(999) {
		t.Fatal("selection outside the loaded list must be rejected")
	}
}

func TestSetSpaces_DropsVanishedSelection(t *testing.T) {
	w := New(&fakeSubmitter{}, testLot, testTariffs)
	w.SelectTariff(10)
	w.Advance(context.Background())
	w.SetSpaces(testSpaces)
	w.SelectSpace(21)

	w.SetSpaces([]model.Space{testSpaces[1]})
	if w.SelectedSpace() != nil {
		t.Fatal("vanished space must reset the selection")
	}
}

func TestRetreat(t *testing.T) {
	w := New(&fakeSubmitter{}, testLot, testTariffs)

	if step, exited := w.Retreat(); !exited || step != StepTariff {
		t.Fatalf("Retreat at first step = (%s, %v), want exit", step, exited)
	}

	w.SelectTariff(10)
	w.Advance(context.Background())
	if step, exited := w.Retreat(); exited || step != StepTariff {
		t.Fatalf("Retreat from space = (%s, %v), want tariff step", step, exited)
	}

	// Выбор тарифа сохраняется при возврате.
	if w.SelectedTariff() == nil {
		t.Fatal("tariff selection must survive retreat")
	}
}

func TestSubmit_Success(t *testing.T) {
	fs := &fakeSubmitter{result: model.Reservation{
		ID:        100,
		SpaceID:   21,
		VehicleID: null.IntFrom(31),
		Status:    model.ReservationConfirmed,
	}}
	w := readyWorkflow(t, fs)

	reservation, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if reservation.ID != 100 {
		t.Fatalf("reservation id = %d, want 100", reservation.ID)
	}
	if !w.Done() {
		t.Fatal("workflow must be done after success")
	}
	if got := w.Reservation(); got == nil || got.ID != 100 {
		t.Fatalf("stored reservation = %+v", got)
	}

	if fs.lastIn.SpaceID != 21 || fs.lastIn.VehicleID != 31 || fs.lastIn.TariffID != 10 {
		t.Fatalf("unexpected submission: %+v", fs.lastIn)
	}
	if got := fs.lastIn.EndTime.Sub(fs.lastIn.StartTime); got != reservationWindow {
		t.Fatalf("reservation window = %v, want %v", got, reservationWindow)
	}

	// Завершённый экземпляр отклоняет все дальнейшие операции.
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrCompleted) {
		t.Fatalf("repeated Submit error = %v, want ErrCompleted", err)
	}
	if _, err := w.Advance(context.Background()); !errors.Is(err, ErrCompleted) {
		t.Fatalf("Advance after done error = %v, want ErrCompleted", err)
	}
	if fs.calls != 1 {
		t.Fatalf("CreateReservation calls = %d, want 1", fs.calls)
	}
}

func TestSubmit_OnlyFromConfirmation(t *testing.T) {
	w := New(&fakeSubmitter{}, testLot, testTariffs)
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrNotAtConfirmation) {
		t.Fatalf("Submit error = %v, want ErrNotAtConfirmation", err)
	}
}

func TestSubmit_InFlightGuard(t *testing.T) {
	fs := &fakeSubmitter{
		result:  model.Reservation{ID: 100},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := readyWorkflow(t, fs)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	<-fs.started
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("concurrent Submit error = %v, want ErrSubmitInFlight", err)
	}
	close(fs.release)

	if err := <-done; err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	if fs.calls != 1 {
		t.Fatalf("CreateReservation calls = %d, want exactly 1", fs.calls)
	}
}

func TestSubmit_SpaceConflictReturnsToSpaceStep(t *testing.T) {
	fs := &fakeSubmitter{err: &api.ConflictError{
		Kind:    api.ConflictSpaceUnavailable,
		Message: "El espacio no está disponible",
	}}
	w := readyWorkflow(t, fs)

	_, err := w.Submit(context.Background())
	ce, ok := api.AsConflict(err)
	if !ok || ce.Kind != api.ConflictSpaceUnavailable {
		t.Fatalf("Submit error = %v, want space conflict", err)
	}

	if w.Step() != StepSpace {
		t.Fatalf("step after conflict = %s, want space", w.Step())
	}
	if w.SelectedSpace() != nil || w.Spaces() != nil {
		t.Fatal("space selection and list must be cleared for a refetch")
	}
	// Остальные выборы сохраняются.
	if w.SelectedTariff() == nil || w.SelectedVehicle() == nil {
		t.Fatal("tariff and vehicle selections must survive the conflict")
	}
	if w.Done() {
		t.Fatal("conflict must not complete the workflow")
	}
}

func TestSubmit_ActiveReservationConflictKeepsStep(t *testing.T) {
	fs := &fakeSubmitter{err: &api.ConflictError{
		Kind:    api.ConflictActiveReservation,
		Message: "Ya tienes una reserva activa",
	}}
	w := readyWorkflow(t, fs)

	_, err := w.Submit(context.Background())
	ce, ok := api.AsConflict(err)
	if !ok || ce.Kind != api.ConflictActiveReservation {
		t.Fatalf("Submit error = %v, want active reservation conflict", err)
	}
	if w.Step() != StepConfirm {
		t.Fatalf("step after conflict = %s, want confirm", w.Step())
	}
}

func TestSubmit_TransientFailureKeepsState(t *testing.T) {
	fs := &fakeSubmitter{err: errors.New("dial tcp: connection refused")}
	w := readyWorkflow(t, fs)

	if _, err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if w.Step() != StepConfirm || w.Done() {
		t.Fatalf("transient failure must keep the confirmation step, got %s", w.Step())
	}

	// Повторная отправка с сохранённым выбором проходит.
	fs.mu.Lock()
	fs.err = nil
	fs.result = model.Reservation{ID: 101}
	fs.mu.Unlock()

	reservation, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry Submit error: %v", err)
	}
	if reservation.ID != 101 {
		t.Fatalf("reservation id = %d, want 101", reservation.ID)
	}
	if fs.calls != 2 {
		t.Fatalf("CreateReservation calls = %d, want 2", fs.calls)
	}
}
