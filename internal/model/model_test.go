package model

import "testing"

func TestCentsFromFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want Cents
	}{
		{in: 4.0, want: 400},
		{in: 25.5, want: 2550},
		{in: 0, want: 0},
		{in: 0.01, want: 1},
		// Классический артефакт двоичной точки.
		{in: 1.1, want: 110},
		{in: 19.99, want: 1999},
		{in: -4.0, want: -400},
	}

	for _, tt := range tests {
		if got := CentsFromFloat(tt.in); got != tt.want {
			t.Errorf("CentsFromFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCentsString(t *testing.T) {
	tests := []struct {
		in   Cents
		want string
	}{
		{in: 400, want: "4.00"},
		{in: 405, want: "4.05"},
		{in: 0, want: "0.00"},
		{in: 5, want: "0.05"},
		{in: -400, want: "-4.00"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReservationStatus(t *testing.T) {
	tests := []struct {
		status      ReservationStatus
		terminal    bool
		cancellable bool
	}{
		{status: ReservationPending, terminal: false, cancellable: true},
		{status: ReservationConfirmed, terminal: false, cancellable: true},
		{status: ReservationActive, terminal: false, cancellable: true},
		{status: ReservationCancelled, terminal: true, cancellable: false},
		{status: ReservationCompleted, terminal: true, cancellable: false},
		{status: ReservationExpired, terminal: true, cancellable: false},
		{status: ReservationStatus("unknown"), terminal: false, cancellable: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.Cancellable(); got != tt.cancellable {
				t.Errorf("Cancellable() = %v, want %v", got, tt.cancellable)
			}
		})
	}
}

func TestOccupancyTerminal(t *testing.T) {
	var nilOcc *Occupancy
	if nilOcc.Terminal() {
		t.Error("nil occupancy must not be terminal")
	}

	open := &Occupancy{ID: 1}
	if open.Terminal() {
		t.Error("occupancy without exit time must not be terminal")
	}
}
