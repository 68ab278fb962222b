package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(ts *httptest.Server) *Client {
	return NewClient(ts.URL, time.Second, nil)
}

func TestLogin_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/auth/login" {
			t.Fatalf("path = %s, want /auth/login", r.URL.Path)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["email"] != "ana@example.com" {
			t.Fatalf("email = %q", payload["email"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"token": "tok123",
				"usuario": {"id_usuario": "u-1", "nombre": "Ana", "apellido": "Lopez", "email": "ana@example.com", "rol": "cliente"}
			}
		}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	user, token, err := client.Login(ctx, "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token != "tok123" {
		t.Fatalf("token = %q, want tok123", token)
	}
	if user.ID != "u-1" || user.FirstName != "Ana" || user.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUnauthorized_InvalidatesSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := newTestClient(ts)
	client.SetToken("stale")

	var notified bool
	client.OnUnauthorized(func() { notified = true })

	_, err := client.Profile(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if client.Token() != "" {
		t.Fatal("token must be cleared after 401")
	}
	if !notified {
		t.Fatal("unauthorized handler must fire")
	}
}

func TestConflictClassification(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind ConflictKind
	}{
		{
			name: "by machine code",
			body: `{"success": false, "code": "RESERVA_ACTIVA", "message": "conflicto"}`,
			kind: ConflictActiveReservation,
		},
		{
			name: "space code",
			body: `{"success": false, "code": "ESPACIO_NO_DISPONIBLE"}`,
			kind: ConflictSpaceUnavailable,
		},
		{
			name: "by spanish message",
			body: `{"success": false, "message": "El espacio no está disponible"}`,
			kind: ConflictSpaceUnavailable,
		},
		{
			name: "active reservation message",
			body: `{"success": false, "message": "Ya tienes una reserva activa"}`,
			kind: ConflictActiveReservation,
		},
		{
			name: "not cancellable message",
			body: `{"success": false, "message": "La reserva no se puede cancelar"}`,
			kind: ConflictNotCancellable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := newTestClient(ts)

			_, err := client.CreateReservation(context.Background(), CreateReservationInput{
				SpaceID: 1, VehicleID: 2, TariffID: 3,
				StartTime: time.Now(), EndTime: time.Now().Add(2 * time.Hour),
			})
			ce, ok := AsConflict(err)
			if !ok {
				t.Fatalf("error = %v, want ConflictError", err)
			}
			if ce.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", ce.Kind, tt.kind)
			}
			if IsTransient(err) {
				t.Fatal("conflicts are not transient")
			}
		})
	}
}

func TestCreateReservation_SendsWirePayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reservas" {
			t.Fatalf("path = %s, want /reservas", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Idempotency-Key") == "" {
			t.Fatal("idempotency key is required for a one-shot mutation")
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["id_espacio"].(float64) != 21 || payload["id_vehiculo"].(float64) != 31 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if _, err := time.Parse(time.RFC3339, payload["fecha_inicio"].(string)); err != nil {
			t.Fatalf("fecha_inicio: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success": true, "data": {"id_reserva": 100, "id_espacio": 21, "estado": "confirmada"}}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)
	client.SetToken("tok")

	reservation, err := client.CreateReservation(context.Background(), CreateReservationInput{
		SpaceID: 21, VehicleID: 31, TariffID: 10,
		StartTime: time.Now(), EndTime: time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateReservation error: %v", err)
	}
	if reservation.ID != 100 || reservation.Status != "confirmed" {
		t.Fatalf("unexpected reservation: %+v", reservation)
	}
}

func TestActiveOccupancy_Absence(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"success": true, "data": null}`))
			},
		},
		{
			name: "404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "204",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := newTestClient(ts)

			occ, err := client.ActiveOccupancy(context.Background())
			if err != nil {
				t.Fatalf("ActiveOccupancy error: %v", err)
			}
			if occ != nil {
				t.Fatalf("expected nil occupancy, got %+v", occ)
			}
		})
	}
}

func TestActiveOccupancy_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocupaciones/activa" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"id_ocupacion": 5,
				"id_espacio": 12,
				"hora_entrada": "2026-08-01T10:00:00Z",
				"tarifa_hora": 4.0,
				"parking": "Centro",
				"numero_espacio": "A-01",
				"vehiculo_placa": "ABC-123"
			}
		}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	occ, err := client.ActiveOccupancy(context.Background())
	if err != nil {
		t.Fatalf("ActiveOccupancy error: %v", err)
	}
	if occ == nil {
		t.Fatal("expected occupancy")
	}
	if occ.ID != 5 || occ.HourlyRate != 400 || occ.SpaceLabel != "A-01" {
		t.Fatalf("unexpected occupancy: %+v", occ)
	}
	if !occ.EntryTime.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("entry time = %v", occ.EntryTime)
	}
	if occ.Terminal() {
		t.Fatal("open occupancy must not be terminal")
	}
}

func TestMarkExit_ParsesReceipt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocupaciones/marcar-salida" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var payload map[string]int64
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["id_ocupacion"] != 5 {
			t.Fatalf("id_ocupacion = %d, want 5", payload["id_ocupacion"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"costo_calculado": 8.0, "tiempo_total_horas": 1.52}}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	receipt, err := client.MarkExit(context.Background(), 5)
	if err != nil {
		t.Fatalf("MarkExit error: %v", err)
	}
	if receipt.FinalCost != 800 {
		t.Fatalf("final cost = %v, want 8.00", receipt.FinalCost)
	}
	if receipt.FinalElapsedHours != 1.52 {
		t.Fatalf("elapsed hours = %v, want 1.52", receipt.FinalElapsedHours)
	}
}

func TestTariffs_SpanishWire(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parking/1/tarifas" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": [
			{"id_tarifa": 10, "id_parking": 1, "tipo": "hora", "monto": 4.0},
			{"id_tarifa": 11, "id_parking": 1, "tipo": "dia", "monto": 25.5, "condiciones": "lun-vie"}
		]}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	tariffs, err := client.Tariffs(context.Background(), 1)
	if err != nil {
		t.Fatalf("Tariffs error: %v", err)
	}
	if len(tariffs) != 2 {
		t.Fatalf("len = %d, want 2", len(tariffs))
	}
	if tariffs[0].Kind != "hour" || tariffs[0].Amount != 400 {
		t.Fatalf("unexpected tariff: %+v", tariffs[0])
	}
	if tariffs[1].Kind != "day" || tariffs[1].Amount != 2550 {
		t.Fatalf("unexpected tariff: %+v", tariffs[1])
	}
	if !tariffs[1].Conditions.Valid || tariffs[1].Conditions.String != "lun-vie" {
		t.Fatalf("conditions = %+v", tariffs[1].Conditions)
	}
}

func TestCancelReservation_SendsPatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("method = %s, want PATCH", r.Method)
		}
		if r.URL.Path != "/reservas/100/estado" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["estado"] != "cancelada" {
			t.Fatalf("estado = %q, want cancelada", payload["estado"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	if err := client.CancelReservation(context.Background(), 100); err != nil {
		t.Fatalf("CancelReservation error: %v", err)
	}
}

func TestGenericRejection_NotTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "message": "La fecha de inicio es inválida"}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)

	_, err := client.CreateReservation(context.Background(), CreateReservationInput{
		SpaceID: 1, VehicleID: 2, TariffID: 3,
		StartTime: time.Now(), EndTime: time.Now().Add(2 * time.Hour),
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if _, ok := AsConflict(err); ok {
		t.Fatal("generic rejection must not be a conflict")
	}
	if IsTransient(err) {
		t.Fatal("a rejected request must not be retried as transient")
	}
}

func TestServerError_IsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := newTestClient(ts)

	err := client.CancelReservation(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Fatal("5xx must be classified as transient")
	}
}
