// Package history собирает объединённую историю операций пользователя:
// завершённые бронирования и разовые въезды вместе с оплатами.
// История только читается: записи формирует сервер по данным,
// сохранённым потоком бронирования и отметками въезда и выезда.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
)

// Client описывает операции API, используемые агрегатором истории.
type Client interface {
	UserHistory(ctx context.Context, userID string, f api.HistoryFilters) ([]model.HistoryEntry, error)
}

// Summary содержит сводку по выборке истории.
type Summary struct {
	Total        int
	Completed    int
	Cancelled    int
	Expired      int
	WalkIns      int
	TotalPaid    model.Cents
	TotalMinutes int64
}

// Aggregator предоставляет объединённую историю операций.
type Aggregator struct {
	client Client
}

// NewAggregator создаёт агрегатор истории.
func NewAggregator(client Client) *Aggregator {
	return &Aggregator{client: client}
}

// Fetch возвращает историю операций пользователя, отсортированную от
// новых к старым, и сводку по выборке.
func (a *Aggregator) Fetch(ctx context.Context, userID string, f api.HistoryFilters) ([]model.HistoryEntry, Summary, error) {
	entries, err := a.client.UserHistory(ctx, userID, f)
	if err != nil {
		return nil, Summary{}, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entryTime(entries[i]).After(entryTime(entries[j]))
	})

	return entries, Summarize(entries), nil
}

// Summarize считает сводку по записям истории.
func Summarize(entries []model.HistoryEntry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		switch model.ReservationStatus(e.FinalStatus) {
		case model.ReservationCompleted:
			s.Completed++
		case model.ReservationCancelled:
			s.Cancelled++
		case model.ReservationExpired:
			s.Expired++
		}
		if e.Kind == model.HistoryWalkIn {
			s.WalkIns++
		}
		if e.Payment != nil && paymentSettled(e.Payment) {
			s.TotalPaid += e.Payment.Amount
		}
		if e.DurationMinutes.Valid {
			s.TotalMinutes += e.DurationMinutes.Int64
		}
	}
	return s
}

// paymentSettled сообщает, состоялась ли оплата. Ожидающие и
// отклонённые оплаты в сумму не входят.
func paymentSettled(p *model.Payment) bool {
	if p.PaidAt.Valid {
		return true
	}
	switch p.Status {
	case "pagado", "completado", "paid":
		return true
	}
	return false
}

// entryTime возвращает временную метку записи для сортировки:
// момент въезда, иначе момент создания.
func entryTime(e model.HistoryEntry) time.Time {
	if e.EntryAt.Valid {
		return e.EntryAt.Time
	}
	if e.CreatedAt.Valid {
		return e.CreatedAt.Time
	}
	return time.Time{}
}
