package occupancy

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/mmeshcher/parking-client/internal/model"
)

// ErrNoActiveOccupancy возвращается операциями, требующими активного
// занятия места, когда его нет. Само по себе отсутствие занятия —
// валидное состояние, а не сбой: чтение различает "ничего активного"
// и сетевую ошибку.
var (
	ErrNoActiveOccupancy = errors.New("no active occupancy")
	// ErrExitInFlight возвращается при повторной отметке выезда
	// до завершения предыдущей.
	ErrExitInFlight = errors.New("exit already in progress")
)

// defaultHourlyRate используется, когда серверное представление
// активного занятия не содержит ставку.
const defaultHourlyRate = model.Cents(400)

// defaultInterval — период обновления показаний для отображения.
const defaultInterval = 60 * time.Second

// Client описывает операции API, используемые трекером занятия.
type Client interface {
	ActiveOccupancy(ctx context.Context) (*model.Occupancy, error)
	MarkArrival(ctx context.Context, reservationID int64) (int64, error)
	MarkExit(ctx context.Context, occupancyID int64) (model.ExitReceipt, error)
	RequestExit(ctx context.Context, occupancyID int64) (model.ExitRequest, error)
}

// Snapshot содержит мгновенные показания активного занятия для
// отображения. Обновление показаний — не фиксация стоимости:
// авторитетная сумма определяется только при отметке выезда.
type Snapshot struct {
	Occupancy   model.Occupancy
	Elapsed     time.Duration
	BilledHours int64
	AccruedCost model.Cents
	ClockSkew   bool
}

// Option настраивает трекер.
type Option func(*Tracker)

// WithInterval задаёт период обновления показаний.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithNow задаёт источник текущего времени.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker сопровождает активное занятие места: хранит загруженное
// состояние, пересчитывает показания по расписанию и выполняет
// одношаговую отметку выезда.
type Tracker struct {
	client   Client
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration

	mu         sync.Mutex
	occ        *model.Occupancy
	exiting    bool
	terminal   bool
	receipt    *model.ExitReceipt
	skewLogged bool
}

// NewTracker создаёт трекер занятия места.
func NewTracker(client Client, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		client:   client,
		logger:   logger,
		now:      time.Now,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MarkArrival отмечает прибытие по бронированию, загружает открытое
// занятие и возвращает его идентификатор.
func (t *Tracker) MarkArrival(ctx context.Context, reservationID int64) (int64, error) {
	id, err := t.client.MarkArrival(ctx, reservationID)
	if err != nil {
		return 0, err
	}

	// Свежеоткрытое занятие перечитывается целиком: ответ отметки
	// прибытия содержит только идентификатор.
	if _, err := t.Load(ctx); err != nil {
		t.logger.Warn("load occupancy after arrival", zap.Error(err))
	}
	return id, nil
}

// Load читает активное занятие с сервера. Отсутствие активного
// занятия — валидный результат (nil, nil), отличимый от сетевой ошибки.
func (t *Tracker) Load(ctx context.Context) (*Snapshot, error) {
	occ, err := t.client.ActiveOccupancy(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if occ == nil {
		t.occ = nil
		t.terminal = false
		t.receipt = nil
		return nil, nil
	}

	if occ.HourlyRate == 0 {
		occ.HourlyRate = defaultHourlyRate
	}

	t.occ = occ
	t.terminal = occ.Terminal()
	t.skewLogged = false

	snap := t.snapshotLocked()
	return &snap, nil
}

// Snapshot пересчитывает показания по загруженному занятию.
// Второй результат равен false, если активного занятия нет.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.occ == nil {
		return Snapshot{}, false
	}
	return t.snapshotLocked(), true
}

// Active сообщает, сопровождает ли трекер незавершённое занятие.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.occ != nil && !t.terminal
}

func (t *Tracker) snapshotLocked() Snapshot {
	now := t.now()
	skew := !t.occ.EntryTime.IsZero() && now.Before(t.occ.EntryTime)
	if skew && !t.skewLogged {
		t.logger.Warn("occupancy entry time is in the future",
			zap.Time("entry", t.occ.EntryTime),
			zap.Time("now", now))
		t.skewLogged = true
	}

	elapsed := Elapsed(t.occ.EntryTime, now)
	return Snapshot{
		Occupancy:   *t.occ,
		Elapsed:     elapsed,
		BilledHours: BilledHours(elapsed),
		AccruedCost: AccruedCost(elapsed, t.occ.HourlyRate),
		ClockSkew:   skew,
	}
}

// Start запускает периодический пересчёт показаний и возвращает ручку
// остановки. Обновления строго последовательны: пока выполняется
// отметка выезда, очередное срабатывание пропускается. Остановка
// гарантирована при отмене контекста и при вызове ручки; после
// завершения занятия обновления прекращаются сами.
func (t *Tracker) Start(ctx context.Context, onTick func(Snapshot)) (stop func()) {
	tickCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop = func() { once.Do(cancel) }

	go func() {
		defer cancel()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				snap, ok := t.tick()
				if !ok {
					if t.isTerminal() {
						return
					}
					continue
				}
				onTick(snap)
			}
		}
	}()

	return stop
}

func (t *Tracker) tick() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.occ == nil || t.terminal || t.exiting {
		return Snapshot{}, false
	}
	return t.snapshotLocked(), true
}

func (t *Tracker) isTerminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminal
}

// MarkExit выполняет одношаговую отметку выезда. Повторный вызов
// во время выполнения отклоняется; вызов для уже завершённого занятия
// возвращает сохранённый итог без обращения к серверу — первая отметка
// выигрывает. При сбое занятие остаётся активным, состояние не
// меняется, повтор выполняется вручную.
func (t *Tracker) MarkExit(ctx context.Context) (model.ExitReceipt, error) {
	t.mu.Lock()
	if t.occ == nil {
		t.mu.Unlock()
		return model.ExitReceipt{}, ErrNoActiveOccupancy
	}
	if t.terminal {
		receipt := t.receiptLocked()
		t.mu.Unlock()
		return receipt, nil
	}
	if t.exiting {
		t.mu.Unlock()
		return model.ExitReceipt{}, ErrExitInFlight
	}
	t.exiting = true
	occID := t.occ.ID
	t.mu.Unlock()

	receipt, err := t.client.MarkExit(ctx, occID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.exiting = false

	if err != nil {
		return model.ExitReceipt{}, err
	}

	t.terminal = true
	t.receipt = &receipt
	if t.occ != nil {
		t.occ.ExitTime = null.TimeFrom(t.now())
		t.occ.ComputedCost = null.IntFrom(int64(receipt.FinalCost))
	}
	return receipt, nil
}

// receiptLocked возвращает итог завершённого занятия. Если выезд
// отметил не этот клиент, а сервер (оператор закрыл сессию), локального
// итога нет: он восстанавливается из серверных полей занятия.
func (t *Tracker) receiptLocked() model.ExitReceipt {
	if t.receipt != nil {
		return *t.receipt
	}

	r := model.ExitReceipt{}
	if t.occ.ComputedCost.Valid {
		r.FinalCost = model.Cents(t.occ.ComputedCost.Int64)
	}
	if t.occ.ExitTime.Valid && !t.occ.EntryTime.IsZero() {
		r.FinalElapsedHours = t.occ.ExitTime.Time.Sub(t.occ.EntryTime).Hours()
	}
	return r
}

// RequestExit запрашивает выезд в сценарии с оператором. Итог носит
// справочный характер: занятие остаётся активным до тех пор, пока
// сервер не закроет его, поэтому трекер не переводит состояние
// в конечное сам.
func (t *Tracker) RequestExit(ctx context.Context) (model.ExitRequest, error) {
	t.mu.Lock()
	if t.occ == nil {
		t.mu.Unlock()
		return model.ExitRequest{}, ErrNoActiveOccupancy
	}
	if t.exiting {
		t.mu.Unlock()
		return model.ExitRequest{}, ErrExitInFlight
	}
	t.exiting = true
	occID := t.occ.ID
	t.mu.Unlock()

	req, err := t.client.RequestExit(ctx, occID)

	t.mu.Lock()
	t.exiting = false
	t.mu.Unlock()

	if err != nil {
		return model.ExitRequest{}, err
	}
	return req, nil
}
