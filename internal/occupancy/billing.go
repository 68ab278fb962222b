// Package occupancy реализует учёт активного занятия парковочного места:
// расчёт прошедшего времени и начисляемой стоимости, периодическое
// обновление показаний и переходы въезда и выезда.
package occupancy

import (
	"fmt"
	"time"

	"github.com/mmeshcher/parking-client/internal/model"
)

const msPerHour = int64(time.Hour / time.Millisecond)

// Elapsed возвращает время, прошедшее с момента въезда. Отрицательная
// разница означает рассинхронизацию часов: значение ограничивается
// нулём, о расхождении сообщает вызывающая сторона.
func Elapsed(entry, now time.Time) time.Duration {
	if entry.IsZero() || now.Before(entry) {
		return 0
	}
	return now.Sub(entry)
}

// BilledHours округляет прошедшее время до целых часов вверх: одна
// секунда второго часа оплачивается как два полных часа. Расчёт ведётся
// в целых миллисекундах, чтобы дрожание таймера на границе часа
// не прибавляло лишний час из-за артефактов плавающей точки.
func BilledHours(elapsed time.Duration) int64 {
	ms := elapsed.Milliseconds()
	if ms <= 0 {
		return 0
	}

	hours := ms / msPerHour
	if ms%msPerHour > 0 {
		hours++
	}
	return hours
}

// AccruedCost возвращает стоимость занятия за прошедшее время
// по часовой ставке: BilledHours * ставка, точно в центах.
func AccruedCost(elapsed time.Duration, hourlyRate model.Cents) model.Cents {
	return model.Cents(BilledHours(elapsed)) * hourlyRate
}

// FormatElapsed форматирует длительность для отображения: "45 min",
// "2 h", "1 h 5 min".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d.Round(time.Minute) / time.Minute)
	h := minutes / 60
	m := minutes % 60

	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, m)
}
