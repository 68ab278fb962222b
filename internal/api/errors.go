// Package api реализует клиент удалённого HTTP API сервиса парковок.
package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается при ответе 401: токен отсутствует,
// просрочен или отозван, сессию необходимо создать заново.
var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound возвращается, если запрошенный ресурс не существует.
	ErrNotFound = errors.New("resource not found")
	// ErrRejected возвращается при отказе сервера вне известной
	// таксономии конфликтов: запрос отвергнут по существу, повтор
	// без изменения запроса бесполезен.
	ErrRejected = errors.New("request rejected")
)

// ConflictKind различает бизнес-конфликты сервера. Каждому виду
// соответствует собственное сообщение и путь восстановления,
// конфликты не схлопываются в одну общую ошибку.
type ConflictKind string

const (
	// ConflictActiveReservation — у пользователя уже есть незавершённое
	// бронирование; путь восстановления — экран текущих бронирований.
	ConflictActiveReservation ConflictKind = "active-reservation-exists"
	// ConflictSpaceUnavailable — место успел занять другой клиент;
	// путь восстановления — повторный выбор места по свежему списку.
	ConflictSpaceUnavailable ConflictKind = "space-unavailable"
	// ConflictNotCancellable — бронирование уже в конечном статусе.
	ConflictNotCancellable ConflictKind = "reservation-not-cancellable"
)

// ConflictError описывает бизнес-конфликт, полученный от сервера.
type ConflictError struct {
	Kind    ConflictKind
	Message string
}

// Error возвращает текстовое представление конфликта.
func (e *ConflictError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("conflict: %s", e.Kind)
	}
	return fmt.Sprintf("conflict %s: %s", e.Kind, e.Message)
}

// AsConflict извлекает ConflictError из цепочки ошибок.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsTransient сообщает, что ошибка носит временный характер (сеть,
// таймаут, 5xx) и операцию можно повторить вручную без потери состояния.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRejected) {
		return false
	}
	if _, ok := AsConflict(err); ok {
		return false
	}
	return true
}
