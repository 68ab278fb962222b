// Package session управляет жизненным циклом сессии пользователя.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/model"
)

// ErrNotAuthenticated возвращается при обращении к данным сессии
// до входа или после её завершения.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session представляет явно ограниченный контекст авторизации:
// создаётся при входе, разрушается при выходе и передаётся компонентам
// доступа к данным вместо глобального состояния. Ответ 401 от API
// завершает сессию автоматически.
type Session struct {
	client *api.Client

	mu        sync.RWMutex
	user      model.User
	expiresAt time.Time
	active    bool
}

// New создаёт незаполненную сессию поверх API-клиента.
func New(client *api.Client) *Session {
	s := &Session{client: client}
	client.OnUnauthorized(s.reset)
	return s
}

// Client возвращает API-клиент, привязанный к сессии.
func (s *Session) Client() *api.Client {
	return s.client
}

// Login выполняет вход и открывает сессию.
func (s *Session) Login(ctx context.Context, email, password string) (model.User, error) {
	user, token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}

	s.establish(user, token)
	return user, nil
}

// Register регистрирует пользователя; если сервер вернул токен,
// сессия открывается сразу (авторегистрация).
func (s *Session) Register(ctx context.Context, in api.RegisterInput) (model.User, error) {
	user, token, err := s.client.Register(ctx, in)
	if err != nil {
		return model.User{}, err
	}

	if token != "" {
		s.establish(user, token)
	}
	return user, nil
}

// Logout завершает сессию и сбрасывает токен клиента.
func (s *Session) Logout() {
	s.client.ClearToken()
	s.reset()
}

// Token возвращает bearer-токен текущей сессии.
func (s *Session) Token() string {
	return s.client.Token()
}

// Authenticated сообщает, открыта ли сессия.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// User возвращает профиль пользователя текущей сессии.
func (s *Session) User() (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return model.User{}, ErrNotAuthenticated
	}
	return s.user, nil
}

// ExpiresAt возвращает момент истечения токена сессии; нулевое время,
// если токен не содержит срока действия.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// RefreshProfile перечитывает профиль с сервера и обновляет сессию.
func (s *Session) RefreshProfile(ctx context.Context) (model.User, error) {
	if !s.Authenticated() {
		return model.User{}, ErrNotAuthenticated
	}

	user, err := s.client.Profile(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("refresh profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

func (s *Session) establish(user model.User, token string) {
	s.client.SetToken(token)

	s.mu.Lock()
	s.user = user
	s.expiresAt = tokenExpiry(token)
	s.active = true
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.user = model.User{}
	s.expiresAt = time.Time{}
	s.active = false
	s.mu.Unlock()
}

// tokenExpiry извлекает срок действия из bearer-токена. Подпись не
// проверяется: токен выпускает и проверяет сервер, клиенту срок нужен
// только для отображения и упреждающего перелогина.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
