package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/mmeshcher/parking-client/internal/model"
)

// Store сохраняет токен и профиль между запусками клиента, играя роль
// локального хранилища мобильного приложения. Файл принадлежит только
// владельцу: в нём лежит действующий bearer-токен.
type Store struct {
	path string
}

const storeFileMode = 0o600

// NewStore создаёт хранилище сессии в каталоге конфигурации пользователя.
func NewStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return NewStoreAt(filepath.Join(dir, "parking-client", "session.json")), nil
}

// NewStoreAt создаёт хранилище сессии по явному пути.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

type storedSession struct {
	Token     string      `json:"token"`
	UserID    string      `json:"user_id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Phone     null.String `json:"phone"`
	Role      string      `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Save записывает открытую сессию на диск.
func (st *Store) Save(s *Session) error {
	user, err := s.User()
	if err != nil {
		return err
	}

	data, err := json.Marshal(storedSession{
		Token:     s.client.Token(),
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		ExpiresAt: s.ExpiresAt(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(st.path, data, storeFileMode); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Restore восстанавливает сессию с диска. Отсутствие сохранённой или
// просроченной сессии — валидное состояние: возвращается false без
// ошибки, пользователь входит заново.
func (st *Store) Restore(s *Session) (bool, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// Повреждённый файл отбрасывается, сессия создаётся заново.
		_ = st.Clear()
		return false, nil
	}

	if stored.Token == "" {
		return false, nil
	}
	if !stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt) {
		_ = st.Clear()
		return false, nil
	}

	s.establish(model.User{
		ID:        stored.UserID,
		FirstName: stored.FirstName,
		LastName:  stored.LastName,
		Email:     stored.Email,
		Phone:     stored.Phone,
		Role:      stored.Role,
	}, stored.Token)
	return true, nil
}

// Clear удаляет сохранённую сессию.
func (st *Store) Clear() error {
	if err := os.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
