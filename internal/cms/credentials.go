package cms

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// CredentialStore — единственное разделяемое мутабельное состояние шлюза:
// опаковый токен доступа к CMS. Токен читается перед каждым запросом и
// сбрасывается при 401 (Invalidate идемпотентен).
type CredentialStore interface {
	// Token возвращает текущий токен; пустая строка — запросы без Authorization.
	Token(ctx context.Context) (string, error)
	// Invalidate сбрасывает токен. Повторный вызов — no-op.
	Invalidate(ctx context.Context) error
	// Close освобождает ресурсы стора.
	Close() error
}

// staticStore хранит токен из конфигурации в памяти процесса.
type staticStore struct {
	mu    sync.RWMutex
	token string
}

// NewStaticStore — стор для локальной разработки и тестов.
func NewStaticStore(token string) CredentialStore {
	return &staticStore{token: token}
}

func (s *staticStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *staticStore) Invalidate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *staticStore) Close() error { return nil }

type redisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore создаёт стор токена поверх Redis (URL вида
// redis://:pass@host:6379/0). Токен кладёт туда внешний процесс ротации;
// шлюз только читает и удаляет.
func NewRedisStore(redisURL, key string) (CredentialStore, error) {
	if key == "" {
		key = "cms:token"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisStore{rdb: rdb, key: key}, nil
}

func (s *redisStore) Token(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return v, nil
}

func (s *redisStore) Invalidate(ctx context.Context) error {
	// DEL отсутствующего ключа не ошибка: идемпотентность «из коробки».
	return s.rdb.Del(ctx, s.key).Err()
}

func (s *redisStore) Close() error { return s.rdb.Close() }
