package session

import (
	"cadence/internal/clock"
	"cadence/internal/score"
	"cadence/internal/utils"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// janitorInterval: период проверки устаревших пользователей.
const janitorInterval = time.Minute

// MemoryRepository: потокобезопасное хранилище тренировок в памяти.
// Для каждого пользователя поддерживается кольцевой буфер фиксированной длины.
// Пользователи, по которым не было новых тренировок дольше ttl, удаляются фоновым процессом.
//
//	repo := session.NewMemoryRepository(512, 0, 72*time.Hour, clock.SystemClock{})
//	go repo.Serve()
//	repo.Append("user-123", score.Session{ID: "a", Timestamp: time.Now()})
type MemoryRepository struct {
	length      int           // максимальное количество тренировок на пользователя
	maxSessions int           // максимум тренировок в ответе Sessions, 0 означает без ограничения
	ttl         time.Duration // время жизни пользователя без обновлений, 0 означает бессрочно
	clock       clock.Clock

	sessions map[string]*utils.RingBuffer[score.Session]
	updates  map[string]time.Time
	mu       sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryRepository создаёт хранилище. Для фоновой очистки нужно запустить Serve в отдельной горутине.
func NewMemoryRepository(length, maxSessions int, ttl time.Duration, clk clock.Clock) *MemoryRepository {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &MemoryRepository{
		length:      length,
		maxSessions: maxSessions,
		ttl:         ttl,
		clock:       clk,
		sessions:    make(map[string]*utils.RingBuffer[score.Session]),
		updates:     make(map[string]time.Time),
		stop:        make(chan struct{}),
	}
}

// Append добавляет тренировку в буфер пользователя, создавая буфер при первом обращении.
// Тренировка без времени отклоняется с *score.InvalidSessionError, пустой ID заполняется UUID.
func (mr *MemoryRepository) Append(userID string, s score.Session) error {
	if s.Timestamp.IsZero() {
		return &score.InvalidSessionError{ID: s.ID, Reason: "missing timestamp"}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	mr.mu.RLock()
	buffer, found := mr.sessions[userID]
	mr.mu.RUnlock()

	if !found {
		mr.mu.Lock()
		// повторная проверка под блокировкой
		if buffer, found = mr.sessions[userID]; !found {
			buffer = utils.NewRingBuffer[score.Session](mr.length)
			mr.sessions[userID] = buffer
		}
		mr.mu.Unlock()
	}
	buffer.Push(s)

	mr.mu.Lock()
	mr.updates[userID] = mr.clock.Now()
	mr.mu.Unlock()
	return nil
}

// Insert добавляет тренировки по очереди и останавливается на первой ошибке.
func (mr *MemoryRepository) Insert(_ context.Context, userID string, sessions []score.Session) error {
	for _, s := range sessions {
		if err := mr.Append(userID, s); err != nil {
			return err
		}
	}
	return nil
}

// Sessions возвращает тренировки пользователя не старше lookbackDays суток, начиная с самой новой.
// Для неизвестного пользователя возвращается пустой список.
func (mr *MemoryRepository) Sessions(ctx context.Context, userID string, lookbackDays int) ([]score.Session, error) {
	cutoff := mr.clock.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	return mr.between(ctx, userID, cutoff, time.Time{})
}

// SessionsBetween возвращает тренировки в интервале [from, to), начиная с самой новой.
func (mr *MemoryRepository) SessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]score.Session, error) {
	return mr.between(ctx, userID, from, to)
}

// between отбирает тренировки не раньше from и, если to задан, строго раньше to.
// Ограничение maxSessions применяется после сортировки по времени, а не по порядку поступления.
func (mr *MemoryRepository) between(ctx context.Context, userID string, from, to time.Time) ([]score.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mr.mu.RLock()
	buffer, found := mr.sessions[userID]
	mr.mu.RUnlock()
	if !found {
		return []score.Session{}, nil
	}

	result := make([]score.Session, 0, buffer.Len())
	for _, s := range buffer.Newest(0) {
		if s.Timestamp.Before(from) || (!to.IsZero() && !s.Timestamp.Before(to)) {
			continue
		}
		result = append(result, s)
	}

	slices.SortStableFunc(result, func(a, b score.Session) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if mr.maxSessions > 0 && len(result) > mr.maxSessions {
		result = result[:mr.maxSessions]
	}
	return result, nil
}

// Serve периодически удаляет пользователей, не обновлявшихся дольше ttl.
// Блокирует выполнение до вызова Stop:
//
//	go repo.Serve()
func (mr *MemoryRepository) Serve() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mr.evict()
		case <-mr.stop:
			return
		}
	}
}

func (mr *MemoryRepository) evict() {
	if mr.ttl <= 0 {
		return
	}

	var outdated []string

	mr.mu.RLock()
	now := mr.clock.Now()
	for id, ts := range mr.updates {
		if now.Sub(ts) > mr.ttl {
			outdated = append(outdated, id)
		}
	}
	mr.mu.RUnlock()

	if len(outdated) > 0 {
		mr.mu.Lock()
		for _, id := range outdated {
			delete(mr.sessions, id)
			delete(mr.updates, id)
		}
		mr.mu.Unlock()
	}
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (mr *MemoryRepository) Stop() {
	mr.stopOnce.Do(func() { close(mr.stop) })
}

// Close реализует Repository.
func (mr *MemoryRepository) Close() error {
	mr.Stop()
	return nil
}
