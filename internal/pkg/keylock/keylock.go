// Package keylock даёт взаимное исключение по ключу: одновременно выполняется
// не больше одной критической секции на ключ, разные ключи не мешают друг другу.
package keylock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// Locker хранит блокировки только для ключей, которые сейчас кто-то держит или ждёт.
type Locker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[uuid.UUID]*entry)}
}

// Lock захватывает ключ или возвращает ошибку контекста, не дождавшись очереди.
// Возвращённую функцию нужно вызвать ровно один раз.
func (l *Locker) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// WithLock выполняет fn под блокировкой ключа.
func (l *Locker) WithLock(ctx context.Context, key uuid.UUID, fn func() error) error {
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func (l *Locker) release(key uuid.UUID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len возвращает число ключей с активными блокировками или ожидающими.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
