package mystore

import (
	"context"
	"sync"
)

// inMemoryTransactionKey marks a context as running inside the transaction of one store.
// Other stores still lock when used from within it.
type inMemoryTransactionKey struct {
	store any
}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

// RunInTransaction serializes f against all other access. There is no rollback:
// writes done by f before it fails are kept.
func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	s.Lock()
	defer s.Unlock()

	return f(context.WithValue(c, inMemoryTransactionKey{store: s}, true))
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	s.lock(c)
	defer s.unlock(c)

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	s.lock(c)
	defer s.unlock(c)

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) Delete(c context.Context, uid string) error {
	s.lock(c)
	defer s.unlock(c)

	delete(s.Items, uid)

	return nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	s.lock(c)
	defer s.unlock(c)

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	return result, nil
}

func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	return c.Value(inMemoryTransactionKey{store: s}) != nil
}

func (s *InMemoryStore[T]) lock(c context.Context) {
	if !s.inTransaction(c) {
		s.Lock()
	}
}

func (s *InMemoryStore[T]) unlock(c context.Context) {
	if !s.inTransaction(c) {
		s.Unlock()
	}
}
