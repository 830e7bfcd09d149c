package store

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implements Store on an in-process cache. Overrides do not
// survive a restart; it backs tests and the explicit ephemeral driver.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemory creates an empty in-memory override store.
func NewMemory() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

func finalKey(car, feature string) string {
	return fmt.Sprintf("final\x00%s\x00%s", car, feature)
}

func cellKey(car, feature string, source int) string {
	return fmt.Sprintf("cell\x00%s\x00%s\x00%d", car, feature, source)
}

func (s *MemoryStore) SetFinal(_ context.Context, car, feature, value string) error {
	s.c.Set(finalKey(car, feature), value, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) GetFinal(_ context.Context, car, feature string) (string, bool, error) {
	v, ok := s.c.Get(finalKey(car, feature))
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) SetCell(_ context.Context, car, feature string, source int, value string) error {
	s.c.Set(cellKey(car, feature, source), value, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) GetCell(_ context.Context, car, feature string, source int) (string, bool, error) {
	v, ok := s.c.Get(cellKey(car, feature, source))
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) ResetAll(_ context.Context) error {
	s.c.Flush()
	return nil
}

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
