package api

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStoreSize bounds how many probes are kept for lookup.
const DefaultStoreSize = 1024

// ProbeStore keeps the most recent probes. Older entries are evicted once the
// store is full.
type ProbeStore struct {
	cache *lru.Cache[string, Probe]
}

func NewProbeStore(size int) (*ProbeStore, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	cache, err := lru.New[string, Probe](size)
	if err != nil {
		return nil, err
	}
	return &ProbeStore{cache: cache}, nil
}

func (s *ProbeStore) Save(p Probe) {
	s.cache.Add(p.ID, p)
}

func (s *ProbeStore) Get(id string) (Probe, bool) {
	return s.cache.Get(id)
}

func (s *ProbeStore) Delete(id string) bool {
	return s.cache.Remove(id)
}

func (s *ProbeStore) Len() int {
	return s.cache.Len()
}
