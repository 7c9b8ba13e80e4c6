package infra

import (
	"context"
	"sync"

	"whois-gateway/middleware/ratelimit/domain"
)

// MemoryBucketStore guarda as janelas em um map protegido por mutex.
//
// Vale só para uma instância: com várias réplicas cada uma conta
// separadamente (use RedisBucketStore). Buckets nunca são removidos.
type MemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[domain.Key]domain.Bucket
}

func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{buckets: make(map[domain.Key]domain.Bucket)}
}

// Update implementa domain.BucketStore.
func (s *MemoryBucketStore) Update(_ context.Context, key domain.Key, fn func(domain.Bucket, bool) domain.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	s.buckets[key] = fn(b, ok)
	return nil
}

// Get devolve uma cópia do bucket atual de key.
func (s *MemoryBucketStore) Get(key domain.Key) (domain.Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	return b, ok
}

func (s *MemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
