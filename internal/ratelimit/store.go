package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

// Entry is the per-key window state. The zero value reads as an expired
// window, so lazily created entries fall straight into the reset branch of
// the admission algorithm.
type Entry struct {
	WindowStart time.Time
	Count       int
}

// Store is the injected key→state map the limiter mutates. Update must run
// fn under the key's lock: the whole check-and-increment inside fn is one
// critical section, never two.
type Store interface {
	Update(key string, fn func(*Entry))
	Purge(stale func(Entry) bool) int
	Len() int
}

const defaultShards = 16

// ShardedStore spreads keys over independently locked shards so unrelated
// keys never contend on one global mutex.
type ShardedStore struct {
	shards []*shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewShardedStore creates a store with n shards; n < 1 uses the default.
func NewShardedStore(n int) *ShardedStore {
	if n < 1 {
		n = defaultShards
	}
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return &ShardedStore{shards: shards}
}

func (s *ShardedStore) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *ShardedStore) Update(key string, fn func(*Entry)) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		e = &Entry{}
		sh.entries[key] = e
	}
	fn(e)
}

func (s *ShardedStore) Purge(stale func(Entry) bool) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if stale(*e) {
				delete(sh.entries, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (s *ShardedStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.entries)
		sh.mu.Unlock()
	}
	return total
}
