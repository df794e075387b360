package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/everFinance/mandelseed/schema"
)

const (
	// rough upper bound of one encoded metadata document
	bigCacheEntrySize = 512
	// entries never expire by age
	bigCacheLifeWindow = 100 * 365 * 24 * time.Hour
)

// BigCache keeps json encoded metadata off the GC heap. The bound is in bytes
// (capacity * entry size estimate) and eviction is oldest-first, so the entry
// count is approximate.
type BigCache struct {
	Cache *bigcache.BigCache
}

func NewBigCache(capacity int) (*BigCache, error) {
	config := bigcache.DefaultConfig(bigCacheLifeWindow)
	config.Shards = 64
	config.CleanWindow = 0
	config.MaxEntriesInWindow = capacity
	config.MaxEntrySize = bigCacheEntrySize
	config.HardMaxCacheSize = hardMaxMB(capacity)
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &BigCache{Cache: cache}, nil
}

func hardMaxMB(capacity int) int {
	mb := capacity * bigCacheEntrySize / (1024 * 1024)
	if mb < 1 {
		mb = 1
	}
	return mb
}

func (s *BigCache) Get(id uint64) (schema.Metadata, bool) {
	md := schema.Metadata{}
	by, err := s.Cache.Get(strconv.FormatUint(id, 10))
	if err != nil {
		return md, false
	}
	if err := json.Unmarshal(by, &md); err != nil {
		log.Error("json.Unmarshal(cached metadata)", "err", err, "id", id)
		return schema.Metadata{}, false
	}
	return md, true
}

func (s *BigCache) Put(id uint64, md schema.Metadata) {
	by, err := json.Marshal(md)
	if err != nil {
		log.Error("json.Marshal(metadata)", "err", err, "id", id)
		return
	}
	if err := s.Cache.Set(strconv.FormatUint(id, 10), by); err != nil {
		log.Error("bigcache set", "err", err, "id", id)
	}
}

func (s *BigCache) Len() int {
	return s.Cache.Len()
}

func (s *BigCache) Purge() {
	if err := s.Cache.Reset(); err != nil {
		log.Error("bigcache reset", "err", err)
	}
}
