package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/everFinance/mandelseed/schema"
)

// LRUCache holds at most capacity entries and evicts the least recently used.
type LRUCache struct {
	Cache *lru.Cache[uint64, schema.Metadata]
}

func NewLRUCache(capacity int) (*LRUCache, error) {
	c, err := lru.NewWithEvict[uint64, schema.Metadata](capacity, func(id uint64, _ schema.Metadata) {
		log.Debug("evict cached metadata", "id", id)
	})
	if err != nil {
		return nil, err
	}
	return &LRUCache{Cache: c}, nil
}

// Get and Put copy the attribute slice so callers never alias a cached entry.
func (s *LRUCache) Get(id uint64) (schema.Metadata, bool) {
	md, ok := s.Cache.Get(id)
	if !ok {
		return schema.Metadata{}, false
	}
	return md.Clone(), true
}

func (s *LRUCache) Put(id uint64, md schema.Metadata) {
	s.Cache.Add(id, md.Clone())
}

func (s *LRUCache) Len() int {
	return s.Cache.Len()
}

func (s *LRUCache) Purge() {
	s.Cache.Purge()
}
