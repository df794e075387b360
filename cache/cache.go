package cache

import (
	"errors"
	"fmt"

	"github.com/everFinance/mandelseed/common"
	"github.com/everFinance/mandelseed/schema"
)

const (
	BackendLRU      = "lru"
	BackendBigCache = "bigcache"

	DefaultCapacity = 10_000
)

var log = common.NewLog("cache")

// ICache maps token id to resolved metadata. Implementations are safe for
// concurrent use but provide no per-key exclusion.
type ICache interface {
	Get(id uint64) (schema.Metadata, bool)

	Put(id uint64, md schema.Metadata)

	Len() int

	Purge()
}

type Cache struct {
	Cache    ICache
	Backend  string
	Capacity int
}

// NewLocalCache builds the default LRU cache.
func NewLocalCache(capacity int) (*Cache, error) {
	return New(BackendLRU, capacity)
}

func New(backend string, capacity int) (*Cache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	var (
		c   ICache
		err error
	)
	switch backend {
	case BackendLRU, "":
		backend = BackendLRU
		c, err = NewLRUCache(capacity)
	case BackendBigCache:
		c, err = NewBigCache(capacity)
	default:
		err = errors.New("unknown cache backend: " + backend)
	}
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: c, Backend: backend, Capacity: capacity}, nil
}

func (c *Cache) Get(id uint64) (schema.Metadata, bool) {
	return c.Cache.Get(id)
}

func (c *Cache) Put(id uint64, md schema.Metadata) {
	c.Cache.Put(id, md)
}

func (c *Cache) Len() int {
	return c.Cache.Len()
}

func (c *Cache) Purge() {
	c.Cache.Purge()
}
