package briefing

import (
	"time"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/pkg/realm"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Cache keeps the latest briefing per realm and user.
type Cache struct {
	cache *cache.Cache
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{cache: cache.New(ttl, 2*ttl)}
}

func cacheKey(r realm.Realm, userId uuid.UUID) string {
	return string(r) + ":" + userId.String()
}

func (c *Cache) Get(r realm.Realm, userId uuid.UUID) (*entity.Briefing, bool) {
	if c == nil {
		return nil, false
	}
	if x, found := c.cache.Get(cacheKey(r, userId)); found {
		b := *x.(*entity.Briefing)
		return &b, true
	}
	return nil, false
}

func (c *Cache) Set(r realm.Realm, b *entity.Briefing) {
	if c == nil || b == nil {
		return
	}
	stored := *b
	c.cache.Set(cacheKey(r, b.UserId), &stored, cache.DefaultExpiration)
}

func (c *Cache) Delete(r realm.Realm, userId uuid.UUID) {
	if c == nil {
		return
	}
	c.cache.Delete(cacheKey(r, userId))
}
