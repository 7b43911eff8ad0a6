package stats

import (
	"encoding/json"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultCacheSize = 5 * 1024 * 1024
	DefaultCacheTTL  = 60 * 60 // seconds
)

// Cache keeps derived evolution series per user. Entries live until the
// TTL runs out or a new log of the user lands.
type Cache struct {
	cache *freecache.Cache
	ttl   int
}

func NewCache(sizeBytes, ttlSeconds int) *Cache {
	if sizeBytes <= 0 {
		sizeBytes = DefaultCacheSize
	}
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultCacheTTL
	}
	return &Cache{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttlSeconds,
	}
}

func evolutionCacheKey(userID string) []byte {
	return []byte(fmt.Sprintf("evolution::%s", userID))
}

func (c *Cache) GetEvolution(userID string) (*Evolution, bool) {
	evolutionBytes, err := c.cache.Get(evolutionCacheKey(userID))
	if err != nil {
		return nil, false
	}

	evolution := &Evolution{}
	if err := json.Unmarshal(evolutionBytes, evolution); err != nil {
		log.Errorf("failed to unmarshal cached evolution for user %s: %s", userID, err)
		return nil, false
	}

	return evolution, true
}

func (c *Cache) SetEvolution(userID string, evolution *Evolution) {
	evolutionBytes, err := json.Marshal(evolution)
	if err != nil {
		log.Errorf("failed to marshal evolution for user %s: %s", userID, err)
		return
	}
	if err := c.cache.Set(evolutionCacheKey(userID), evolutionBytes, c.ttl); err != nil {
		log.Errorf("failed to cache evolution for user %s: %s", userID, err)
	}
}

// InvalidateUser drops the cached series of a user, called after a new
// log of that user is stored.
func (c *Cache) InvalidateUser(userID string) {
	c.cache.Del(evolutionCacheKey(userID))
}
