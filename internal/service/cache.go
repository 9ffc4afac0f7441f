package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/phrazzld/cardforge/internal/generation"
)

// resultCache holds successful generation results for a bounded time.
type resultCache struct {
	lru *expirable.LRU[string, generation.Result]
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		size = 256
	}
	return &resultCache{lru: expirable.NewLRU[string, generation.Result](size, nil, ttl)}
}

// cacheKey is a SHA-256 of the operation kind, the requested model and the
// operation payload. It reports false when the payload cannot be encoded.
func cacheKey(op generation.Operation, model string) (string, bool) {
	payload, err := json.Marshal(op)
	if err != nil {
		return "", false
	}
	h := sha256.New()
	h.Write([]byte(op.Kind()))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), true
}

func (c *resultCache) get(key string) (generation.Result, bool) {
	return c.lru.Get(key)
}

func (c *resultCache) add(key string, r generation.Result) {
	c.lru.Add(key, r)
}

func (c *resultCache) len() int {
	return c.lru.Len()
}
