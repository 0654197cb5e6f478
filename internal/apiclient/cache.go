package apiclient

import (
	"strings"
	"sync"
)

// Cache кэш ответов GET-запросов по пути запроса.
// Один на процесс, без TTL и ограничения размера; сбрасывается мутациями явно.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[key]
	return body, ok
}

func (c *Cache) Set(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// копия: вызывающий может переиспользовать буфер
	c.entries[key] = append([]byte(nil), body...)
}

// Invalidate удаляет ключ пути и все его варианты с query-строкой.
// Возвращает число удаленных записей.
func (c *Cache) Invalidate(paths ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		for _, p := range paths {
			if key == p || strings.HasPrefix(key, p+"?") {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
