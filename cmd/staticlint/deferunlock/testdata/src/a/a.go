package a

import "sync"

type store struct {
	mu      sync.Mutex
	entries map[int]string
}

func (s *store) get(k int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[k]
}

func (s *store) put(k int, v string) {
	s.mu.Lock() // want "Lock without an immediately deferred Unlock"
	s.entries[k] = v
	s.mu.Unlock()
}

func (s *store) wrongReceiver(other *store) {
	s.mu.Lock() // want "Lock without an immediately deferred Unlock"
	defer other.mu.Unlock()
}

type cache struct {
	sync.RWMutex
	items []string
}

func (c *cache) size() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.items)
}

func (c *cache) sizeWrongUnlock() int {
	c.RLock() // want "RLock without an immediately deferred RUnlock"
	defer c.Unlock()
	return len(c.items)
}

func inSwitch(mu *sync.Mutex, flag bool) {
	switch {
	case flag:
		mu.Lock() // want "Lock without an immediately deferred Unlock"
	default:
		mu.Lock()
		defer mu.Unlock()
	}
}

type fakeLock struct{}

func (fakeLock) Lock() {}

func notSync(l fakeLock) {
	l.Lock()
}
