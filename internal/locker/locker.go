// Package locker provides the mutual-exclusion scopes used around basket
// and stock mutations.
package locker

import (
	"sort"
	"sync"
)

// Locker acquires exclusive access to a set of keys. The returned function
// releases all of them.
type Locker interface {
	Lock(keys ...string) (unlock func())
}

// Global serializes every caller through one mutex regardless of keys.
type Global struct {
	mu sync.Mutex
}

func NewGlobal() *Global {
	return &Global{}
}

func (g *Global) Lock(keys ...string) func() {
	g.mu.Lock()
	return g.mu.Unlock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Keyed holds one mutex per key. Keys are acquired in sorted order so two
// callers locking overlapping key sets cannot deadlock. Entries are dropped
// once no caller holds or waits on them.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*keyLock)}
}

func (k *Keyed) Lock(keys ...string) func() {
	sorted := dedupe(keys)

	acquired := make([]*keyLock, 0, len(sorted))
	for _, key := range sorted {
		l := k.ref(key)
		l.mu.Lock()
		acquired = append(acquired, l)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(acquired) - 1; i >= 0; i-- {
				acquired[i].mu.Unlock()
				k.unref(sorted[i])
			}
		})
	}
}

// Len reports how many keys currently have a live entry.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *Keyed) ref(key string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *Keyed) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func dedupe(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	out := make([]string, 0, len(sorted))
	for _, key := range sorted {
		if len(out) > 0 && out[len(out)-1] == key {
			continue
		}
		out = append(out, key)
	}
	return out
}
