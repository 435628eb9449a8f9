// Package cache stores the intermediate matrices that the forward pass hands
// to the backward pass.
//
// The Cache isolates itself completely from callers: Put stores a private
// deep copy and Get returns a fresh deep copy, so no two holders ever share a
// buffer. A Cache is not safe for concurrent use; one network cycle owns it
// at a time.
package cache

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/born-ml/mlp/internal/matrix"
)

// NumBuckets is the fixed size of the hash table.
const NumBuckets = 1024

// Errors returned by cache operations.
var (
	ErrNilCache = errors.New("cache is nil")
	ErrEmptyKey = errors.New("cache key is empty")
	ErrNotFound = errors.New("cache key not found")
)

// Well-known keys shared by the forward and backward passes.
const (
	InputKey    = "input"
	preActKey   = "z_"
	postActKey  = "a_"
	deltaPrefix = "delta_"
)

// ZKey returns the key of layer i's pre-activation.
func ZKey(i int) string { return preActKey + strconv.Itoa(i) }

// AKey returns the key of layer i's post-activation.
func AKey(i int) string { return postActKey + strconv.Itoa(i) }

// DeltaKey returns the key of layer i's backpropagated error signal.
func DeltaKey(i int) string { return deltaPrefix + strconv.Itoa(i) }

// entry is one link of a bucket chain.
type entry struct {
	key  string
	m    *matrix.Matrix
	next *entry
}

// Cache is a string-keyed store of matrices backed by a chained hash table.
type Cache struct {
	buckets [NumBuckets]*entry
	size    int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// hash is a polynomial rolling hash (multiplier 31) over the key bytes,
// reduced to a bucket index.
func hash(key string) int {
	var h uint64
	for i := 0; i < len(key); i++ {
		h = h*31 + uint64(key[i])
	}
	return int(h % NumBuckets)
}

// Put stores a deep copy of m under key, replacing any previous value.
func (c *Cache) Put(key string, m *matrix.Matrix) error {
	if c == nil {
		return ErrNilCache
	}
	if key == "" {
		return ErrEmptyKey
	}
	cp, err := matrix.Clone(m)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}

	idx := hash(key)
	for e := c.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			e.m = cp
			return nil
		}
	}
	c.buckets[idx] = &entry{key: key, m: cp, next: c.buckets[idx]}
	c.size++
	return nil
}

// Get returns a deep copy of the matrix stored under key.
func (c *Cache) Get(key string) (*matrix.Matrix, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	e := c.lookup(key)
	if e == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return matrix.Clone(e.m)
}

// Has reports whether key is present.
func (c *Cache) Has(key string) bool {
	return c != nil && c.lookup(key) != nil
}

func (c *Cache) lookup(key string) *entry {
	for e := c.buckets[hash(key)]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

// Delete removes key. It reports whether the key was present.
func (c *Cache) Delete(key string) bool {
	if c == nil {
		return false
	}
	idx := hash(key)
	var prev *entry
	for e := c.buckets[idx]; e != nil; prev, e = e, e.next {
		if e.key != key {
			continue
		}
		if prev == nil {
			c.buckets[idx] = e.next
		} else {
			prev.next = e.next
		}
		c.size--
		return true
	}
	return false
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.size
}

// Keys returns all stored keys in sorted order.
func (c *Cache) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, c.size)
	for _, head := range c.buckets {
		for e := head; e != nil; e = e.next {
			keys = append(keys, e.key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry, keeping the Cache itself usable.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	for i := range c.buckets {
		c.buckets[i] = nil
	}
	c.size = 0
}
