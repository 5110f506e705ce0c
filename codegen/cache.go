package codegen

import (
	"encoding/hex"
	"errors"
	"sync"

	"github.com/kr/pretty"
	"golang.org/x/crypto/blake2b"

	"tandem/ast"
)

// Fingerprint identifies a program tree by the BLAKE2b-256 digest of its
// structural dump
func Fingerprint(body ast.Body) string {
	sum := blake2b.Sum256([]byte(pretty.Sprint(body)))
	return hex.EncodeToString(sum[:])
}

// Cache compiles each distinct program once. Every program it hands out is
// built with the options the cache was created with.
type Cache struct {
	mu       sync.Mutex
	opts     []Option
	programs map[string]*Program
	hits     int
	misses   int
}

// NewCache creates an empty cache
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:     opts,
		programs: make(map[string]*Program),
	}
}

// Compile returns the cached program for body, compiling it on first use.
// Failed compilations are not cached.
func (c *Cache) Compile(body ast.Body) (*Program, error) {
	key := Fingerprint(body)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prog, ok := c.programs[key]; ok {
		c.hits++
		return prog, nil
	}
	c.misses++
	prog, err := Compile(body, c.opts...)
	if err != nil {
		return nil, err
	}
	c.programs[key] = prog
	return prog, nil
}

// Stats returns the number of cache hits and misses so far
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached programs
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs)
}

// Close releases every cached program and empties the cache
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, prog := range c.programs {
		if err := prog.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.programs, key)
	}
	return errors.Join(errs...)
}
