// Package lru wraps hashicorp/golang-lru to provide a construction helper
// that is impossible to misuse: cache sizes are fixed at startup and an
// invalid size is a programming error, not a runtime condition.
package lru

import lru "github.com/hashicorp/golang-lru"

// New creates an LRU of the given size. It panics on any error, which can
// only occur with a non-positive size.
func New(size int) *lru.Cache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return c
}
