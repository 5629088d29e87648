package protocol

import (
	"fmt"
	"sync/atomic"
)

// TagGenerator produces the monotonically increasing command tags the
// engine attaches to every issued command: "<prefix><N>" with N
// zero-padded to three digits.
type TagGenerator struct {
	prefix  string
	counter int64
}

// NewTagGenerator returns a generator using prefix, defaulting to "A"
// when prefix is empty.
func NewTagGenerator(prefix string) *TagGenerator {
	if prefix == "" {
		prefix = "A"
	}
	return &TagGenerator{prefix: prefix}
}

// Next returns the next tag in sequence.
func (g *TagGenerator) Next() string {
	n := atomic.AddInt64(&g.counter, 1)
	return fmt.Sprintf("%s%03d", g.prefix, n)
}
