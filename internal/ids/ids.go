// Package ids generates task identifiers in the pipeline's fixed format.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Kind discriminates the id namespace.
type Kind string

const (
	Atomic    Kind = "atomic"
	Depth     Kind = "depth"
	Width     Kind = "width"
	Corpus    Kind = "corpus"
	Composite Kind = "composite"
	Seed      Kind = "seed"
	Request   Kind = "req"
)

// New returns an id of the form {kind}_{unix_ts_seconds}_{8-hex-random},
// collision-resistant within a ten-year horizon and lexicographically
// sortable by creation time for a fixed kind.
func New(kind Kind) string {
	return NewAt(kind, time.Now())
}

// NewAt is New with an explicit timestamp, for deterministic tests.
func NewAt(kind Kind, at time.Time) string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is not recoverable; fall back to a
		// zeroed suffix rather than panicking the pipeline.
		buf = [4]byte{}
	}
	return fmt.Sprintf("%s_%d_%s", kind, at.Unix(), hex.EncodeToString(buf[:]))
}
