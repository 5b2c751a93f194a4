package cart

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out cart-line ids.
type IDGenerator interface {
	NewID() string
}

// Sequence is a monotonic counter seeded from a timestamp. Ids are unique for
// the lifetime of one Sequence.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

func NewSequence(seed time.Time) *Sequence {
	return &Sequence{next: seed.UnixMilli()}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return "line-" + strconv.FormatInt(s.next, 10)
}

// UUIDs generates random ids; used when lines from many processes share a store.
type UUIDs struct{}

func (UUIDs) NewID() string {
	return uuid.NewString()
}
