// Package ident mints fixed-length numeric identifiers that are unique within
// a caller-supplied identifier space.
package ident

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

const DefaultMaxAttempts = 1000

var ErrExhausted = errors.New("identifier space exhausted")

// ExistsFunc reports whether id is already taken in the target space.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

type Allocator struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	maxAttempts int
}

type Option func(*Allocator)

// WithRand replaces the digit source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(a *Allocator) { a.rnd = r }
}

func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a numeric string of the given length that exists reports as free.
func (a *Allocator) Allocate(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("identifier length must be positive, got %d", length)
	}

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := a.candidate(length)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check identifier: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no free %d-digit identifier after %d attempts", ErrExhausted, length, a.maxAttempts)
}

func (a *Allocator) candidate(length int) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(byte('0' + a.rnd.IntN(10)))
	}
	return sb.String()
}
