package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/meridian-id/meridian-id/internal/shared"
)

// Bcrypt cost bounds. A configured cost outside this range is clamped so
// misconfiguration cannot produce a too-cheap hash.
const (
	MinHashCost     = 6
	MaxHashCost     = 14
	DefaultHashCost = 10

	defaultHashWorkers = 4
)

// Hasher performs one-way password hashing and verification. The work is
// CPU-bound, so concurrent calls are funnelled through a weighted
// semaphore to keep a burst of registrations from starving logins.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher with the given cost and worker limit. Both are
// clamped to safe defaults when out of range.
func NewHasher(cost, workers int) *Hasher {
	if cost < MinHashCost {
		cost = MinHashCost
	}
	if cost > MaxHashCost {
		cost = MaxHashCost
	}
	if workers <= 0 {
		workers = defaultHashWorkers
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

// Cost returns the effective bcrypt cost after clamping.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash derives a salted digest of plaintext. Digests of identical inputs
// differ across calls.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", shared.WrapErr("hash password: acquire worker", err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", shared.WrapErr("hash password", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Every failure mode,
// wrong password or malformed digest, is reported uniformly as false.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
