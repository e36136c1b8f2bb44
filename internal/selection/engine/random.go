package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// SourceFunc yields a fresh random source for one engine invocation.
type SourceFunc func() (rand.Source, error)

// cryptoSource seeds a PCG generator from crypto/rand.
func cryptoSource() (rand.Source, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])), nil
}

// sample draws k distinct elements uniformly from pool with a partial
// Fisher-Yates shuffle over a copy. pool is not modified. Requires 0 <= k <= len(pool).
func sample[T any](r *rand.Rand, pool []T, k int) []T {
	work := make([]T, len(pool))
	copy(work, pool)
	n := len(work)
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k]
}
