package genotype

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

// RandomSubset returns k distinct values from [0, n) in ascending order.
// k is clamped to [0, n].
func RandomSubset(rng *rand.Rand, n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	rng = ensureRNG(rng)
	picked := rng.Perm(n)[:k]
	sort.Ints(picked)
	return picked
}

// NewOrganismID returns a fresh identifier for persisting an organism.
func NewOrganismID() string {
	return uuid.NewString()
}
