package battle

import (
	"math/rand"
	"time"
)

// Source is the uniform randomness a battle draws from for reflect rolls and
// enemy target choice. *rand.Rand satisfies it.
type Source interface {
	// Intn returns a uniform int in [0, n). n > 0.
	Intn(n int) int
}

// NewSource returns a seeded generator and the seed actually used.
// A zero seed is replaced with one derived from the clock so the battle can
// still be replayed from the reported value.
func NewSource(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}
