package zmachine

import (
	"math/rand"
	"time"
)

// randomSource implements the two draw modes of §4.D: a free-running PRNG
// seeded from the wall clock, or a "predictable" counter that cycles
// 1..s.
type randomSource struct {
	rng          *rand.Rand
	predictable  bool
	counterLimit uint16
	counter      uint16
}

func newRandomSource(seed int64) *randomSource {
	r := &randomSource{}
	r.seedRandom(seed)
	return r
}

// seedRandom re-enters random mode, reseeding from the wall clock unless a
// fixed seed was supplied at VM construction (seed == 0 means "use the
// clock").
func (r *randomSource) seedRandom(fixedSeed int64) {
	r.predictable = false
	if fixedSeed != 0 {
		r.rng = rand.New(rand.NewSource(fixedSeed))
		return
	}
	r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (r *randomSource) seedPredictable(limit uint16) {
	r.predictable = true
	r.counterLimit = limit
	r.counter = 0
}

// draw implements the random opcode's full contract for operand n.
func (r *randomSource) draw(n int16, fixedSeed int64) uint16 {
	switch {
	case n > 0:
		if r.predictable {
			r.counter++
			if r.counter > r.counterLimit {
				r.counter = 1
			}
			return r.counter
		}
		return uint16(1 + r.rng.Intn(int(n)))
	case n < 0:
		r.seedPredictable(uint16(-n))
		return 0
	default:
		r.seedRandom(fixedSeed)
		return 0
	}
}
