package shared

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource supplies the randomness used by stage policies (offer terms,
// route composition, confirmation codes). Implementations must be safe for
// concurrent use.
type RandomSource interface {
	// Float64 returns a number in [0.0, 1.0)
	Float64() float64
	// IntN returns a number in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// lockedRand serialises access to a *rand.Rand, which is not goroutine safe
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a PCG-backed source seeded from crypto/rand
func NewRandomSource() RandomSource {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("shared: unable to seed random source: " + err.Error())
	}
	return NewSeededRandomSource(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// NewSeededRandomSource returns a deterministic source for the given seeds
func NewSeededRandomSource(seed1, seed2 uint64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// FixedRandomSource replays a fixed sequence of values. Once exhausted the
// sequences wrap around. Intended for tests and deterministic replays.
type FixedRandomSource struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

// Float64 returns the next configured float, or 0 when none are configured
func (f *FixedRandomSource) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[f.fi%len(f.Floats)]
	f.fi++
	return v
}

// IntN returns the next configured int reduced modulo n
func (f *FixedRandomSource) IntN(n int) int {
	if n <= 0 {
		panic("shared: invalid argument to IntN")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Ints) == 0 {
		return 0
	}
	v := f.Ints[f.ii%len(f.Ints)]
	f.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

var _ RandomSource = (*FixedRandomSource)(nil)
