package planner

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// jitterProbability is the chance that round-robin jumps to a random entry.
	jitterProbability = 0.10
	// continuityProbability is the chance that a component keeps the previous day's value.
	continuityProbability = 0.05
	// randomPickProbability splits component selection between random and systematic picks.
	randomPickProbability = 0.70
)

// RandomSource is the randomness the engine draws from.
type RandomSource interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64
	// Intn returns a number in [0, n).
	Intn(n int) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a goroutine-safe RandomSource. A zero seed uses the current time.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

// roundRobin picks pool[cursor] and advances the cursor, except for the
// occasional uniformly random pick which leaves the cursor alone.
func roundRobin(rnd RandomSource, pool []string, cursor *int, placeholder string) string {
	if len(pool) == 0 {
		return placeholder
	}
	if rnd.Float64() < jitterProbability {
		return pool[rnd.Intn(len(pool))]
	}
	choice := pool[*cursor%len(pool)]
	*cursor++
	return choice
}

// historyBiasedPick chooses a replacement component. previous is the prior
// day's value for the same slot and is ignored when empty.
func historyBiasedPick(rnd RandomSource, candidates []string, previous string, day, mealOffset int) string {
	if rnd.Float64() < continuityProbability && previous != "" {
		for _, c := range candidates {
			if c == previous {
				return c
			}
		}
	}
	if rnd.Float64() < randomPickProbability {
		return candidates[rnd.Intn(len(candidates))]
	}
	return candidates[(day+mealOffset)%len(candidates)]
}

func shuffled(rnd RandomSource, pool []string) []string {
	out := append([]string(nil), pool...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
