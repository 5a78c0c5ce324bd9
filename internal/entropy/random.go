// Package entropy provides the random sources the simulation draws from.
// Every stochastic choice goes through a Source so a fixed seed replays a
// run exactly; crypto/rand is only used to pick a seed when none is given.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
	"sync"
)

// Source is the subset of *math/rand.Rand the simulation uses.
type Source interface {
	Intn(n int) int
	Int63() int64
	Float64() float64
}

// Locked is a Source safe for concurrent use.
type Locked struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewLocked wraps a seeded generator with a mutex.
func NewLocked(seed int64) *Locked {
	return &Locked{rng: mrand.New(mrand.NewSource(seed))}
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *Locked) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Int63()
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// NewSeeded returns an unsynchronized generator for single-goroutine use,
// such as one agent's decision.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to the global generator.
		slog.Warn("crypto seed failed, using math/rand", "error", err)
		return mrand.Int63() | 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// SeedOrRandom returns seed, or a fresh CryptoSeed when seed is zero.
func SeedOrRandom(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	seed = CryptoSeed()
	slog.Info("no seed configured, picked one", "seed", seed)
	return seed
}
