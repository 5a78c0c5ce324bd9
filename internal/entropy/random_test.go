package entropy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockedIsDeterministic(t *testing.T) {
	a, b := NewLocked(7), NewLocked(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
		assert.Equal(t, a.Intn(10), b.Intn(10))
	}
}

func TestLockedConcurrentUse(t *testing.T) {
	l := NewLocked(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := l.Intn(5)
				assert.True(t, v >= 0 && v < 5)
			}
		}()
	}
	wg.Wait()
}

func TestSeeds(t *testing.T) {
	assert.Equal(t, int64(42), SeedOrRandom(42))
	assert.NotZero(t, SeedOrRandom(0))
	assert.Positive(t, CryptoSeed())

	assert.Equal(t, NewSeeded(3).Int63(), NewSeeded(3).Int63())
}
