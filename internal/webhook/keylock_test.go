package webhook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	const iterations = 200

	counter := 0

	var wg sync.WaitGroup

	for i := 0; i < iterations; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := km.Lock("comment-1")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	assert.Equal(t, iterations, counter)
}

func TestKeyedMutexReleasesIdleEntries(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("a")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()

	assert.Empty(t, km.locks)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("a")
	defer unlockA()

	// A different key must not block.
	done := make(chan struct{})

	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
}
