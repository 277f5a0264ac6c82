package sparse_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/plus3/sparsekit/sparse"
	"github.com/stretchr/testify/assert"
)

func TestRWSpinLockBasic(t *testing.T) {
	var l sparse.RWSpinLock
	var x int

	l.Lock()
	x = 1
	l.Unlock()

	l.RLock()
	assert.Equal(t, 1, x)
	l.RUnlock()
}

func TestRWSpinLockReadersShareAccess(t *testing.T) {
	var l sparse.RWSpinLock

	l.RLock()
	defer l.RUnlock()

	// A second reader must get in while the first still holds the lock.
	acquired := make(chan struct{})
	go func() {
		l.RLock()
		defer l.RUnlock()
		close(acquired)
	}()
	<-acquired
}

func TestRWSpinLockWriterExclusion(t *testing.T) {
	var l sparse.RWSpinLock
	var readers, writers atomic.Int32

	const loops = 2000
	readerN := runtime.GOMAXPROCS(0)
	writerN := 2

	var wg sync.WaitGroup
	wg.Add(readerN + writerN)

	for range readerN {
		go func() {
			defer wg.Done()
			for range loops {
				l.RLock()
				readers.Add(1)
				if writers.Load() != 0 {
					t.Errorf("reader observed an active writer")
				}
				readers.Add(-1)
				l.RUnlock()
			}
		}()
	}

	for range writerN {
		go func() {
			defer wg.Done()
			for range loops {
				l.Lock()
				if writers.Add(1) != 1 {
					t.Errorf("two writers inside the critical section")
				}
				if readers.Load() != 0 {
					t.Errorf("writer observed active readers")
				}
				writers.Add(-1)
				l.Unlock()
			}
		}()
	}

	wg.Wait()
}

func TestRWSpinLockCounterUnderWriters(t *testing.T) {
	var l sparse.RWSpinLock
	var counter int

	const writers = 8
	const increments = 5000

	var wg sync.WaitGroup
	wg.Add(writers)
	for range writers {
		go func() {
			defer wg.Done()
			for range increments {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*increments, counter)
}

func TestAcquireGuardsReleaseOnEveryPath(t *testing.T) {
	var l sparse.RWSpinLock

	func() {
		release := l.AcquireWrite()
		defer release()
		// Early return path.
	}()

	func() {
		release := l.AcquireRead()
		defer release()
	}()

	// Both guards must have released: an exclusive acquire succeeds.
	release := l.AcquireWrite()
	release()
}
