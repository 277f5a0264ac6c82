package sparse

import (
	"sync/atomic"
	"time"

	_ "unsafe" // for go:linkname
)

// RWSpinLock is a spin-based readers-writer lock sized to guard the
// short structural critical sections of a Map. Any number of readers may
// hold it at once; a writer holds it alone. Acquisition busy-waits
// instead of parking the goroutine, which trades CPU for latency and is
// only appropriate when critical sections are a handful of memory
// operations long.
//
// The lock is writer-preferred: a writer claims the write bit as soon as
// it is free and then waits for in-flight readers to drain, so a steady
// stream of readers cannot starve a writer.
//
// The lock is not reentrant. Acquiring it again from a goroutine that
// already holds it, in either mode, deadlocks.
//
// The zero value is an unlocked lock. A RWSpinLock must not be copied
// after first use.
type RWSpinLock struct {
	_     noCopy
	state atomic.Uint32
}

// State layout: bit 0 is the write bit, bits 1+ count readers.
const (
	writeBit  = 1
	readShift = 1
	readUnit  = 1 << readShift
)

// Lock acquires exclusive access, spinning until every reader has
// drained and no other writer holds the lock.
func (l *RWSpinLock) Lock() {
	var spins int
	for {
		s := l.state.Load()
		if s&writeBit == 0 {
			if l.state.CompareAndSwap(s, s|writeBit) {
				// Write bit is set, so no new readers can enter.
				// Wait for the ones already inside to leave.
				for l.state.Load()>>readShift != 0 {
					delay(&spins)
				}
				return
			}
		}
		delay(&spins)
	}
}

// Unlock releases exclusive access.
func (l *RWSpinLock) Unlock() {
	l.state.Store(0)
}

// RLock acquires shared access, spinning while a writer holds or is
// waiting for the lock.
func (l *RWSpinLock) RLock() {
	var spins int
	for {
		s := l.state.Load()
		if s&writeBit == 0 {
			if l.state.CompareAndSwap(s, s+readUnit) {
				return
			}
		}
		delay(&spins)
	}
}

// RUnlock releases shared access.
func (l *RWSpinLock) RUnlock() {
	l.state.Add(^uint32(readUnit - 1))
}

// delay spins on-CPU while the runtime considers that productive, then
// falls back to a short sleep so contended lockers stop burning cores.
func delay(spins *int) {
	if runtimeCanSpin(*spins) {
		*spins++
		runtimeDoSpin()
		return
	}
	*spins = 0
	time.Sleep(100 * time.Microsecond)
}

//go:linkname runtimeCanSpin sync.runtime_canSpin
func runtimeCanSpin(i int) bool

//go:linkname runtimeDoSpin sync.runtime_doSpin
func runtimeDoSpin()

// noCopy makes `go vet -copylocks` flag copies of structs embedding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
