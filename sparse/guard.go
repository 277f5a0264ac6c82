package sparse

// Scoped acquisition helpers. Pairing the acquire with a returned release
// func keeps lock and unlock on the same line at every call site:
//
//	release := l.AcquireRead()
//	defer release()
//
// so the lock is released on every exit path, early returns included.
// Every Map operation takes its lock through one of these.

// AcquireRead locks l for reading and returns the matching release func.
func (l *RWSpinLock) AcquireRead() func() {
	l.RLock()
	return l.RUnlock
}

// AcquireWrite locks l for writing and returns the matching release func.
func (l *RWSpinLock) AcquireWrite() func() {
	l.Lock()
	return l.Unlock
}
