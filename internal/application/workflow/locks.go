package workflow

import "sync"

// docLocks serializes engine operations per document. A document is a
// serially-confined aggregate; the lock keeps two concurrent approves from
// both reading the same step pointer, and the repository's version CAS backs
// it up across processes.
type docLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[int64]*lockEntry)}
}

// acquire blocks until the document's lock is held and returns the release
// function. Entries are reference-counted so the map does not grow without
// bound.
func (l *docLocks) acquire(documentID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[documentID]
	if !ok {
		entry = &lockEntry{}
		l.locks[documentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, documentID)
		}
		l.mu.Unlock()
	}
}
