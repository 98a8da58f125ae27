package reviews

import "sync"

type ChangeKind string

const (
	ChangeSubmitted ChangeKind = "submitted"
	ChangeApproved  ChangeKind = "approved"
	ChangeRejected  ChangeKind = "rejected"
	ChangeReplied   ChangeKind = "replied"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change is published after every review mutation.
type Change struct {
	Kind     ChangeKind
	ReviewID ReviewID
	Status   Status
}

// Feed fans review changes out to subscribers. Callbacks run synchronously
// on the publisher's goroutine and must not block.
type Feed struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns the function that removes it.
func (f *Feed) Subscribe(fn func(Change)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) Publish(c Change) {
	f.mu.RLock()
	fns := make([]func(Change), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// ChangeFor maps a moderation target to its change kind.
func ChangeFor(to Status) ChangeKind {
	switch to {
	case StatusApproved:
		return ChangeApproved
	case StatusRejected:
		return ChangeRejected
	}
	return ChangeSubmitted
}
