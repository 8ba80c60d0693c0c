package event

// trackedRef is the bookkeeping entry for one subscriber. It never holds
// the subscriber itself, only a liveness check over a weak pointer.
type trackedRef struct {
	id    SubscriberID
	name  string
	alive func() bool
}

// tracker records live subscribers by non-owning reference. Like the
// registry it relies on the manager's lock.
type tracker struct {
	refs map[SubscriberID]*trackedRef
}

func newTracker() *tracker {
	return &tracker{refs: make(map[SubscriberID]*trackedRef)}
}

// track stores a reference to a subscriber of the given type name.
func (t *tracker) track(name string, alive func() bool) SubscriberID {
	id := SubscriberID(NewID())
	t.refs[id] = &trackedRef{id: id, name: name, alive: alive}
	return id
}

// untrack removes a subscriber explicitly.
func (t *tracker) untrack(id SubscriberID) (*trackedRef, bool) {
	ref, ok := t.refs[id]
	if ok {
		delete(t.refs, id)
	}
	return ref, ok
}

// sweep removes every reference whose target has been collected and
// returns them so their registrations can be purged.
func (t *tracker) sweep() []*trackedRef {
	var dead []*trackedRef
	for id, ref := range t.refs {
		if !ref.alive() {
			delete(t.refs, id)
			dead = append(dead, ref)
		}
	}
	return dead
}

func (t *tracker) len() int {
	return len(t.refs)
}

func (t *tracker) clear() {
	t.refs = make(map[SubscriberID]*trackedRef)
}
