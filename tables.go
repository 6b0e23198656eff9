package pubsub

import (
	"time"

	timecache "github.com/whyrusleeping/timecache"
)

// errLogWindow bounds how often the same "unknown face for tree child" /
// "unknown peer pid" complaint is re-logged while a stale topology view
// keeps producing it, the same duplicate-suppression window the teacher
// gives seenMessages in pubsub.go.
const errLogWindow = 30 * time.Second

// Tables is the core state container of spec.md §3: faces, the router/peer
// subscription indices, the spanning-tree views handed to us by the
// topology service, and this node's own identity.
//
// Concurrency (spec.md §5) is implemented the way the teacher's PubSub
// actor serializes access to its own state in pubsub.go's processLoop: a
// single dispatcher goroutine drains a channel of closures, one at a time,
// and every public entrypoint below blocks on dispatch() until its closure
// (and every transport call it makes) has run to completion. This gives the
// "single exclusive guard held across the entirety of one operation,
// suspended-but-not-released at transport calls" semantics spec.md asks for
// without needing a mutex: only one closure is ever running.
type Tables struct {
	pid     PeerId
	whatami WhatAmI
	clock   Clock

	faces     map[FaceID]*Face
	nextFace  FaceID
	resources *ResourceStore

	routerSubs map[*Resource]struct{}
	peerSubs   map[*Resource]struct{}

	routersNet *Net
	peersNet   *Net

	// errLog rate-limits the repeated "unable to find face/pid" error logs
	// that a lagging topology view can otherwise produce once per declare.
	errLog *timecache.TimeCache

	eval chan func()
	done chan struct{}
}

// TablesOption configures a Tables at construction time, mirroring the
// teacher's functional-option pattern (pubsub.go's Option type).
type TablesOption func(*Tables)

// WithClock attaches an HLC implementation; without one, route_data never
// stamps or validates timestamps (tables.hlc stays nil, exactly as the
// original leaves tables.hlc unset when no clock was configured).
func WithClock(c Clock) TablesOption {
	return func(t *Tables) { t.clock = c }
}

// WithRoutersNet / WithPeersNet attach the topology service's spanning-tree
// views for each tier.
func WithRoutersNet(n *Net) TablesOption {
	return func(t *Tables) { t.routersNet = n }
}

func WithPeersNet(n *Net) TablesOption {
	return func(t *Tables) { t.peersNet = n }
}

// NewTables constructs a Tables for a node identified by pid, acting in the
// given tier, and starts its dispatcher goroutine.
func NewTables(pid PeerId, whatami WhatAmI, opts ...TablesOption) *Tables {
	t := &Tables{
		pid:        pid,
		whatami:    whatami,
		faces:      make(map[FaceID]*Face),
		resources:  NewResourceStore(),
		routerSubs: make(map[*Resource]struct{}),
		peerSubs:   make(map[*Resource]struct{}),
		errLog:     timecache.NewTimeCache(errLogWindow),
		eval:       make(chan func()),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.run()
	return t
}

func (t *Tables) run() {
	for {
		select {
		case thunk := <-t.eval:
			thunk()
		case <-t.done:
			return
		}
	}
}

// dispatch submits fn to the single dispatcher goroutine and blocks until it
// has returned, giving callers the "operation completes under the exclusive
// guard before the next one starts" guarantee of spec.md §5.
func (t *Tables) dispatch(fn func()) {
	done := make(chan struct{})
	t.eval <- func() {
		fn()
		close(done)
	}
	<-done
}

// Close stops the dispatcher goroutine. Safe to call once.
func (t *Tables) Close() {
	close(t.done)
}

// AddFace registers a new Face under a freshly allocated FaceID and returns
// it. Declaring a new CLIENT face additionally triggers the fan-out of
// spec.md §4.7's pubsub_new_client_face.
func (t *Tables) AddFace(pid PeerId, whatami WhatAmI, primitives Primitives) *Face {
	var face *Face
	t.dispatch(func() {
		t.nextFace++
		face = newFace(t.nextFace, pid, whatami, primitives)
		t.faces[face.ID] = face
		if whatami == Client {
			t.pubsubNewClientFace(face)
		}
	})
	return face
}

// RemoveFace drops a face from the table. Resources that face referenced
// through local_subs/remote_subs are left for the next cleanup pass to
// collect; contexts pointing at the departed face remain in place (the
// owning Resource must tolerate a stale context, per spec.md §3's ownership
// model) until an undeclare touches them.
func (t *Tables) RemoveFace(id FaceID) {
	t.dispatch(func() {
		delete(t.faces, id)
	})
}

// getMapping resolves a face-local prefix id to a Resource
// ("get_mapping(face, rid) → Resource?"). The reserved id 0 always resolves
// to the store's root resource ("" name), matching Zenoh's null-prefix
// convention; any other id must have been established by a prior resource
// declaration, modeled here via DeclareResourceMapping since resource-id
// allocation is an external collaborator out of this core's scope.
func (t *Tables) getMapping(face *Face, rid ZInt) *Resource {
	if rid == 0 {
		return t.resources.Root()
	}
	if face.inboundIDs == nil {
		return nil
	}
	return face.inboundIDs[rid]
}

// DeclareResourceMapping records that face has declared rid to name this
// resource, standing in for the external resource-name service's
// declare_resource handling (out of spec.md §1's scope).
func (t *Tables) DeclareResourceMapping(face *Face, rid ZInt, name string) {
	t.dispatch(func() {
		if face.inboundIDs == nil {
			face.inboundIDs = make(map[ZInt]*Resource)
		}
		face.inboundIDs[rid] = t.resources.MakeResource(t.resources.Root(), name)
	})
}

// logMissingFaceOnce logs msg at most once per errLogWindow for the given
// key (callers build it from the tree root and/or child pid), since a
// topology view that lags a disconnect can
// otherwise repeat the same complaint on every subsequent declare.
func (t *Tables) logMissingFaceOnce(key string, msg string, args ...interface{}) {
	if t.errLog.Has(key) {
		return
	}
	t.errLog.Add(key)
	log.Errorf(msg, args...)
}

// getFace resolves a tree child's PeerId to the Face connected to it, if
// any ("Unable to find face for pid" is logged and the child skipped when
// this returns nil, per spec.md §7).
func (t *Tables) getFace(pid PeerId) *Face {
	for _, f := range t.faces {
		if f.Pid == pid {
			return f
		}
	}
	return nil
}
