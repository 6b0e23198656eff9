package pubsub

// FaceID is the process-local handle by which Tables and Resources refer to
// a Face. It is never meaningful outside this process.
type FaceID uint64

// Primitives is the outbound session-layer handle a Face forwards
// declarations and data through. It is the one boundary to the transport
// collaborator (spec.md §1): the core never dials, accepts, or frames bytes
// itself, it only calls these three methods and expects the call to return
// once the message has been hand off (enqueued) to the remote endpoint.
//
// Implementations must not call back into Tables synchronously: the core
// holds its single dispatcher slot for the duration of the call (spec.md
// §5), so a reentrant call would deadlock against the same serialized
// operation.
type Primitives interface {
	Subscriber(key ResKey, info SubInfo, treeSID *ZInt)
	ForgetSubscriber(key ResKey, treeSID *ZInt)
	Data(key ResKey, payload []byte, reliability Reliability, cc CongestionControl, info *DataInfo, routingContext *ZInt)
}

// Face is a session-layer endpoint: one per connected peer or client.
type Face struct {
	ID      FaceID
	Pid     PeerId
	WhatAmI WhatAmI

	Primitives Primitives

	// localSubs is the set of resources for which the core has emitted an
	// outbound subscriber(...) to this face and not since forget_subscriber.
	localSubs map[*Resource]struct{}
	// remoteSubs is the set of resources this face's own client has
	// declared as a subscription.
	remoteSubs map[*Resource]struct{}

	// localIDs maps a Resource to the numeric id this face has been told to
	// use for it (decl_key bookkeeping); see resource.go.
	localIDs map[*Resource]ZInt

	// inboundIDs maps a face-local prefix id the face declared to us back to
	// the Resource it names; see Tables.getMapping / DeclareResourceMapping.
	inboundIDs map[ZInt]*Resource
}

func newFace(id FaceID, pid PeerId, whatami WhatAmI, primitives Primitives) *Face {
	return &Face{
		ID:         id,
		Pid:        pid,
		WhatAmI:    whatami,
		Primitives: primitives,
		localSubs:  make(map[*Resource]struct{}),
		remoteSubs: make(map[*Resource]struct{}),
		localIDs:   make(map[*Resource]ZInt),
	}
}

func (f *Face) hasLocalSub(res *Resource) bool {
	_, ok := f.localSubs[res]
	return ok
}

func (f *Face) addLocalSub(res *Resource) {
	f.localSubs[res] = struct{}{}
}

func (f *Face) removeLocalSub(res *Resource) {
	delete(f.localSubs, res)
}

func (f *Face) addRemoteSub(res *Resource) {
	f.remoteSubs[res] = struct{}{}
}

func (f *Face) removeRemoteSub(res *Resource) {
	delete(f.remoteSubs, res)
}

// Context is per-face state attached to a Resource: whether that face's
// client has declared a subscription, and its pull-mode buffer.
type Context struct {
	face *Face

	// Subs is non-nil iff this face's client currently has a declared
	// subscription on the owning Resource.
	Subs *SubInfo

	// lastValues buffers, for a Pull-mode subscription, the most recent
	// (DataInfo, payload) per fully-qualified key name routed to this
	// context since the last pull.
	lastValues map[string]pulledValue
}

type pulledValue struct {
	info    *DataInfo
	payload []byte
}

func newContext(face *Face) *Context {
	return &Context{face: face, lastValues: make(map[string]pulledValue)}
}
