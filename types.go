package pubsub

import (
	"github.com/libp2p/go-libp2p-core/peer"
)

// PeerId identifies a node in the federation. It is opaque outside of
// equality/hashing, so we reuse the teacher's own peer identifier type
// instead of minting a new one.
type PeerId = peer.ID

// ZInt is the wire-level unsigned integer used throughout the original
// protocol (resource ids, tree_sid hints, sequence numbers).
type ZInt = uint64

// WhatAmI is the tier tag carried by a Face and by Tables itself.
type WhatAmI int

const (
	WhatAmIUnknown WhatAmI = iota
	Router
	Peer
	Client
)

func (w WhatAmI) String() string {
	switch w {
	case Router:
		return "router"
	case Peer:
		return "peer"
	case Client:
		return "client"
	default:
		return "unknown"
	}
}

// Reliability mirrors the wire-level reliability of a subscription or a
// data sample.
type Reliability int

const (
	BestEffort Reliability = iota
	Reliable
)

// SubMode distinguishes Push (deliver on arrival) from Pull (buffer last
// value per key until explicitly drained) subscriptions.
type SubMode int

const (
	Push SubMode = iota
	Pull
)

// CongestionControl is a boolean-shaped QoS knob carried through unchanged;
// the core never schedules on it, it only forwards it to the transport.
type CongestionControl int

const (
	Drop CongestionControl = iota
	Block
)

// SubInfo describes a subscription: its reliability, its delivery mode and,
// for Pull subscriptions, an optional period (opaque to the core).
type SubInfo struct {
	Reliability Reliability
	Mode        SubMode
	Period      *ZInt
}

// DataInfo carries sample metadata, most importantly the optional HLC
// timestamp consumed and/or stamped by the timestamp gate (hlc.go).
type DataInfo struct {
	SourceID      *PeerId
	SourceSN      *ZInt
	FirstRouterID *PeerId
	FirstRouterSN *ZInt
	Timestamp     *Timestamp
	Kind          *ZInt
	Encoding      *ZInt
}

// ResKey is the wire-efficient encoding of a resource name: either a bare
// numeric id, a bare string, or an id+suffix pair. Resource-name management
// (allocation, compression, matching) is an external collaborator; ResKey is
// the value type that collaborator hands back to us.
type ResKey struct {
	RID    ZInt
	Suffix string
	Name   string // full resource name; empty when the key is a bare numeric id
}

func (k ResKey) String() string {
	if k.Name != "" {
		return k.Name
	}
	if k.Suffix != "" {
		return k.Suffix
	}
	return k.Name
}
