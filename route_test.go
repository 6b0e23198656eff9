package pubsub

import "testing"

// At a router, data arriving from one peer must never be echoed back out to
// another peer face; inter-peer forwarding is the peer tier's own job.
func TestPropagateDataSuppressesPeerToPeerAtRouter(t *testing.T) {
	peerA := &Face{ID: 1, WhatAmI: Peer}
	peerB := &Face{ID: 2, WhatAmI: Peer}
	client := &Face{ID: 3, WhatAmI: Client}

	if propagateData(Router, peerA, peerB) {
		t.Fatalf("router must not forward peer-to-peer data directly")
	}
	if !propagateData(Router, peerA, client) {
		t.Fatalf("router must forward peer data out to a client")
	}
	if propagateData(Router, peerA, peerA) {
		t.Fatalf("must never echo back to the originating face")
	}
}

// At a peer or client node (non-router), data only crosses a face boundary
// where a client is on at least one end.
func TestPropagateDataNonRouterRequiresClientEndpoint(t *testing.T) {
	peerA := &Face{ID: 1, WhatAmI: Peer}
	peerB := &Face{ID: 2, WhatAmI: Peer}
	client := &Face{ID: 3, WhatAmI: Client}

	if propagateData(Peer, peerA, peerB) {
		t.Fatalf("peer-to-peer with no client endpoint must not propagate at a non-router")
	}
	if !propagateData(Peer, peerA, client) {
		t.Fatalf("must propagate when the destination is a client")
	}
}

// A Pull-mode subscriber must not receive data immediately; the sample is
// buffered until an explicit pull_data call drains it.
func TestPullModeBuffersUntilPulled(t *testing.T) {
	tables := newTestRouter()
	defer tables.Close()

	sub := &RecordingPrimitives{}
	pub := &RecordingPrimitives{}

	subFace := tables.AddFace("client-sub", Client, sub)
	pubFace := tables.AddFace("client-pub", Client, pub)

	tables.DeclareResourceMapping(subFace, 1, "a/b")
	tables.DeclareClientSubscription(subFace, 1, "", SubInfo{Reliability: Reliable, Mode: Pull})
	tables.DeclareResourceMapping(pubFace, 1, "a/b")

	tables.RouteData(pubFace, 1, "", Drop, nil, []byte("buffered"))

	if calls := sub.Snapshot(); len(calls) != 0 {
		t.Fatalf("pull subscriber must not receive data before a pull, got %+v", calls)
	}

	tables.PullData(subFace, 1, "")

	calls := sub.Snapshot()
	if len(calls) != 1 || calls[0].Method != "data" {
		t.Fatalf("expected exactly one data call after pulling, got %+v", calls)
	}
	if string(calls[0].Payload) != "buffered" {
		t.Fatalf("unexpected payload %q", calls[0].Payload)
	}

	sub.Reset()
	tables.PullData(subFace, 1, "")
	if calls := sub.Snapshot(); len(calls) != 0 {
		t.Fatalf("a second pull with nothing new buffered must not redeliver, got %+v", calls)
	}
}
