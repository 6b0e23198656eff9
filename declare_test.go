package pubsub

import "testing"

func newTestRouter() *Tables {
	return NewTables(PeerId("router-1"), Router)
}

// A client subscribing and a client publishing, both attached directly to
// the same router, should see the router forward data from one to the
// other without either client ever being declared to the router tier.
func TestDeclareClientToClientViaRouter(t *testing.T) {
	tables := newTestRouter()
	defer tables.Close()

	sub := &RecordingPrimitives{}
	pub := &RecordingPrimitives{}

	subFace := tables.AddFace("client-sub", Client, sub)
	pubFace := tables.AddFace("client-pub", Client, pub)

	tables.DeclareResourceMapping(subFace, 1, "a/b")
	tables.DeclareClientSubscription(subFace, 1, "", SubInfo{Reliability: Reliable, Mode: Push})

	tables.DeclareResourceMapping(pubFace, 1, "a/b")
	tables.RouteData(pubFace, 1, "", Drop, nil, []byte("hi"))

	calls := sub.Snapshot()
	if len(calls) != 1 || calls[0].Method != "data" {
		t.Fatalf("expected exactly one data call to the subscriber, got %+v", calls)
	}
	if string(calls[0].Payload) != "hi" {
		t.Fatalf("unexpected payload %q", calls[0].Payload)
	}

	pubCalls := pub.Snapshot()
	for _, c := range pubCalls {
		if c.Method == "data" {
			t.Fatalf("publisher face must never receive its own data back: %+v", c)
		}
	}
}

// Undeclaring the only client subscription on a resource must emit a
// forget_subscriber to the face that was told to subscribe (the publisher
// face, never the undeclaring one) and leave the resource unreferenced.
func TestUndeclareClientSubscriptionCleansUp(t *testing.T) {
	tables := newTestRouter()
	defer tables.Close()

	sub := &RecordingPrimitives{}
	pub := &RecordingPrimitives{}

	subFace := tables.AddFace("client-sub", Client, sub)
	pubFace := tables.AddFace("client-pub", Client, pub)

	tables.DeclareResourceMapping(subFace, 1, "a/b")
	tables.DeclareClientSubscription(subFace, 1, "", SubInfo{Reliability: Reliable, Mode: Push})
	tables.DeclareResourceMapping(pubFace, 1, "a/b")

	pub.Reset()
	tables.UndeclareClientSubscription(subFace, 1, "")

	found := false
	for _, c := range pub.Snapshot() {
		if c.Method == "forget_subscriber" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a forget_subscriber call after the last undeclare")
	}

	var resourceStillReferenced bool
	tables.dispatch(func() {
		if res := tables.resources.GetResource(tables.resources.Root(), "a/b"); res != nil {
			resourceStillReferenced = res.referenced()
		}
	})
	if resourceStillReferenced {
		t.Fatalf("resource should no longer be referenced after the only subscription was undeclared")
	}
}

// A re-declare on the same face while a Push subscription is already live
// must not downgrade it to the re-declared info (SUP-1).
func TestRegisterClientSubscriptionKeepsLivePush(t *testing.T) {
	tables := newTestRouter()
	defer tables.Close()

	sub := &RecordingPrimitives{}
	face := tables.AddFace("client-sub", Client, sub)

	var res *Resource
	tables.dispatch(func() {
		res = tables.resources.MakeResource(tables.resources.Root(), "a/b")
	})

	tables.dispatch(func() {
		tables.registerClientSubscription(face, res, &SubInfo{Reliability: Reliable, Mode: Push})
	})
	period := ZInt(10)
	tables.dispatch(func() {
		tables.registerClientSubscription(face, res, &SubInfo{Reliability: Reliable, Mode: Pull, Period: &period})
	})

	var gotMode SubMode
	tables.dispatch(func() {
		gotMode = res.Contexts[face.ID].Subs.Mode
	})
	if gotMode != Push {
		t.Fatalf("expected live Push subscription to survive a Pull re-declare, got mode %v", gotMode)
	}
}
