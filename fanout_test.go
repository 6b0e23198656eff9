package pubsub

import "testing"

// End-to-end S5: a router that already has a router-tier subscription on
// "/m" must, when a new child appears in the spanning tree rooted at the
// subscribing peer, send that new child's face exactly one subscriber call
// for "/m" carrying the tree_sid hint — spec.md §8's S5.
func TestPubsubNewChildsAnnouncesToNewChild(t *testing.T) {
	self := PeerId("router-self")
	treeRoot := PeerId("root-peer")
	child := PeerId("new-child")

	net := NewNet(self, map[PeerId][]PeerId{
		self:     {treeRoot},
		treeRoot: {self},
	})

	tables := NewTables(self, Router, WithRoutersNet(net))
	defer tables.Close()

	upstream := tables.AddFace(treeRoot, Router, &RecordingPrimitives{})
	tables.DeclareRouterSubscription(upstream, 0, "/m", SubInfo{Reliability: Reliable, Mode: Push}, treeRoot)

	childRecording := &RecordingPrimitives{}
	tables.AddFace(child, Router, childRecording)

	childsByTree := net.AddLink(self, child)
	treeSID, _ := net.GetIdx(treeRoot)
	if newChilds := childsByTree[treeSID]; len(newChilds) != 1 || newChilds[0] != child {
		t.Fatalf("expected the new child to appear in the tree rooted at the subscribing peer, got %v", childsByTree)
	}

	tables.PubsubNewChilds(childsByTree, Router)

	calls := childRecording.Snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one call to the new child's face, got %+v", calls)
	}
	if calls[0].Method != "subscriber" {
		t.Fatalf("expected a subscriber call, got %q", calls[0].Method)
	}
	if calls[0].Key.String() != "/m" {
		t.Fatalf("expected the subscriber call to name /m, got %q", calls[0].Key.String())
	}
	if calls[0].TreeSID == nil || *calls[0].TreeSID != ZInt(treeSID) {
		t.Fatalf("expected the subscriber call to carry tree_sid %d, got %v", treeSID, calls[0].TreeSID)
	}
}
