package pubsub

import "testing"

// A three-node chain a-b-c rooted at a must give a exactly one child (b),
// and b exactly one child (c), when computing b's own view of the tree.
func TestNetTreeChildrenOnChain(t *testing.T) {
	a, b, c := PeerId("a"), PeerId("b"), PeerId("c")
	edges := map[PeerId][]PeerId{
		a: {b},
		b: {a, c},
		c: {b},
	}

	netB := NewNet(b, edges)
	idxA, ok := netB.GetIdx(a)
	if !ok {
		t.Fatalf("expected a to be known to the graph")
	}
	tree, ok := netB.Tree(idxA)
	if !ok {
		t.Fatalf("expected a tree rooted at a")
	}
	if len(tree.Childs) != 1 || tree.Childs[0] != c {
		t.Fatalf("expected b's only child in the tree rooted at a to be c, got %v", tree.Childs)
	}

	netA := NewNet(a, edges)
	idxASelf, _ := netA.GetIdx(a)
	treeAtA, _ := netA.Tree(idxASelf)
	if len(treeAtA.Childs) != 1 || treeAtA.Childs[0] != b {
		t.Fatalf("expected a's only child in the tree rooted at itself to be b, got %v", treeAtA.Childs)
	}
}

// AddLink must report the newly appeared children per affected tree so
// pubsub_new_childs fan-out (fanout.go) only announces to what's new. Here
// the local node is b itself, so attaching c directly to b must show up as
// a new child of b in every tree whose root reaches c only through b.
func TestNetAddLinkReportsNewChilds(t *testing.T) {
	a, b, c := PeerId("a"), PeerId("b"), PeerId("c")
	net := NewNet(b, map[PeerId][]PeerId{
		a: {b},
		b: {a},
	})

	idxA, _ := net.GetIdx(a)
	if before, _ := net.Tree(idxA); len(before.Childs) != 0 {
		t.Fatalf("expected no children for b in the tree rooted at a before c exists, got %v", before.Childs)
	}

	diff := net.AddLink(b, c)

	newAtA, ok := diff[idxA]
	if !ok || len(newAtA) != 1 || newAtA[0] != c {
		t.Fatalf("expected c to appear as b's new child in the tree rooted at a, got %v (present=%v)", newAtA, ok)
	}

	tree, _ := net.Tree(idxA)
	found := false
	for _, child := range tree.Childs {
		if child == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected c to remain b's child in the tree rooted at a")
	}
}
