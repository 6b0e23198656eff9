package pubsub

import "testing"

func TestKeyExprIntersectExactAndWildcards(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"a/b", "a/b", true},
		{"a/*", "a/b", true},
		{"a/*", "a/b/c", false},
		{"a/b", "a/c", false},
		{"a/**", "a/b/c/d", true},
		{"**", "anything/at/all", true},
		{"a/**/z", "a/z", true},
		{"a/**/z", "a/b/z", true},
		{"a/**/z", "a/b/c/z", true},
		{"a/**/z", "a/b/c/y", false},
	}
	for _, c := range cases {
		if got := keyExprIntersect(c.a, c.b); got != c.want {
			t.Errorf("keyExprIntersect(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestResourceStoreMakeGetResourceIdempotent(t *testing.T) {
	store := NewResourceStore()
	root := store.Root()

	r1 := store.MakeResource(root, "a/b")
	r2 := store.MakeResource(root, "a/b")
	if r1 != r2 {
		t.Fatalf("MakeResource must return the same Resource for the same name")
	}

	if got := store.GetResource(root, "a/b"); got != r1 {
		t.Fatalf("GetResource did not find the resource created by MakeResource")
	}
	if got := store.GetResource(root, "never/declared"); got != nil {
		t.Fatalf("GetResource must not create a resource, got %v", got)
	}
}

func TestResourceStoreMatchResourceLinksIntersectingNames(t *testing.T) {
	store := NewResourceStore()
	root := store.Root()

	wild := store.MakeResource(root, "a/*")
	store.MatchResource(wild)

	exact := store.MakeResource(root, "a/b")
	store.MatchResource(exact)

	if _, ok := wild.Matches[exact]; !ok {
		t.Fatalf("expected a/* to match a/b")
	}
	if _, ok := exact.Matches[wild]; !ok {
		t.Fatalf("MatchResource must link both directions")
	}
}

func TestResourceStoreCleanDropsUnreferencedResource(t *testing.T) {
	store := NewResourceStore()
	root := store.Root()

	res := store.MakeResource(root, "a/b")
	res.RouterSubs[PeerId("r1")] = struct{}{}

	store.Clean(res)
	if store.GetResource(root, "a/b") == nil {
		t.Fatalf("a referenced resource must survive Clean")
	}

	delete(res.RouterSubs, PeerId("r1"))
	store.Clean(res)
	if store.GetResource(root, "a/b") != nil {
		t.Fatalf("an unreferenced resource must be dropped by Clean")
	}
}

func TestResourceStoreCleanNeverDropsRoot(t *testing.T) {
	store := NewResourceStore()
	store.Clean(store.Root())
	if store.GetResource(nil, "") != store.Root() {
		t.Fatalf("Clean must never drop the root resource")
	}
}
