package pubsub

import (
	"strings"
)

// Resource is keyed by its canonical name. Only the pubsub-relevant fields
// from spec.md §3 are kept here; resource-name compression/allocation lives
// in the external resource-name service this type is a value of.
type Resource struct {
	Name string

	// RouterSubs / PeerSubs: PeerIds of routers/peers known to subscribe.
	RouterSubs map[PeerId]struct{}
	PeerSubs   map[PeerId]struct{}

	// Contexts: per-face state, keyed by face id.
	Contexts map[FaceID]*Context

	// Matches: resources whose names intersect this one's under wildcard
	// semantics, lazily maintained by matchResource/buildMatchesDirectTables.
	Matches map[*Resource]struct{}

	// Route is the cached push-forwarding DataRoute; see route.go.
	Route DataRoute

	store *ResourceStore
}

func newResource(store *ResourceStore, name string) *Resource {
	return &Resource{
		Name:       name,
		RouterSubs: make(map[PeerId]struct{}),
		PeerSubs:   make(map[PeerId]struct{}),
		Contexts:   make(map[FaceID]*Context),
		Matches:    make(map[*Resource]struct{}),
		store:      store,
	}
}

// referenced reports whether any tier set or context subscription still
// holds a reference to res; it governs the cleanup pass of spec.md §3's
// lifecycle rule. Faces' local/remote subscription sets are not consulted.
func (r *Resource) referenced() bool {
	if len(r.RouterSubs) > 0 || len(r.PeerSubs) > 0 {
		return true
	}
	for _, ctx := range r.Contexts {
		if ctx.Subs != nil {
			return true
		}
	}
	return false
}

// ResourceStore is the concrete default implementation of the resource-name
// service consumed per spec.md §6 (make_resource, get_resource,
// match_resource, get_matches, decl_key, get_best_key,
// build_matches_direct_tables, clean). It is administered under the same
// dispatcher goroutine as Tables, so it needs no locking of its own.
type ResourceStore struct {
	byName map[string]*Resource
	root   *Resource
}

// NewResourceStore returns a store with a single root resource (the "" name
// addressed by prefixid 0, the reserved null-prefix id).
func NewResourceStore() *ResourceStore {
	s := &ResourceStore{byName: make(map[string]*Resource)}
	s.root = newResource(s, "")
	s.byName[""] = s.root
	return s
}

// Root is the resource addressed by the reserved null prefix id (0).
func (s *ResourceStore) Root() *Resource { return s.root }

func concatName(prefix *Resource, suffix string) string {
	if prefix == nil {
		return suffix
	}
	return prefix.Name + suffix
}

// GetResource looks up an existing resource by prefix+suffix without
// creating it ("get_resource(prefix, suffix) → Resource?").
func (s *ResourceStore) GetResource(prefix *Resource, suffix string) *Resource {
	return s.byName[concatName(prefix, suffix)]
}

// MakeResource gets or creates the resource named prefix.Name+suffix
// ("make_resource(prefix, suffix) → Resource", get-or-create).
func (s *ResourceStore) MakeResource(prefix *Resource, suffix string) *Resource {
	name := concatName(prefix, suffix)
	if res, ok := s.byName[name]; ok {
		return res
	}
	res := newResource(s, name)
	s.byName[name] = res
	return res
}

// MatchResource populates res.Matches with every other known resource whose
// name intersects res's name under Zenoh wildcard semantics, and links the
// back-edge symmetrically.
func (s *ResourceStore) MatchResource(res *Resource) {
	for _, other := range s.byName {
		if other == res {
			continue
		}
		if keyExprIntersect(res.Name, other.Name) {
			res.Matches[other] = struct{}{}
			other.Matches[res] = struct{}{}
		}
	}
}

// GetMatches returns every known resource whose name intersects name,
// without requiring a Resource to already exist for name itself (the slow
// path of get_route uses this directly against a resource name string).
func (s *ResourceStore) GetMatches(name string) []*Resource {
	var out []*Resource
	for _, other := range s.byName {
		if keyExprIntersect(name, other.Name) {
			out = append(out, other)
		}
	}
	return out
}

// DeclKey returns the wire key suitable for declaring res to face, creating
// a per-face numeric id for it if this is the first time face has seen it.
func (s *ResourceStore) DeclKey(res *Resource, face *Face) ResKey {
	if id, ok := face.localIDs[res]; ok {
		return ResKey{RID: id}
	}
	id := ZInt(len(face.localIDs) + 1)
	face.localIDs[res] = id
	return ResKey{RID: id, Suffix: res.Name, Name: res.Name}
}

// GetBestKey returns the best-compressed wire key for transmitting
// prefix+suffix to faceID: the face's own numeric id for that resource if
// one has already been declared, otherwise the bare name.
func (s *ResourceStore) GetBestKey(prefix *Resource, suffix string, faceID FaceID, facesByID map[FaceID]*Face) ResKey {
	name := concatName(prefix, suffix)
	if face, ok := facesByID[faceID]; ok {
		if res, ok := s.byName[name]; ok {
			if id, ok := face.localIDs[res]; ok {
				return ResKey{RID: id}
			}
		}
	}
	return ResKey{Name: name, Suffix: name}
}

// BuildMatchesDirectTables recomputes the Route cache (route.go) for res and
// for every resource in its Matches set, per spec.md §3 invariant 5.
func (s *ResourceStore) BuildMatchesDirectTables(res *Resource) {
	res.Route = buildDataRoute(s, res)
	for m := range res.Matches {
		m.Route = buildDataRoute(s, m)
	}
}

// Clean drops res from the store if it is no longer referenced by any tier
// or context, as reported by referenced ("clean(res) — drop if
// unreferenced"); a face that still lists res does not keep it.
func (s *ResourceStore) Clean(res *Resource) {
	if res == s.root || res.referenced() {
		return
	}
	for m := range res.Matches {
		delete(m.Matches, res)
	}
	delete(s.byName, res.Name)
}

// keyExprIntersect reports whether two resource names can ever denote an
// overlapping set of keys under Zenoh wildcard semantics: '*' matches
// exactly one non-empty path chunk, '**' matches zero or more chunks. Chunks
// are '/'-delimited. This is the minimal subset of the external
// resource-name service's matching rules the pubsub core depends on.
func keyExprIntersect(a, b string) bool {
	if a == b {
		return true
	}
	return chunksIntersect(splitChunks(a), splitChunks(b))
}

func splitChunks(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, "/")
}

func chunksIntersect(a, b []string) bool {
	for {
		switch {
		case len(a) == 0 && len(b) == 0:
			return true
		case len(a) == 0:
			return allDoubleWild(b)
		case len(b) == 0:
			return allDoubleWild(a)
		}

		ah, bh := a[0], b[0]
		switch {
		case ah == "**":
			if chunksIntersect(a[1:], b) || chunksIntersect(a, b[1:]) {
				return true
			}
			return chunksIntersect(a[1:], b[1:])
		case bh == "**":
			if chunksIntersect(a, b[1:]) || chunksIntersect(a[1:], b) {
				return true
			}
			return chunksIntersect(a[1:], b[1:])
		case ah == "*" || bh == "*" || ah == bh:
			a, b = a[1:], b[1:]
			continue
		default:
			return false
		}
	}
}

func allDoubleWild(chunks []string) bool {
	for _, c := range chunks {
		if c != "**" {
			return false
		}
	}
	return true
}
