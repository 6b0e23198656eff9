package pubsub

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry is a read-only snapshot of Tables' size, safe to poll from a
// metrics/introspection goroutine that must not contend with the dispatcher
// guard. It uses xsync's lock-free map the way USA-RedDragon-DMRHub reaches
// for github.com/puzpuzpuz/xsync for concurrent counters outside a critical
// section, rather than taking Tables' own guard just to read a gauge.
type Registry struct {
	faceCount  atomic.Pointer[xsync.Map[WhatAmI, int]]
	routerSubs atomic.Pointer[xsync.Map[string, struct{}]]
	peerSubs   atomic.Pointer[xsync.Map[string, struct{}]]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.faceCount.Store(xsync.NewMap[WhatAmI, int]())
	r.routerSubs.Store(xsync.NewMap[string, struct{}]())
	r.peerSubs.Store(xsync.NewMap[string, struct{}]())
	return r
}

// Snapshot refreshes the registry from t's current state. It dispatches
// onto the Tables guard so the read of Tables' maps is itself serialized,
// then publishes the result with a single atomic pointer swap; readers of
// the Registry never contend with the dispatcher.
func (r *Registry) Snapshot(t *Tables) {
	t.dispatch(func() {
		faceCount := xsync.NewMap[WhatAmI, int]()
		counts := map[WhatAmI]int{}
		for _, f := range t.faces {
			counts[f.WhatAmI]++
		}
		for w, c := range counts {
			faceCount.Store(w, c)
		}

		routerSubs := xsync.NewMap[string, struct{}]()
		for res := range t.routerSubs {
			routerSubs.Store(res.Name, struct{}{})
		}

		peerSubs := xsync.NewMap[string, struct{}]()
		for res := range t.peerSubs {
			peerSubs.Store(res.Name, struct{}{})
		}

		r.faceCount.Store(faceCount)
		r.routerSubs.Store(routerSubs)
		r.peerSubs.Store(peerSubs)
	})
}

// FaceCount returns the last-snapshotted number of faces of the given tier.
func (r *Registry) FaceCount(w WhatAmI) int {
	v, _ := r.faceCount.Load().Load(w)
	return v
}

// RouterSubscribedResources returns the last-snapshotted set of resource
// names with at least one router subscriber.
func (r *Registry) RouterSubscribedResources() []string {
	var out []string
	r.routerSubs.Load().Range(func(name string, _ struct{}) bool {
		out = append(out, name)
		return true
	})
	return out
}

// PeerSubscribedResources returns the last-snapshotted set of resource names
// with at least one peer subscriber.
func (r *Registry) PeerSubscribedResources() []string {
	var out []string
	r.peerSubs.Load().Range(func(name string, _ struct{}) bool {
		out = append(out, name)
		return true
	})
	return out
}
