package pubsub

// DataRoute maps a destination face id to the face itself and the
// best-compressed wire key to use when forwarding to it (spec.md §4.4).
type DataRoute map[FaceID]routedFace

type routedFace struct {
	face *Face
	key  ResKey
}

// buildDataRoute computes the push-forwarding DataRoute for res from the
// Push-mode subscriptions in its own Contexts; RouterSubs and PeerSubs do
// not contribute entries. See
// ResourceStore.BuildMatchesDirectTables, which is the only caller.
func buildDataRoute(store *ResourceStore, res *Resource) DataRoute {
	route := make(DataRoute)
	for id, ctx := range res.Contexts {
		if ctx.Subs == nil || ctx.Subs.Mode != Push {
			continue
		}
		route[id] = routedFace{face: ctx.face, key: store.GetBestKey(nil, res.Name, id, nil)}
	}
	return route
}

// getRoute implements spec.md §4.4's get_route: fast path on an exact
// resource hit (returns its cached Route and buffers pull values along the
// way), slow path recomputing from the matches of the resource name string.
func (t *Tables) getRoute(face *Face, rid ZInt, suffix string, info *DataInfo, payload []byte) (DataRoute, bool) {
	prefix := t.getMapping(face, rid)
	if prefix == nil {
		log.Errorf("route data with unknown rid %d", rid)
		return nil, false
	}

	fullName := concatName(prefix, suffix)

	if res := t.resources.GetResource(prefix, suffix); res != nil {
		for mres := range res.Matches {
			t.bufferPullValues(mres, fullName, info, payload)
		}
		t.bufferPullValues(res, fullName, info, payload)
		return res.Route, true
	}

	route := make(DataRoute)
	for _, mres := range t.resources.GetMatches(fullName) {
		for id, ctx := range mres.Contexts {
			if ctx.Subs == nil {
				continue
			}
			if ctx.Subs.Mode == Pull {
				ctx.lastValues[fullName] = pulledValue{info: info, payload: payload}
				continue
			}
			if _, exists := route[id]; !exists {
				route[id] = routedFace{face: ctx.face, key: t.resources.GetBestKey(prefix, suffix, id, t.faces)}
			}
		}
	}
	return route, true
}

func (t *Tables) bufferPullValues(res *Resource, fullName string, info *DataInfo, payload []byte) {
	for _, ctx := range res.Contexts {
		if ctx.Subs != nil && ctx.Subs.Mode == Pull {
			ctx.lastValues[fullName] = pulledValue{info: info, payload: payload}
		}
	}
}

// propagateData is the loop-suppression predicate of spec.md §4.4: never
// echo to the originating face; at a ROUTER, inter-router and inter-peer
// hops are left to those tiers' own propagation; elsewhere, forward only
// where a CLIENT is on one end.
func propagateData(whatami WhatAmI, src, dst *Face) bool {
	if src.ID == dst.ID {
		return false
	}
	switch whatami {
	case Router:
		if src.WhatAmI == Peer && dst.WhatAmI == Peer {
			return false
		}
		if src.WhatAmI == Router && dst.WhatAmI == Router {
			return false
		}
		return true
	default:
		return src.WhatAmI == Client || dst.WhatAmI == Client
	}
}

// RouteData is the inbound routeData entrypoint of spec.md §6. It dispatches
// onto the single guard and returns once the operation (including every
// transport call it makes) has completed.
func (t *Tables) RouteData(face *Face, rid ZInt, suffix string, cc CongestionControl, info *DataInfo, payload []byte) {
	t.dispatch(func() {
		t.routeData(face, rid, suffix, cc, info, payload)
	})
}

func (t *Tables) routeData(face *Face, rid ZInt, suffix string, cc CongestionControl, info *DataInfo, payload []byte) {
	route, ok := t.getRoute(face, rid, suffix, info, payload)
	if !ok {
		return
	}

	dataInfo := info
	if t.clock != nil {
		treated, err := treatTimestamp(t.clock, info)
		if err != nil {
			log.Errorf("error treating timestamp for received data, dropping: %s", err)
			return
		}
		dataInfo = treated
	}

	for _, dst := range route {
		if propagateData(t.whatami, face, dst.face) {
			dst.face.Primitives.Data(dst.key, payload, Reliable, cc, dataInfo, nil)
		}
	}
}
