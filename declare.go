package pubsub

// This file implements spec.md §4.1 (declare + tiered propagation), §4.2
// (undeclare + cascade) and §4.3 (the tree-guided propagation helper).
// Every exported Declare*/Undeclare* method dispatches onto Tables' single
// guard (tables.go) and performs its entire state mutation plus outbound
// transport calls before returning, per spec.md §5.

func forcedPush(in *SubInfo) *SubInfo {
	out := *in
	out.Mode = Push
	return &out
}

func anyContextSub(res *Resource) bool {
	for _, ctx := range res.Contexts {
		if ctx.Subs != nil {
			return true
		}
	}
	return false
}

// anyPeerSubsOtherThanSelf reports whether any resource in index carries a
// peer-tier subscription from a peer other than self. This mirrors the
// compound guard of original_source/zenoh-router/src/routing/pubsub.rs
// (undeclare_peer_subscription / unregister_client_subscription), which
// checks res.peer_subs even when walking the router_subs index — see
// SPEC_FULL.md SUP-2/SUP-3.
func (t *Tables) anyPeerSubsOtherThanSelf(index map[*Resource]struct{}) bool {
	for res := range index {
		for p := range res.PeerSubs {
			if p != t.pid {
				return true
			}
		}
	}
	return false
}

// treeWalk is the helper of spec.md §4.3: walk this node's direct children
// in net's spanning tree rooted at root and emit a subscriber or
// forget_subscriber call to the face owning each child, skipping the face
// that delivered the triggering declaration.
func (t *Tables) treeWalk(net *Net, root PeerId, res *Resource, subInfo *SubInfo, srcFace *Face, forget bool) {
	if net == nil {
		log.Errorf("propagating sub %s: no spanning-tree view configured", res.Name)
		return
	}
	idx, ok := net.GetIdx(root)
	if !ok {
		t.logMissingFaceOnce("treewalk-idx:"+root.String(),
			"propagating sub %s: cannot get index of %s", res.Name, root)
		return
	}
	tree, ok := net.Tree(idx)
	if !ok {
		return
	}

	for _, childPid := range tree.Childs {
		someFace := t.getFace(childPid)
		if someFace == nil {
			t.logMissingFaceOnce("treewalk:"+root.String()+":"+childPid.String(),
				"unable to find face for pid %s", childPid)
			continue
		}
		if someFace.ID == srcFace.ID {
			continue
		}

		key := t.resources.DeclKey(res, someFace)
		treeSID := ZInt(idx)
		if forget {
			log.Debugf("send forget subscription %s on face %d %s", res.Name, someFace.ID, someFace.Pid)
			someFace.Primitives.ForgetSubscriber(key, &treeSID)
		} else {
			log.Debugf("send subscription %s on face %d %s", res.Name, someFace.ID, someFace.Pid)
			someFace.Primitives.Subscriber(key, *subInfo, &treeSID)
		}
	}
}

// propagateSimpleSubscription is spec.md §4.1's "simple" client propagation:
// no tree, iterate all faces and announce to the ones the tier rules admit.
func (t *Tables) propagateSimpleSubscription(srcFace *Face, res *Resource, subInfo *SubInfo) {
	for _, dstFace := range t.faces {
		if srcFace.ID == dstFace.ID || dstFace.hasLocalSub(res) {
			continue
		}

		admitted := false
		switch t.whatami {
		case Router, Peer:
			admitted = dstFace.WhatAmI == Client
		default:
			admitted = srcFace.WhatAmI == Client || dstFace.WhatAmI == Client
		}
		if !admitted {
			continue
		}

		dstFace.addLocalSub(res)
		key := t.resources.DeclKey(res, dstFace)
		dstFace.Primitives.Subscriber(key, *subInfo, nil)
	}
}

// propagateForgetSimpleSubscription is the undeclare-side counterpart.
func (t *Tables) propagateForgetSimpleSubscription(res *Resource) {
	for _, face := range t.faces {
		if !face.hasLocalSub(res) {
			continue
		}
		key := t.resources.GetBestKey(res, "", face.ID, t.faces)
		face.Primitives.ForgetSubscriber(key, nil)
		face.removeLocalSub(res)
	}
}

// --- router tier -----------------------------------------------------------

func (t *Tables) registerRouterSubscription(face *Face, res *Resource, subInfo *SubInfo, router PeerId) {
	if _, already := res.RouterSubs[router]; !already {
		log.Debugf("register router subscription %s (router: %s)", res.Name, router)
		res.RouterSubs[router] = struct{}{}
		t.routerSubs[res] = struct{}{}

		t.treeWalk(t.routersNet, router, res, subInfo, face, false)

		if face.WhatAmI != Peer {
			t.registerPeerSubscription(face, res, subInfo, t.pid)
		}
	}

	t.propagateSimpleSubscription(face, res, subInfo)
}

// DeclareRouterSubscription is the inbound declare_router_subscription
// entrypoint of spec.md §6.
func (t *Tables) DeclareRouterSubscription(face *Face, prefixid ZInt, suffix string, subInfo SubInfo, router PeerId) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("declare router subscription for unknown rid %d", prefixid)
			return
		}
		res := t.resources.MakeResource(prefix, suffix)
		t.resources.MatchResource(res)
		t.registerRouterSubscription(face, res, &subInfo, router)
		t.resources.BuildMatchesDirectTables(res)
	})
}

func (t *Tables) unregisterRouterSubscription(face *Face, res *Resource, router PeerId) {
	if _, present := res.RouterSubs[router]; !present {
		return
	}
	log.Debugf("unregister router subscription %s (router: %s)", res.Name, router)
	delete(res.RouterSubs, router)

	t.treeWalk(t.routersNet, router, res, nil, face, true)

	if len(res.RouterSubs) == 0 {
		delete(t.routerSubs, res)
		t.unregisterPeerSubscription(face, res, t.pid)
		t.propagateForgetSimpleSubscription(res)
	}
}

// UndeclareRouterSubscription is the inbound undeclare_router_subscription
// entrypoint of spec.md §6.
func (t *Tables) UndeclareRouterSubscription(face *Face, prefixid ZInt, suffix string, router PeerId) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("undeclare router subscription with unknown prefix")
			return
		}
		res := t.resources.GetResource(prefix, suffix)
		if res == nil {
			log.Errorf("undeclare unknown router subscription")
			return
		}
		t.unregisterRouterSubscription(face, res, router)
		t.resources.Clean(res)
	})
}

// --- peer tier ---------------------------------------------------------

func (t *Tables) registerPeerSubscription(face *Face, res *Resource, subInfo *SubInfo, peer PeerId) {
	if _, already := res.PeerSubs[peer]; already {
		return
	}
	log.Debugf("register peer subscription %s (peer: %s)", res.Name, peer)
	res.PeerSubs[peer] = struct{}{}
	t.peerSubs[res] = struct{}{}

	t.treeWalk(t.peersNet, peer, res, subInfo, face, false)
}

// DeclarePeerSubscription is the inbound declare_peer_subscription
// entrypoint of spec.md §6.
func (t *Tables) DeclarePeerSubscription(face *Face, prefixid ZInt, suffix string, subInfo SubInfo, peer PeerId) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("declare peer subscription for unknown rid %d", prefixid)
			return
		}
		res := t.resources.MakeResource(prefix, suffix)
		t.resources.MatchResource(res)
		t.registerPeerSubscription(face, res, &subInfo, peer)

		if t.whatami == Router {
			t.registerRouterSubscription(face, res, forcedPush(&subInfo), t.pid)
		}

		t.resources.BuildMatchesDirectTables(res)
	})
}

func (t *Tables) unregisterPeerSubscription(face *Face, res *Resource, peer PeerId) {
	if _, present := res.PeerSubs[peer]; !present {
		return
	}
	log.Debugf("unregister peer subscription %s (peer: %s)", res.Name, peer)
	delete(res.PeerSubs, peer)

	t.treeWalk(t.peersNet, peer, res, nil, face, true)

	if len(res.PeerSubs) == 0 {
		delete(t.peerSubs, res)
	}
}

// UndeclarePeerSubscription is the inbound undeclare_peer_subscription
// entrypoint of spec.md §6.
func (t *Tables) UndeclarePeerSubscription(face *Face, prefixid ZInt, suffix string, peer PeerId) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("undeclare peer subscription with unknown prefix")
			return
		}
		res := t.resources.GetResource(prefix, suffix)
		if res == nil {
			log.Errorf("undeclare unknown peer subscription")
			return
		}
		t.unregisterPeerSubscription(face, res, peer)

		if t.whatami == Router && !anyContextSub(res) && !t.anyPeerSubsOtherThanSelf(t.peerSubs) {
			t.unregisterRouterSubscription(face, res, t.pid)
		}

		t.resources.Clean(res)
	})
}

// --- client tier ---------------------------------------------------------

// registerClientSubscription implements SUP-1 (SPEC_FULL.md): a re-declare
// on a face that already holds a context for this resource only replaces
// the stored SubInfo if the previous mode was Pull; a live Push subscription
// is left untouched.
func (t *Tables) registerClientSubscription(face *Face, res *Resource, subInfo *SubInfo) {
	log.Debugf("register subscription %s for face %d", res.Name, face.ID)

	info := *subInfo
	if ctx, ok := res.Contexts[face.ID]; ok {
		if ctx.Subs == nil || ctx.Subs.Mode == Pull {
			ctx.Subs = &info
		}
	} else {
		ctx = newContext(face)
		ctx.Subs = &info
		res.Contexts[face.ID] = ctx
	}

	face.addRemoteSub(res)
}

// DeclareClientSubscription is the inbound declare_client_subscription
// entrypoint of spec.md §6.
func (t *Tables) DeclareClientSubscription(face *Face, prefixid ZInt, suffix string, subInfo SubInfo) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("declare subscription for unknown rid %d", prefixid)
			return
		}
		res := t.resources.MakeResource(prefix, suffix)
		t.resources.MatchResource(res)

		t.registerClientSubscription(face, res, &subInfo)

		switch t.whatami {
		case Router:
			t.registerRouterSubscription(face, res, forcedPush(&subInfo), t.pid)
		case Peer:
			t.registerPeerSubscription(face, res, forcedPush(&subInfo), t.pid)
		default:
			t.propagateSimpleSubscription(face, res, &subInfo)
		}

		t.resources.BuildMatchesDirectTables(res)
	})
}

// unregisterClientSubscription implements spec.md §4.2 step 4 plus SUP-2/
// SUP-3 from SPEC_FULL.md.
func (t *Tables) unregisterClientSubscription(face *Face, res *Resource) {
	log.Debugf("unregister client subscription %s for face %d", res.Name, face.ID)

	if ctx, ok := res.Contexts[face.ID]; ok {
		ctx.Subs = nil
	}
	face.removeRemoteSub(res)

	switch t.whatami {
	case Router:
		if !anyContextSub(res) && !t.anyPeerSubsOtherThanSelf(t.peerSubs) {
			t.unregisterRouterSubscription(face, res, t.pid)
		}
	case Peer:
		if !anyContextSub(res) && !t.anyPeerSubsOtherThanSelf(t.peerSubs) {
			t.unregisterPeerSubscription(face, res, t.pid)
		}
	default:
		if !anyContextSub(res) {
			t.propagateForgetSimpleSubscription(res)
		}
	}

	var clientSubs []*Face
	for _, ctx := range res.Contexts {
		if ctx.Subs != nil {
			clientSubs = append(clientSubs, ctx.face)
		}
	}
	if len(clientSubs) == 1 &&
		!t.anyPeerSubsOtherThanSelf(t.routerSubs) &&
		!t.anyPeerSubsOtherThanSelf(t.peerSubs) {
		last := clientSubs[0]
		if last.hasLocalSub(res) {
			key := t.resources.GetBestKey(res, "", last.ID, t.faces)
			last.Primitives.ForgetSubscriber(key, nil)
			last.removeLocalSub(res)
		}
	}

	t.resources.Clean(res)
}

// UndeclareClientSubscription is the inbound undeclare_client_subscription
// entrypoint of spec.md §6.
func (t *Tables) UndeclareClientSubscription(face *Face, prefixid ZInt, suffix string) {
	t.dispatch(func() {
		prefix := t.getMapping(face, prefixid)
		if prefix == nil {
			log.Errorf("undeclare subscription with unknown prefix")
			return
		}
		res := t.resources.GetResource(prefix, suffix)
		if res == nil {
			log.Errorf("undeclare unknown subscription")
			return
		}
		t.unregisterClientSubscription(face, res)
	})
}
