package pubsub

// pubsubNewClientFace implements spec.md §4.7's pubsub_new_client_face. It
// runs already inside the dispatcher guard (called from AddFace), so it must
// not call t.dispatch itself.
func (t *Tables) pubsubNewClientFace(face *Face) {
	subInfo := SubInfo{Reliability: Reliable, Mode: Push}
	for res := range t.routerSubs {
		face.addLocalSub(res)
		key := t.resources.DeclKey(res, face)
		face.Primitives.Subscriber(key, subInfo, nil)
	}
}

// PubsubNewChilds is the inbound pubsub_new_childs entrypoint of spec.md §6/
// §4.7: the topology service reports that, for each tree root (keyed by its
// node index / tree_sid), a set of new children has appeared. childsByTree
// maps tree_sid to the freshly appeared children for that tree.
func (t *Tables) PubsubNewChilds(childsByTree map[int64][]PeerId, netType WhatAmI) {
	t.dispatch(func() {
		net := t.peersNet
		index := t.peerSubs
		tierSubs := func(res *Resource) map[PeerId]struct{} { return res.PeerSubs }
		if netType == Router {
			net = t.routersNet
			index = t.routerSubs
			tierSubs = func(res *Resource) map[PeerId]struct{} { return res.RouterSubs }
		}
		if net == nil {
			return
		}

		for treeSID, newChilds := range childsByTree {
			if len(newChilds) == 0 {
				continue
			}
			treeRootPid, ok := net.PidOf(treeSID)
			if !ok {
				continue
			}

			for res := range index {
				if _, subscribed := tierSubs(res)[treeRootPid]; !subscribed {
					continue
				}
				subInfo := SubInfo{Reliability: Reliable, Mode: Push}
				for _, childPid := range newChilds {
					face := t.getFace(childPid)
					if face == nil {
						t.logMissingFaceOnce("newchilds:"+childPid.String(),
							"unable to find face for pid %s", childPid)
						continue
					}
					key := t.resources.DeclKey(res, face)
					sid := ZInt(treeSID)
					log.Debugf("send %s subscription %s on face %d %s (new_child)", netType, res.Name, face.ID, face.Pid)
					face.Primitives.Subscriber(key, subInfo, &sid)
				}
			}
		}
	})
}
