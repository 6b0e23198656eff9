package pubsub

// PullData is the inbound pull_data entrypoint of spec.md §6 / §4.5.
func (t *Tables) PullData(face *Face, rid ZInt, suffix string) {
	t.dispatch(func() {
		t.pullData(face, rid, suffix)
	})
}

func (t *Tables) pullData(face *Face, rid ZInt, suffix string) {
	prefix := t.getMapping(face, rid)
	if prefix == nil {
		log.Errorf("pull data with unknown rid %d", rid)
		return
	}

	res := t.resources.GetResource(prefix, suffix)
	if res == nil {
		log.Errorf("pull data for unknown subscription %s (no resource)", concatName(prefix, suffix))
		return
	}

	ctx, ok := res.Contexts[face.ID]
	if !ok {
		log.Errorf("pull data for unknown subscription %s (no context)", res.Name)
		return
	}
	if ctx.Subs == nil {
		log.Errorf("pull data for unknown subscription %s (no info)", res.Name)
		return
	}

	for name, val := range ctx.lastValues {
		key := t.resources.GetBestKey(t.resources.Root(), name, face.ID, t.faces)
		face.Primitives.Data(key, val.payload, ctx.Subs.Reliability, Drop, val.info, nil)
	}
	ctx.lastValues = make(map[string]pulledValue)
}
