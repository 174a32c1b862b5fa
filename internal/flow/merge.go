package flow

// CurrentView composes the immutable base layer of a config record with the
// mutable overlay written by options edits. The overlay wins key-for-key; an
// overlay key holding nil is a tombstone and removes the base value. Every
// step computing pre-filled defaults must read from this view, never from
// the base alone, or a value changed in a previous edit session appears to
// revert when the flow is reopened.
func CurrentView(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}
