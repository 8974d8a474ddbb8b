// Package classify decides how a pause should be phrased relative to the
// previous pause of the same debugging context.
package classify

type Category int

const (
	FirstPause Category = iota
	StackChanged
	SameLocation
)

func (c Category) String() string {
	switch c {
	case FirstPause:
		return "first_pause"
	case StackChanged:
		return "stack_changed"
	case SameLocation:
		return "same_location"
	default:
		return "unknown"
	}
}

// FrameKey identifies where execution is paused.
type FrameKey struct {
	File string
	Line string
}

func (k FrameKey) String() string { return k.File + ":" + k.Line }

// State is the per-context memory of the classifier. The zero value is a fresh context.
type State struct {
	SeenFirstFrame bool
	LastFrameKey   *FrameKey
}

// Classify returns the category of a pause at current and the state to carry forward.
// The first pause of a context is never reported as a change.
func Classify(current FrameKey, st State) (Category, State) {
	if !st.SeenFirstFrame {
		key := current
		return FirstPause, State{SeenFirstFrame: true, LastFrameKey: &key}
	}
	if st.LastFrameKey == nil || *st.LastFrameKey != current {
		key := current
		return StackChanged, State{SeenFirstFrame: true, LastFrameKey: &key}
	}
	return SameLocation, st
}
