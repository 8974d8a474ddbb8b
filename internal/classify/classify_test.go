package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_FirstPauseNeverChange(t *testing.T) {
	cat, st := Classify(FrameKey{File: "a.go", Line: "11"}, State{})

	assert.Equal(t, FirstPause, cat)
	assert.True(t, st.SeenFirstFrame)
	require.NotNil(t, st.LastFrameKey)
	assert.Equal(t, "a.go:11", st.LastFrameKey.String())
}

func TestClassify_SameLocationRepeated(t *testing.T) {
	key := FrameKey{File: "a.go", Line: "11"}
	var st State
	var cats []Category
	for i := 0; i < 6; i++ {
		var cat Category
		cat, st = Classify(key, st)
		cats = append(cats, cat)
	}

	assert.Equal(t, FirstPause, cats[0])
	for _, c := range cats[1:] {
		assert.Equal(t, SameLocation, c)
	}
}

func TestClassify_AlternatingLocations(t *testing.T) {
	keys := []FrameKey{{"a.go", "1"}, {"b.go", "2"}}
	var st State
	for i := 0; i < 7; i++ {
		cat, next := Classify(keys[i%2], st)
		if i == 0 {
			assert.Equal(t, FirstPause, cat)
		} else {
			assert.Equal(t, StackChanged, cat, "pause %d", i)
		}
		st = next
	}
}

func TestClassify_SameLocationKeepsState(t *testing.T) {
	_, st := Classify(FrameKey{"a.go", "1"}, State{})
	cat, next := Classify(FrameKey{"a.go", "1"}, st)

	assert.Equal(t, SameLocation, cat)
	assert.Same(t, st.LastFrameKey, next.LastFrameKey)
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	_, st := Classify(FrameKey{"a.go", "1"}, State{})
	_, _ = Classify(FrameKey{"b.go", "9"}, st)

	assert.Equal(t, FrameKey{"a.go", "1"}, *st.LastFrameKey)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "first_pause", FirstPause.String())
	assert.Equal(t, "stack_changed", StackChanged.String())
	assert.Equal(t, "same_location", SameLocation.String())
	assert.Equal(t, "unknown", Category(42).String())
}
