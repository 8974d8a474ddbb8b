package probe

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchdog_ReportsGoneProcesses(t *testing.T) {
	alive := map[int32]bool{100: true, 200: false, 300: false}
	w := NewWatchdogWith(func(_ context.Context, pid int32) (bool, error) {
		if pid == 400 {
			return false, errors.New("probe failed")
		}
		return alive[pid], nil
	}, nil)

	w.Watch("a", 100)
	w.Watch("c", 300)
	w.Watch("b", 200)
	w.Watch("e", 400)
	w.Watch("zero", 0)
	assert.Equal(t, 4, w.Watched())

	assert.Equal(t, []string{"b", "c"}, w.Check(context.Background()))
	assert.Equal(t, 2, w.Watched())
	assert.Empty(t, w.Check(context.Background()))

	w.Forget("a")
	w.Forget("e")
	assert.Zero(t, w.Watched())
}

func TestWatchdog_CurrentProcessIsAlive(t *testing.T) {
	w := NewWatchdog(nil)
	w.Watch("self", int32(os.Getpid()))

	assert.Empty(t, w.Check(context.Background()))
	assert.Equal(t, 1, w.Watched())
}
