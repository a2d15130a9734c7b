package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronLoopRunsUntilStopped(t *testing.T) {
	loop := NewCronLoop(clockwork.NewRealClock())

	var runs atomic.Int32
	require.NoError(t, loop.Start(10*time.Millisecond, func() { runs.Add(1) }))
	require.NoError(t, loop.Start(10*time.Millisecond, func() { t.Error("second start must not schedule") }))

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Stop())
	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())

	assert.NoError(t, loop.Stop())
}
