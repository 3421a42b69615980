package timescheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletedTaskIsRemoved(t *testing.T) {
	t.Parallel()

	svc := NewScheduler().(*service)
	svc.Start()
	t.Cleanup(svc.Stop)

	done := make(chan struct{})
	err := svc.ScheduleTaskOnce(svc.AddNow(1), func() { close(done) })
	require.NoError(t, err)
	require.Equal(t, 1, svc.scheduler.Len())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for task to run")
	}

	require.Eventually(t, func() bool {
		return svc.scheduler.Len() == 0
	}, 5*time.Second, 100*time.Millisecond)
}
