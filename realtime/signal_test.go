package realtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unihelp/admin-bridge/realtime"
)

func TestSignalDeliversToExistingSubscriber(t *testing.T) {
	signal := realtime.NewSignal()
	ch := signal.Subscribe()

	signal.Publish(7)
	require.Equal(t, int64(7), <-ch)
}

func TestSignalOverwritesUndeliveredValue(t *testing.T) {
	signal := realtime.NewSignal()
	ch := signal.Subscribe()

	signal.Publish(1)
	signal.Publish(2)

	// Only the latest value is observable.
	require.Equal(t, int64(2), <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected stale value %d", v)
	default:
	}
}

func TestSignalReplaysLatestToLateSubscriber(t *testing.T) {
	signal := realtime.NewSignal()
	signal.Publish(5)
	signal.Publish(9)

	ch := signal.Subscribe()
	require.Equal(t, int64(9), <-ch)
}

func TestSignalEmptyUntilFirstPublish(t *testing.T) {
	signal := realtime.NewSignal()
	ch := signal.Subscribe()

	select {
	case v := <-ch:
		t.Fatalf("unexpected value %d before first publish", v)
	default:
	}
}
