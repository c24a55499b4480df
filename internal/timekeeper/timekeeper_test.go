package timekeeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
)

func TestStartEmitsDateTimeUpdatedFromRTC(t *testing.T) {
	seeded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rtc := NewSimRTC(seeded)
	sntp := NewSimSNTP(SyncInProgress)
	b := bus.New(8)
	m := NewModule(rtc, sntp, b, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	select {
	case e := <-b.Events():
		require.Equal(t, model.EventDateTimeUpdated, e.Kind)
		assert.True(t, e.Time.Equal(seeded))
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestSntpCompletedWritesRtcAndEmitsEvent(t *testing.T) {
	rtc := NewSimRTC(time.Unix(0, 0))
	sntp := NewSimSNTP(SyncCompleted)
	b := bus.New(8)
	m := NewModule(rtc, sntp, b, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	<-b.Events() // boot DateTimeUpdated

	select {
	case e := <-b.Events():
		require.Equal(t, model.EventDateTimeUpdated, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SNTP reconciliation event")
	}

	got, err := rtc.ReadTime(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), got, 5*time.Second)
}

func TestSntpResetStopsReconciliationWithoutEvent(t *testing.T) {
	rtc := NewSimRTC(time.Unix(0, 0))
	sntp := NewSimSNTP(SyncReset)
	b := bus.New(8)
	m := NewModule(rtc, sntp, b, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	<-b.Events() // boot DateTimeUpdated only

	select {
	case e := <-b.Events():
		t.Fatalf("expected no reconciliation event after Reset, got %v", e.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}
