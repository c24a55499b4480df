package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
	"github.com/mezeipetister/irrigation-controller/internal/relay"
	"github.com/mezeipetister/irrigation-controller/internal/schedule"
	"github.com/mezeipetister/irrigation-controller/internal/transport"
	"github.com/mezeipetister/irrigation-controller/internal/wifi"
)

func newTestSupervisor(t *testing.T) (*Supervisor, *bus.Bus, Workers) {
	t.Helper()
	b := bus.New(32)
	workers := Workers{
		Relay:     make(chan relay.Command, 8),
		Schedule:  make(chan schedule.Command, 8),
		Wifi:      make(chan wifi.Command, 8),
		Transport: make(chan transport.Command, 8),
	}
	s := New("aa:bb:cc:dd:ee:ff", []string{"z1", "z2"}, b, workers, time.Hour, zap.NewNop())
	return s, b, workers
}

func recvRelayCmd(t *testing.T, ch <-chan relay.Command) relay.Command {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for relay command")
		return relay.Command{}
	}
}

func recvTransportCmd(t *testing.T, ch <-chan transport.Command) transport.Command {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for transport command")
		return transport.Command{}
	}
}

func TestDateTimeUpdatedAlwaysDiffsAndResyncs(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, b.Publish(ctx, model.DateTimeUpdated(now)))

	cmd := recvTransportCmd(t, workers.Transport)
	require.Equal(t, transport.CommandNewBoardInfo, cmd.Kind)
	assert.True(t, cmd.BoardInfo.DateTime.Equal(now))
}

func TestScheduleUpdatedDiffsOnlyOnVersionChange(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, b.Publish(ctx, model.ScheduleUpdated(3)))
	cmd := recvTransportCmd(t, workers.Transport)
	assert.Equal(t, 3, cmd.BoardInfo.ScheduleVersion)

	require.NoError(t, b.Publish(ctx, model.ScheduleLoaded(3)))
	select {
	case <-workers.Transport:
		t.Fatal("unexpected resync for unchanged schedule version")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestZoneActionStartedAndStoppedToggleRunningZones(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	z := model.ZoneAction{ZoneIDs: []string{"z1"}, DurationSeconds: 30}
	require.NoError(t, b.Publish(ctx, model.ZoneActionStarted(z)))
	cmd := recvTransportCmd(t, workers.Transport)
	require.NotNil(t, cmd.BoardInfo.RunningZones)
	assert.Equal(t, z, *cmd.BoardInfo.RunningZones)

	require.NoError(t, b.Publish(ctx, model.ZoneActionStopped()))
	cmd = recvTransportCmd(t, workers.Transport)
	assert.Nil(t, cmd.BoardInfo.RunningZones)
}

func TestWsStatusConnectedTriggersConnectedAndResync(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, b.Publish(ctx, model.WsStatusChanged(true)))

	cmd := recvTransportCmd(t, workers.Transport)
	assert.Equal(t, transport.CommandConnected, cmd.Kind)

	cmd = recvTransportCmd(t, workers.Transport)
	assert.Equal(t, transport.CommandNewBoardInfo, cmd.Kind)
}

func TestWsStatusDisconnectedTriggersDisconnectedThenConnect(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, b.Publish(ctx, model.WsStatusChanged(false)))

	cmd := recvTransportCmd(t, workers.Transport)
	assert.Equal(t, transport.CommandDisconnected, cmd.Kind)

	cmd = recvTransportCmd(t, workers.Transport)
	assert.Equal(t, transport.CommandConnect, cmd.Kind)
}

func TestWifiStatusFalseTriggersWifiConnect(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, b.Publish(ctx, model.WifiStatusChanged(false)))

	select {
	case c := <-workers.Wifi:
		assert.Equal(t, wifi.CommandConnect, c.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wifi connect command")
	}
}

func TestServerCommandTranslationTable(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.NoError(t, b.Publish(ctx, model.ServerCommandArrived(model.StopCommand())))
	cmd := recvRelayCmd(t, workers.Relay)
	assert.Equal(t, relay.CommandStop, cmd.Kind)

	z := model.ZoneAction{ZoneIDs: []string{"z1"}, DurationSeconds: 10}
	require.NoError(t, b.Publish(ctx, model.ServerCommandArrived(model.StartZoneActionCommand(z))))
	cmd = recvRelayCmd(t, workers.Relay)
	require.Equal(t, relay.CommandStartZoneAction, cmd.Kind)
	assert.Equal(t, z, *cmd.ZoneAction)

	require.NoError(t, b.Publish(ctx, model.ServerCommandArrived(model.StartProgramCommand("p1"))))
	select {
	case c := <-workers.Schedule:
		require.Equal(t, schedule.CommandStartProgramByID, c.Kind)
		assert.Equal(t, "p1", c.ProgramID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for schedule command")
	}

	sched := model.Schedule{Version: 5}
	require.NoError(t, b.Publish(ctx, model.ServerCommandArrived(model.SetNewSchedule(sched))))
	select {
	case c := <-workers.Schedule:
		require.Equal(t, schedule.CommandUpdateSchedule, c.Kind)
		assert.Equal(t, 5, c.Schedule.Version)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for schedule command")
	}
}

func TestProgramStartedDispatchesRelayStartProgram(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	p := model.Program{ID: "p1", Name: "Morning", Active: true}
	require.NoError(t, b.Publish(ctx, model.ProgramStarted(p)))

	cmd := recvRelayCmd(t, workers.Relay)
	require.Equal(t, relay.CommandStartProgram, cmd.Kind)
	assert.Equal(t, "p1", cmd.Program.ID)

	// ProgramStarted alone never toggles BoardInfo.RunningProgram.
	select {
	case <-workers.Transport:
		t.Fatal("unexpected BoardInfo resync for ProgramStarted alone")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgramRunningAndStoppedToggleRunningProgram(t *testing.T) {
	s, b, workers := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	p := model.Program{ID: "p1"}
	require.NoError(t, b.Publish(ctx, model.ProgramRunning(p)))
	cmd := recvTransportCmd(t, workers.Transport)
	require.NotNil(t, cmd.BoardInfo.RunningProgram)
	assert.Equal(t, "p1", *cmd.BoardInfo.RunningProgram)

	require.NoError(t, b.Publish(ctx, model.ProgramStopped()))
	cmd = recvTransportCmd(t, workers.Transport)
	assert.Nil(t, cmd.BoardInfo.RunningProgram)
}
