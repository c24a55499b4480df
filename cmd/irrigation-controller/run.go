package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/config"
	"github.com/mezeipetister/irrigation-controller/internal/logging"
	"github.com/mezeipetister/irrigation-controller/internal/relay"
	"github.com/mezeipetister/irrigation-controller/internal/schedule"
	"github.com/mezeipetister/irrigation-controller/internal/storage"
	"github.com/mezeipetister/irrigation-controller/internal/supervisor"
	"github.com/mezeipetister/irrigation-controller/internal/timekeeper"
	"github.com/mezeipetister/irrigation-controller/internal/transport"
	"github.com/mezeipetister/irrigation-controller/internal/wifi"
)

const healthLogInterval = 30 * time.Second

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the controller's worker modules and supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runController(cmd.Context())
		},
	}
}

// runController wires every worker module to the event bus and the
// Supervisor, then blocks until SIGINT/SIGTERM cancels the context. It
// returns as soon as the Supervisor stops; in-flight work is not drained.
func runController(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.StoragePath, logging.Module(log, "storage"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	eventBus := bus.New(0)

	zoneIDs := make([]string, len(cfg.Hardware.RelayPins))
	relays := make([]relay.Relay, len(cfg.Hardware.RelayPins))
	for i, pin := range cfg.Hardware.RelayPins {
		id := cfg.DeviceID + "/" + strconv.Itoa(i+1)
		zoneIDs[i] = id
		// No hardware GPIO driver ships in this repository (distilled spec
		// §1's out-of-scope boundary); relay.SimPin stands in for the real
		// register-level Pin a deployment build would supply per pin number.
		relays[i] = relay.NewRelay(id, &relay.SimPin{})
		_ = pin
	}
	relayCtrl := relay.NewController(relays, logging.Module(log, "relay"))
	relayModule, relayCmds := relay.NewModule(relayCtrl, eventBus, cfg.RelayTick, logging.Module(log, "relay"))

	scheduleModule, scheduleCmds := schedule.NewModule(store, eventBus, cfg.ScheduleHeartbeat, cfg.ScheduleDefaultWait, time.Local, logging.Module(log, "schedule"))

	wifiModule, wifiCmds := wifi.NewModule(wifi.NewSimRadio(), eventBus, cfg.WifiSSID, cfg.WifiPass, cfg.WifiPoll, logging.Module(log, "wifi"))

	transportModule, transportCmds := transport.NewModule(transport.GorillaDialer{}, cfg.WsURL, cfg.WsAuthToken, eventBus, cfg.WsPoll, logging.Module(log, "transport"))

	timeModule := timekeeper.NewModule(timekeeper.NewSimRTC(time.Now()), timekeeper.NewSimSNTP(timekeeper.SyncCompleted), eventBus, cfg.SntpPoll, logging.Module(log, "timekeeper"))

	sup := supervisor.New(cfg.DeviceID, zoneIDs, eventBus, supervisor.Workers{
		Relay:     relayCmds,
		Schedule:  scheduleCmds,
		Wifi:      wifiCmds,
		Transport: transportCmds,
	}, healthLogInterval, logging.Module(log, "supervisor"))

	relayModule.Start(ctx)
	scheduleModule.Start(ctx)
	wifiModule.Start(ctx)
	transportModule.Start(ctx)
	timeModule.Start(ctx)

	wifiCmds <- wifi.Connect()
	transportCmds <- transport.ConnectCommand()

	log.Info("controller started", zap.String("device_id", cfg.DeviceID), zap.Int("zones", len(zoneIDs)))

	sup.Run(ctx)

	log.Info("controller shutting down")
	return nil
}
