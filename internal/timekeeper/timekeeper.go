// Package timekeeper implements the Time module: RTC-to-system-clock
// bootstrap and SNTP reconciliation.
package timekeeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
)

// RTC is the capability this module needs from the real-time clock chip,
// standing in for the out-of-scope DS3231 register driver (distilled spec
// §1, §4.4), grounded on original_source/esp32/src/time.rs's
// get_dtime_from_ds3231/set_dtime_to_ds3231 free functions promoted to an
// interface.
type RTC interface {
	ReadTime(ctx context.Context) (time.Time, error)
	WriteTime(ctx context.Context, t time.Time) error
}

// SyncStatus mirrors the three states the SNTP client surfaces.
type SyncStatus int

const (
	SyncInProgress SyncStatus = iota
	SyncCompleted
	SyncReset
)

// SNTP is the capability this module needs from the time-sync client; it is
// a capability boundary for the same reason RTC and the WiFi radio are:
// no concrete SNTP protocol implementation ships in this repository.
type SNTP interface {
	Status() SyncStatus
}

// Module performs the RTC bootstrap and background SNTP reconciliation
// described in the distilled spec's §4.4. It has no commands: the original
// source's TimeCommand enum is empty, and this module never receives one.
type Module struct {
	rtc      RTC
	sntp     SNTP
	bus      *bus.Bus
	pollEvery time.Duration
	log      *zap.Logger
}

// NewModule builds a time module.
func NewModule(rtc RTC, sntp SNTP, b *bus.Bus, pollEvery time.Duration, log *zap.Logger) *Module {
	return &Module{rtc: rtc, sntp: sntp, bus: b, pollEvery: pollEvery, log: log}
}

// Start reads the RTC once synchronously (so the caller can rely on a
// DateTimeUpdated event having been attempted before boot proceeds) and
// then launches the background SNTP reconciliation loop.
func (m *Module) Start(ctx context.Context) {
	if t, err := m.rtc.ReadTime(ctx); err != nil {
		m.log.Error("initial RTC read failed", zap.Error(err))
	} else {
		m.publish(ctx, model.DateTimeUpdated(t))
	}

	go m.runSntpReconciliation(ctx)
}

func (m *Module) publish(ctx context.Context, e model.BoardEvent) {
	if err := m.bus.Publish(ctx, e); err != nil {
		m.log.Warn("dropped event on shutdown", zap.String("event", e.Kind.String()))
	}
}

func (m *Module) runSntpReconciliation(ctx context.Context) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch m.sntp.Status() {
			case SyncCompleted:
				now := time.Now().UTC()
				if err := m.rtc.WriteTime(ctx, now); err != nil {
					m.log.Error("failed to write reconciled time to RTC", zap.Error(err))
				}
				m.publish(ctx, model.DateTimeUpdated(now))
				return
			case SyncReset:
				m.log.Warn("SNTP sync reset, abandoning reconciliation")
				return
			case SyncInProgress:
				// keep polling
			default:
				panic("timekeeper: unhandled SyncStatus")
			}
		}
	}
}
