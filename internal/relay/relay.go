// Package relay implements the low-level relay driver and the
// Relay/Program module that sequences zone actions onto it.
package relay

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Pin is the capability a relay needs from its underlying GPIO: set the line
// high or low. It stands in for the out-of-scope register-level driver
// (distilled spec calls this out as the "DS3231/WiFi radio driver" boundary
// for the other modules; this is its relay-side counterpart).
type Pin interface {
	SetHigh() error
	SetLow() error
}

// Relay is one irrigation output: an opaque id bound to a Pin.
type Relay struct {
	ID  string
	pin Pin
}

// NewRelay builds a Relay. Active-high energizes the zone.
func NewRelay(id string, pin Pin) Relay {
	return Relay{ID: id, pin: pin}
}

func (r Relay) open() error  { return r.pin.SetHigh() }
func (r Relay) close() error { return r.pin.SetLow() }

// retryPolicy is five attempts, 100ms apart: the first attempt plus four
// retries, matching the distilled spec's bounded-retry requirement
// (§4.2, resolving the Open Question in favor of the retry-with-backoff
// RelayController variant).
func retryPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 4)
}

// Controller owns a set of relays and guarantees at most one ZoneAction's
// relays are energized at a time: open always de-energizes everything first.
type Controller struct {
	relays []Relay
	log    *zap.Logger
}

// NewController builds a Controller over the given relays.
func NewController(relays []Relay, log *zap.Logger) *Controller {
	return &Controller{relays: relays, log: log}
}

// Zones returns the ids of every relay this controller owns.
func (c *Controller) Zones() []string {
	out := make([]string, len(c.relays))
	for i, r := range c.relays {
		out[i] = r.ID
	}
	return out
}

// CloseAll de-energizes every relay. Failures are retried and, on exhaustion,
// logged and dropped: a stuck relay is a hardware fault, not a reason to
// abort the controller (distilled spec §7, "Hardware write failure").
func (c *Controller) CloseAll() {
	for _, r := range c.relays {
		c.writeWithRetry(r, r.close, "close")
	}
	c.log.Info("all relays closed")
}

// Open de-energizes every relay, then energizes only those named in ids.
// Pre-emption therefore lives here, not in the command handlers above it.
func (c *Controller) Open(ids []string) {
	c.CloseAll()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, r := range c.relays {
		if want[r.ID] {
			c.writeWithRetry(r, r.open, "open")
		}
	}
	c.log.Info("relays opened", zap.Strings("zone_ids", ids))
}

func (c *Controller) writeWithRetry(r Relay, write func() error, op string) {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return write()
	}, retryPolicy())
	if err != nil {
		c.log.Error("relay write failed, giving up",
			zap.String("relay_id", r.ID),
			zap.String("op", op),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	}
}
