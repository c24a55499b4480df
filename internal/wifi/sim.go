package wifi

import (
	"context"
	"sync"
)

// SimRadio is an in-memory Radio for tests and the non-hardware build.
type SimRadio struct {
	mu        sync.Mutex
	connected bool
	failNext  bool
}

// NewSimRadio builds a SimRadio starting disconnected.
func NewSimRadio() *SimRadio {
	return &SimRadio{}
}

func (r *SimRadio) IsConnected(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected, nil
}

func (r *SimRadio) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	return nil
}

func (r *SimRadio) Stop(ctx context.Context) error {
	return nil
}

func (r *SimRadio) Connect(ctx context.Context, ssid, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errConnectFailed
	}
	r.connected = true
	return nil
}

// SetDisconnected flips the simulated radio to disconnected, as if the
// association dropped out from under the module.
func (r *SimRadio) SetDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
}

// FailNextConnect makes the next Connect call return an error.
func (r *SimRadio) FailNextConnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = true
}

type simError string

func (e simError) Error() string { return string(e) }

const errConnectFailed = simError("simulated connect failure")
