package relay

import "sync"

// SimPin is an in-memory Pin standing in for a real GPIO line, used by tests
// and by the non-hardware build described in SPEC_FULL.md §4.7.
type SimPin struct {
	mu   sync.Mutex
	high bool
}

func (p *SimPin) SetHigh() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.high = true
	return nil
}

func (p *SimPin) SetLow() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.high = false
	return nil
}

// High reports the pin's current simulated state.
func (p *SimPin) High() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}
