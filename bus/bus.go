// Package bus bridges low-level I2C primitives between the kernel and the
// physical bus driver. The driver itself is an external collaborator; the
// bridge owns only the per-bus session discipline.
package bus

import (
	"fmt"
	"sync"
)

// Driver is the physical I2C driver interface. Calls are synchronous:
// request/reply pairs alternate strictly per bus, with no pipelining.
type Driver interface {
	// Start issues a start (or repeated start) condition.
	Start(bus uint8) error
	// Stop issues a stop condition.
	Stop(bus uint8) error
	// Write writes one byte and returns the slave's acknowledge bit.
	Write(bus uint8, data uint8) (ack bool, err error)
	// Read reads one byte; ack tells the master whether to acknowledge it.
	Read(bus uint8, ack bool) (data uint8, err error)
}

// Bridge wraps a Driver with per-bus transfer-session tracking: Write and
// Read are valid only between a Start and the matching Stop.
type Bridge struct {
	mu      sync.Mutex
	driver  Driver
	started map[uint8]bool
}

// NewBridge creates a bridge over the given driver.
func NewBridge(driver Driver) *Bridge {
	return &Bridge{
		driver:  driver,
		started: make(map[uint8]bool),
	}
}

// Start opens (or restarts) a transfer session on a bus.
func (b *Bridge) Start(bus uint8) error {
	if err := b.driver.Start(bus); err != nil {
		return err
	}
	b.mu.Lock()
	b.started[bus] = true
	b.mu.Unlock()
	return nil
}

// Stop closes the transfer session on a bus.
func (b *Bridge) Stop(bus uint8) error {
	if err := b.driver.Stop(bus); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.started, bus)
	b.mu.Unlock()
	return nil
}

func (b *Bridge) inSession(bus uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started[bus]
}

// Write writes one byte within an open session.
func (b *Bridge) Write(bus uint8, data uint8) (bool, error) {
	if !b.inSession(bus) {
		return false, fmt.Errorf("i2c bus %d: write outside transfer session", bus)
	}
	return b.driver.Write(bus, data)
}

// Read reads one byte within an open session.
func (b *Bridge) Read(bus uint8, ack bool) (uint8, error) {
	if !b.inSession(bus) {
		return 0, fmt.Errorf("i2c bus %d: read outside transfer session", bus)
	}
	return b.driver.Read(bus, ack)
}

// Loopback is a Driver for tests: reads return the most recently written
// byte on the same bus, writes always acknowledge.
type Loopback struct {
	mu   sync.Mutex
	last map[uint8]uint8
	// Ops records the call sequence as "start(2)", "write(2,0xa5)", etc.
	Ops []string
}

// NewLoopback creates an empty loopback driver.
func NewLoopback() *Loopback {
	return &Loopback{last: make(map[uint8]uint8)}
}

// Start implements Driver.
func (l *Loopback) Start(bus uint8) error {
	l.mu.Lock()
	l.Ops = append(l.Ops, fmt.Sprintf("start(%d)", bus))
	l.mu.Unlock()
	return nil
}

// Stop implements Driver.
func (l *Loopback) Stop(bus uint8) error {
	l.mu.Lock()
	l.Ops = append(l.Ops, fmt.Sprintf("stop(%d)", bus))
	l.mu.Unlock()
	return nil
}

// Write implements Driver.
func (l *Loopback) Write(bus uint8, data uint8) (bool, error) {
	l.mu.Lock()
	l.last[bus] = data
	l.Ops = append(l.Ops, fmt.Sprintf("write(%d,0x%02x)", bus, data))
	l.mu.Unlock()
	return true, nil
}

// Read implements Driver.
func (l *Loopback) Read(bus uint8, ack bool) (uint8, error) {
	l.mu.Lock()
	data := l.last[bus]
	l.Ops = append(l.Ops, fmt.Sprintf("read(%d,%v)", bus, ack))
	l.mu.Unlock()
	return data, nil
}

var _ Driver = (*Loopback)(nil)
