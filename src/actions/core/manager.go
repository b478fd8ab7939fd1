package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Module is a long running part of the bot with an explicit lifecycle.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// ErrStarted is returned when the manager is changed after Start.
var ErrStarted = errors.New("actions: manager already started")

// Manager starts modules in registration order and stops them in reverse.
type Manager struct {
	mu      sync.Mutex
	modules []Module
	running []Module
}

// NewManager creates a manager holding mods. Nil modules are skipped.
func NewManager(mods ...Module) *Manager {
	m := &Manager{}
	for _, mod := range mods {
		if mod != nil {
			m.modules = append(m.modules, mod)
		}
	}
	return m
}

// Add registers a module before Start.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running != nil {
		return ErrStarted
	}
	if mod == nil {
		return errors.New("actions: nil module")
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Names lists registered modules in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.modules))
	for i, mod := range m.modules {
		names[i] = mod.Name()
	}
	return names
}

// Start starts every module. When one fails the ones already running are
// stopped before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running != nil {
		return ErrStarted
	}

	running := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if err := mod.Start(ctx); err != nil {
			stopAll(ctx, running)
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		log.Printf("actions: module %s started", mod.Name())
		running = append(running, mod)
	}
	m.running = running
	return nil
}

// Stop stops running modules in reverse order. It is safe to call twice.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	running := m.running
	m.running = nil
	m.mu.Unlock()
	stopAll(ctx, running)
}

func stopAll(ctx context.Context, mods []Module) {
	for i := len(mods) - 1; i >= 0; i-- {
		began := time.Now()
		mods[i].Stop(ctx)
		log.Printf("actions: module %s stopped in %s", mods[i].Name(), time.Since(began).Round(time.Millisecond))
	}
}

// Closer adapts a cleanup function to a Module so shared clients are
// released after the modules that use them.
type Closer struct {
	Label string
	Close func() error
}

func (c Closer) Name() string { return c.Label }

func (c Closer) Start(ctx context.Context) error { return nil }

func (c Closer) Stop(ctx context.Context) {
	if c.Close == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("actions: closing %s: %v", c.Label, err)
	}
}
