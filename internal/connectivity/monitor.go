// Package connectivity tracks whether the remote store is reachable and
// fires transition hooks.
//
// A browser client gets online/offline events from the platform; a device
// process does not, so the monitor defines "online" observably: the gateway
// ping succeeds. Transitions drive the rest of the sync core — coming
// online triggers a reconciler run and a fresh set of realtime
// subscriptions, going offline tears the subscriptions down. Writes are
// unaffected by transitions; they keep enqueueing while offline.
package connectivity

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
)

// Config holds monitor configuration.
type Config struct {
	// ProbeInterval is how often to ping the gateway. Default: 15s.
	ProbeInterval time.Duration

	// Logger for monitor activity. Default: stderr logger.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeInterval: 15 * time.Second,
		Logger:        log.New(os.Stderr, "[connectivity] ", log.LstdFlags),
	}
}

// Monitor owns the process-wide online flag.
type Monitor struct {
	gw     remote.Gateway
	bus    *events.Bus
	config *Config

	online atomic.Bool

	hooksMu   sync.Mutex
	onOnline  []func(ctx context.Context)
	onOffline []func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Monitor. The initial state is offline until the first
// successful probe.
func New(gw remote.Gateway, bus *events.Bus, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	if config.ProbeInterval <= 0 {
		config.ProbeInterval = 15 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[connectivity] ", log.LstdFlags)
	}
	return &Monitor{gw: gw, bus: bus, config: config}
}

// Online reports the current connectivity flag.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// OnOnline registers a hook fired on each offline-to-online transition.
// Hooks run in registration order on the monitor's goroutine.
func (m *Monitor) OnOnline(fn func(ctx context.Context)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// OnOffline registers a hook fired on each online-to-offline transition.
func (m *Monitor) OnOffline(fn func()) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.onOffline = append(m.onOffline, fn)
}

// Start probes immediately, then keeps probing at the configured interval
// until the context is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.Probe(runCtx)

		ticker := time.NewTicker(m.config.ProbeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.Probe(runCtx)
			}
		}
	}()
}

// Stop halts probing and waits for the monitor goroutine.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Probe pings the gateway once and applies any resulting transition.
// Callable directly for an on-demand check (the explicit sync command).
func (m *Monitor) Probe(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.config.ProbeInterval)
	defer cancel()

	online := m.gw.Ping(pingCtx) == nil
	m.setOnline(ctx, online)
	return online
}

// setOnline applies a connectivity observation, firing hooks on transition.
func (m *Monitor) setOnline(ctx context.Context, online bool) {
	if m.online.Swap(online) == online {
		return
	}

	if online {
		m.config.Logger.Println("Connectivity restored")
	} else {
		m.config.Logger.Println("Connectivity lost, writes will queue")
	}
	m.bus.Publish(events.TypeConnectivityChanged, map[string]bool{"online": online})

	m.hooksMu.Lock()
	onOnline := append([]func(ctx context.Context){}, m.onOnline...)
	onOffline := append([]func(){}, m.onOffline...)
	m.hooksMu.Unlock()

	if online {
		for _, fn := range onOnline {
			fn(ctx)
		}
	} else {
		for _, fn := range onOffline {
			fn()
		}
	}
}

// SetOnline forces the flag, firing transition hooks. Used by the explicit
// sync command and by tests to simulate platform events.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.setOnline(ctx, online)
}
