// Package network observes backend reachability and exposes the offline to
// online transition edge that drives sync.
package network

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/studyowl/offline/internal/remote"
)

const (
	// DefaultPollInterval is how often the monitor probes connectivity.
	DefaultPollInterval = 10 * time.Second
	// DefaultOfflineWindow is how long WasOffline stays true after a
	// reconnect before clearing itself.
	DefaultOfflineWindow = 5 * time.Second
)

// Prober checks the platform connectivity signal. Implementations return
// whether the device is online and a coarse connection-quality hint
// ("4g", "3g", "2g", empty when unknown or offline).
type Prober interface {
	Probe(ctx context.Context) (online bool, effectiveType string)
}

// PingProber probes connectivity by pinging the backend and classifying
// the observed round-trip time.
type PingProber struct {
	pinger  remote.Pinger
	timeout time.Duration
}

// NewPingProber creates a PingProber. timeout bounds each probe.
func NewPingProber(pinger remote.Pinger, timeout time.Duration) *PingProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PingProber{pinger: pinger, timeout: timeout}
}

// Probe implements Prober.
func (p *PingProber) Probe(ctx context.Context) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rtt, err := p.pinger.Ping(ctx)
	if err != nil {
		return false, ""
	}
	switch {
	case rtt < 150*time.Millisecond:
		return true, "4g"
	case rtt < 600*time.Millisecond:
		return true, "3g"
	default:
		return true, "2g"
	}
}

// Monitor mirrors the current connectivity state and emits a one-shot
// "recently came back online" signal. It performs no I/O itself beyond
// the injected prober.
type Monitor struct {
	prober        Prober
	pollInterval  time.Duration
	offlineWindow time.Duration

	mu            sync.Mutex
	online        bool
	wasOffline    bool
	effectiveType string
	clearTimer    *time.Timer
	onReconnect   []func()
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithPollInterval overrides the probe interval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) { m.pollInterval = d }
}

// WithOfflineWindow overrides the WasOffline auto-clear window.
func WithOfflineWindow(d time.Duration) Option {
	return func(m *Monitor) { m.offlineWindow = d }
}

// NewMonitor creates a Monitor in the online state; the first probe
// corrects it if the device starts offline.
func NewMonitor(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:        prober,
		pollInterval:  DefaultPollInterval,
		offlineWindow: DefaultOfflineWindow,
		online:        true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsOnline reports the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// WasOffline reports whether the device reconnected within the last
// offline window. It auto-clears; consumers get a single trigger edge
// instead of diffing state themselves.
func (m *Monitor) WasOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wasOffline
}

// EffectiveType returns the coarse connection-quality hint, or the empty
// string when offline or unknown.
func (m *Monitor) EffectiveType() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effectiveType
}

// OnReconnect registers a callback invoked once per offline-to-online
// transition.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, fn)
}

// Run polls connectivity until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.Refresh(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh(ctx)
		}
	}
}

// Refresh performs one probe and applies the resulting transition.
func (m *Monitor) Refresh(ctx context.Context) {
	online, effectiveType := m.prober.Probe(ctx)
	m.apply(online, effectiveType)
}

// apply updates state for one observed connectivity sample. Going offline
// clears the quality hint immediately; coming back online after being
// offline opens the WasOffline window and fires reconnect callbacks.
func (m *Monitor) apply(online bool, effectiveType string) {
	m.mu.Lock()

	wasOnline := m.online
	m.online = online
	if !online {
		m.effectiveType = ""
		m.mu.Unlock()
		return
	}

	m.effectiveType = effectiveType
	if wasOnline {
		m.mu.Unlock()
		return
	}

	// Offline to online edge.
	m.wasOffline = true
	if m.clearTimer != nil {
		m.clearTimer.Stop()
	}
	m.clearTimer = time.AfterFunc(m.offlineWindow, func() {
		m.mu.Lock()
		m.wasOffline = false
		m.mu.Unlock()
	})
	callbacks := make([]func(), len(m.onReconnect))
	copy(callbacks, m.onReconnect)
	m.mu.Unlock()

	slog.Default().Info("connectivity restored",
		slog.String("effectiveType", effectiveType),
	)
	for _, fn := range callbacks {
		fn()
	}
}
