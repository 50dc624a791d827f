package watchdog

import (
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
)

// Pinger reports lifecycle and liveness to a service manager
type Pinger interface {
	Ready()
	Watchdog()
	Stopping()
}

// SystemdPinger sends sd_notify messages. Outside systemd (no NOTIFY_SOCKET)
// every call is a no-op.
type SystemdPinger struct {
	logger zerolog.Logger
	notify func(state string) (bool, error)
}

// NewSystemdPinger creates a pinger using the process's NOTIFY_SOCKET
func NewSystemdPinger(logger zerolog.Logger) *SystemdPinger {
	return &SystemdPinger{
		logger: logger.With().Str("component", "SystemdPinger").Logger(),
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

// Ready tells systemd that monitoring has begun
func (p *SystemdPinger) Ready() {
	p.send(daemon.SdNotifyReady)
}

// Watchdog resets the systemd watchdog timer
func (p *SystemdPinger) Watchdog() {
	p.send(daemon.SdNotifyWatchdog)
}

// Stopping tells systemd that shutdown has begun
func (p *SystemdPinger) Stopping() {
	p.send(daemon.SdNotifyStopping)
}

func (p *SystemdPinger) send(state string) {
	sent, err := p.notify(state)
	if err != nil {
		p.logger.Warn().Err(err).Str("state", state).Msg("sd_notify failed")
		return
	}
	if sent {
		p.logger.Trace().Str("state", state).Msg("sd_notify sent")
	}
}

// NopPinger ignores every call
type NopPinger struct{}

func (NopPinger) Ready()    {}
func (NopPinger) Watchdog() {}
func (NopPinger) Stopping() {}
