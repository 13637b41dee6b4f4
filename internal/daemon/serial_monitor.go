package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"memoria/internal/config"
	"memoria/internal/hardware"
	"memoria/internal/logging"
)

// serialMonitor keeps the dial's serial link alive. It reconnects on a timer
// after the link drops and listens for udev tty hot-plug events so a
// re-seated USB adapter comes back without waiting out the interval.
type serialMonitor struct {
	cfg      *config.Config
	listener *hardware.Listener
	logger   *slog.Logger

	mu      sync.Mutex
	quit    chan struct{}
	running bool
	wg      sync.WaitGroup
}

func newSerialMonitor(cfg *config.Config, listener *hardware.Listener, logger *slog.Logger) *serialMonitor {
	return &serialMonitor{
		cfg:      cfg,
		listener: listener,
		logger:   logging.NewComponentLogger(logger, "serial-monitor"),
	}
}

func (m *serialMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.quit = make(chan struct{})
	m.running = true
	quit := m.quit

	hotplug := m.watchHotplug(ctx, quit)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.connectLoop(ctx, quit, hotplug)
	}()
}

func (m *serialMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	m.quit = nil
	m.running = false
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *serialMonitor) connectLoop(ctx context.Context, quit <-chan struct{}, hotplug <-chan struct{}) {
	interval := time.Duration(m.cfg.Hardware.ReconnectSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		if !m.listener.Running() {
			m.connect(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-hotplug:
			m.logger.Info("serial device hot-plug detected")
		case <-time.After(interval):
		}
	}
}

func (m *serialMonitor) connect(ctx context.Context) {
	device := m.cfg.Hardware.SerialDevice
	port, err := hardware.OpenPort(device, m.cfg.Hardware.BaudRate)
	if err != nil {
		m.logger.Debug("serial device unavailable",
			logging.String("device", device),
			logging.Error(err))
		return
	}
	m.listener.Start(ctx, port)
	m.logger.Info("serial link connected",
		logging.String("device", device),
		logging.Int("baud_rate", m.cfg.Hardware.BaudRate))
}

// watchHotplug subscribes to udev tty add events for the configured device.
// A nil channel is returned when the netlink socket is unavailable; the
// reconnect timer then carries the load alone.
func (m *serialMonitor) watchHotplug(ctx context.Context, quit <-chan struct{}) <-chan struct{} {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("netlink socket unavailable, relying on reconnect polling",
			logging.Error(err))
		return nil
	}

	events := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(events, errs, ttyMatcher())

	hotplug := make(chan struct{}, 1)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				close(monitorQuit)
				return
			case <-quit:
				close(monitorQuit)
				return
			case uevent := <-events:
				if !m.matchesDevice(uevent) {
					continue
				}
				select {
				case hotplug <- struct{}{}:
				default:
				}
			case err := <-errs:
				m.logger.Warn("netlink monitor error", logging.Error(err))
			}
		}
	}()
	return hotplug
}

func ttyMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "tty",
		},
	})
	return rules
}

func (m *serialMonitor) matchesDevice(uevent netlink.UEvent) bool {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		devpath := uevent.Env["DEVPATH"]
		if devpath == "" {
			return false
		}
		parts := strings.Split(devpath, "/")
		devname = "/dev/" + parts[len(parts)-1]
	}
	if !strings.HasPrefix(devname, "/dev/") {
		devname = "/dev/" + devname
	}
	return devname == m.cfg.Hardware.SerialDevice
}
