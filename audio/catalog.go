package audio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"murmur/log"
)

var ErrClosed = errors.New("audio context closed")

// hardwareMarker is how ALSA names a direct physical device binding.
const hardwareMarker = "(hw:"

// DeviceFilter separates real microphones from the loopback, monitor
// and output pseudo-devices the audio host lists next to them. The
// keyword sets are data, not invariants; callers may tune them.
type DeviceFilter struct {
	// MicKeywords mark a name as a likely microphone.
	MicKeywords []string
	// OutputKeywords exclude output-ish and monitor-ish names.
	OutputKeywords []string
	// VirtualNames exclude these exact names entirely.
	VirtualNames []string
	// MaxChannels excludes virtual aggregators above this channel count.
	MaxChannels int
}

func DefaultFilter() DeviceFilter {
	return DeviceFilter{
		MicKeywords: []string{
			"mic", "input", "line", "scarlett", "focusrite", "rode", "blue",
			"shure", "at2020", "yeti", "snowball", "usb audio", "headset",
		},
		OutputKeywords: []string{
			"monitor", "output", "hdmi", "displayport", "speaker", "headphone",
			"spdif", "front", "surround", "iec958", "dmix", "split", "rear",
		},
		VirtualNames: []string{"sysdefault", "pipewire", "default", "pulse", "null"},
		MaxChannels:  8,
	}
}

// Match reports whether d looks like a real capture device: it must
// carry a sane channel count, not be a virtual alias or output, and
// either carry the hardware marker or a microphone keyword.
func (f DeviceFilter) Match(d Device) bool {
	if d.Channels <= 0 || d.Channels > f.MaxChannels {
		return false
	}
	lower := strings.ToLower(d.Name)
	for _, v := range f.VirtualNames {
		if lower == v {
			return false
		}
	}
	for _, kw := range f.OutputKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if strings.Contains(d.Name, hardwareMarker) {
		return true
	}
	for _, kw := range f.MicKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Apply filters and orders devices: hardware devices first, then
// lexicographic by name.
func (f DeviceFilter) Apply(devices []Device) []Device {
	var kept []Device
	for _, d := range devices {
		if f.Match(d) {
			kept = append(kept, d)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		hi := strings.Contains(kept[i].Name, hardwareMarker)
		hj := strings.Contains(kept[j].Name, hardwareMarker)
		if hi != hj {
			return hi
		}
		return kept[i].Name < kept[j].Name
	})
	return kept
}

// Find returns the device with the given name, nil when absent.
// Matching is by name; indices shift across re-enumeration.
func Find(devices []Device, name string) *Device {
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}

// Catalog wraps a backend Context with the microphone filter and the
// wait strategies used around login, when the audio daemon and USB or
// Bluetooth devices come up at their own pace. It satisfies Context, so
// everything above it sees the filtered view.
type Catalog struct {
	filter DeviceFilter
	open   func() (Context, error)
	log    *log.Logger

	// session-manager services that indicate a usable audio host, in
	// probe order
	services       []string
	serviceProbe   func(name string) (bool, error)
	serviceTimeout time.Duration
	pollInterval   time.Duration

	mu      sync.Mutex
	backend Context
}

func NewCatalog(logger *log.Logger) (*Catalog, error) {
	return NewCatalogWith(NewContext, DefaultFilter(), logger)
}

func NewCatalogWith(open func() (Context, error), filter DeviceFilter, logger *log.Logger) (*Catalog, error) {
	backend, err := open()
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	return &Catalog{
		filter:         filter,
		open:           open,
		log:            logger,
		backend:        backend,
		services:       []string{"pipewire.service", "pipewire-pulse.service", "wireplumber.service", "pulseaudio.service"},
		serviceProbe:   serviceActive,
		serviceTimeout: 10 * time.Second,
		pollInterval:   500 * time.Millisecond,
	}, nil
}

// Devices enumerates capture devices through the filter.
func (c *Catalog) Devices() ([]Device, error) {
	c.mu.Lock()
	backend := c.backend
	c.mu.Unlock()
	if backend == nil {
		return nil, ErrClosed
	}
	raw, err := backend.Devices()
	if err != nil {
		return nil, err
	}
	return c.filter.Apply(raw), nil
}

func (c *Catalog) NewCapture(device *Device, config CaptureConfig) (CaptureDevice, error) {
	c.mu.Lock()
	backend := c.backend
	c.mu.Unlock()
	if backend == nil {
		return nil, ErrClosed
	}
	return backend.NewCapture(device, config)
}

// Refresh tears down and reinitializes the backend. The host caches its
// device list at first use and will not see devices that appeared
// later without this.
func (c *Catalog) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
	backend, err := c.open()
	if err != nil {
		return fmt.Errorf("reopen audio context: %w", err)
	}
	c.backend = backend
	return nil
}

func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
}

// WaitForService polls the session manager until one of the candidate
// audio services reports active or the timeout elapses. Probe failures
// count as "not yet".
func (c *Catalog) WaitForService(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		for _, svc := range c.services {
			active, err := c.serviceProbe(svc)
			if err != nil {
				c.log.Debugf("service probe %s: %v", svc, err)
				continue
			}
			if active {
				c.log.Debugf("audio service %s is active", svc)
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(c.pollInterval)
	}
}

// WaitForDevice polls the device list until the named target appears,
// or, with no target, until the device count has held still for
// stabilize (devices tend to enumerate one at a time at login). On
// timeout it returns whatever was last observed; it never blocks past
// the deadline and never fails.
func (c *Catalog) WaitForDevice(target string, timeout, stabilize time.Duration) []Device {
	serviceWait := c.serviceTimeout
	if timeout < serviceWait {
		serviceWait = timeout
	}
	if !c.WaitForService(serviceWait) {
		c.log.Warnf("audio service not ready after %s, continuing anyway", serviceWait)
	}

	deadline := time.Now().Add(timeout)
	var last []Device
	lastCount := -1
	stableSince := time.Now()
	for {
		devices, err := c.Devices()
		if err != nil {
			c.log.Debugf("device poll: %v", err)
			devices = nil
		}
		last = devices

		if target != "" {
			if Find(devices, target) != nil {
				return devices
			}
		} else if len(devices) > 0 {
			if len(devices) != lastCount {
				lastCount = len(devices)
				stableSince = time.Now()
			} else if time.Since(stableSince) >= stabilize {
				return devices
			}
		}

		if time.Now().After(deadline) {
			return last
		}
		time.Sleep(c.pollInterval)
	}
}

// DevicesWithRetry retries enumeration with exponential backoff until
// any device shows up or attempts run out. Startup restoration uses
// this to ride out the autostart race.
func (c *Catalog) DevicesWithRetry(maxAttempts int, initialDelay, maxDelay time.Duration) []Device {
	delay := initialDelay
	for attempt := 1; ; attempt++ {
		devices, err := c.Devices()
		if err == nil && len(devices) > 0 {
			return devices
		}
		if err != nil {
			c.log.Debugf("device enumeration: %v", err)
		}
		if attempt >= maxAttempts {
			return nil
		}
		c.log.Debugf("no microphones yet (attempt %d/%d), retrying in %s", attempt, maxAttempts, delay)
		time.Sleep(delay)
		delay += delay / 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
