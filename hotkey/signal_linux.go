package hotkey

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"murmur/log"
)

// SignalSource toggles on SIGUSR1. Compositor keybinds reach the
// daemon through this: the keybind runs `murmur toggle`, which reads
// the pid file and signals us.
type SignalSource struct {
	log     *log.Logger
	toggles chan struct{}
	sigs    chan os.Signal
	stop    chan struct{}
	once    sync.Once
}

func NewSignal(logger *log.Logger) *SignalSource {
	return &SignalSource{
		log:     logger,
		toggles: make(chan struct{}, 1),
		sigs:    make(chan os.Signal, 4),
		stop:    make(chan struct{}),
	}
}

// Start writes the pid file and installs the signal handler. It
// refuses to start while another daemon holds the pid file.
func (s *SignalSource) Start() error {
	if pid, ok := runningPid(); ok {
		return fmt.Errorf("already running as pid %d (%s)", pid, PidFile())
	}
	if err := os.WriteFile(PidFile(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	signal.Notify(s.sigs, syscall.SIGUSR1)
	go func() {
		for {
			select {
			case <-s.stop:
				return
			case <-s.sigs:
				s.log.Debugf("toggle signal received")
				select {
				case s.toggles <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

func (s *SignalSource) Stop() {
	s.once.Do(func() {
		signal.Stop(s.sigs)
		close(s.stop)
		os.Remove(PidFile())
	})
}

func (s *SignalSource) Toggles() <-chan struct{} { return s.toggles }

// PidFile returns where the running daemon records its pid.
func PidFile() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "murmur.pid")
}

// runningPid reports a live daemon recorded in the pid file. A stale
// file left by a crashed run does not count, and neither does our own
// pid.
func runningPid() (int, bool) {
	pid, err := readPid()
	if err != nil || pid == os.Getpid() {
		return 0, false
	}
	// Signal 0 probes liveness without delivering anything. EPERM
	// still means the process exists.
	if err := syscall.Kill(pid, 0); err == nil || errors.Is(err, syscall.EPERM) {
		return pid, true
	}
	return 0, false
}

func readPid() (int, error) {
	data, err := os.ReadFile(PidFile())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is corrupt", PidFile())
	}
	return pid, nil
}

// Running reports whether a daemon is up, for status output.
func Running() (int, bool) { return runningPid() }

// Diagnose reports whether the toggle path is usable.
func Diagnose() (string, error) {
	dir := filepath.Dir(PidFile())
	probe := filepath.Join(dir, ".murmur-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return "", fmt.Errorf("pid file directory %s is not writable: %w", dir, err)
	}
	os.Remove(probe)
	if pid, ok := runningPid(); ok {
		return fmt.Sprintf("daemon running as pid %d, toggle signal path ready", pid), nil
	}
	return fmt.Sprintf("pid file directory %s writable, SIGUSR1 toggle ready", dir), nil
}

// SendToggle signals the running daemon. This is what the toggle
// subcommand bound to the compositor keybind does.
func SendToggle() error {
	pid, err := readPid()
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("murmur is not running (no pid file at %s)", PidFile())
	}
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, syscall.SIGUSR1); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}
