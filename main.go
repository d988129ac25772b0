package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/doctor"
	"murmur/download"
	"murmur/install"
	"murmur/log"
	"murmur/notify"
	"murmur/pipeline"
	"murmur/transcriber"
	"murmur/tray"
)

var version = "dev"

func usage() {
	fmt.Printf(`murmur %s - push to talk dictation

Usage: murmur [command] [flags]

Commands:
  (none)      run the dictation daemon
  toggle      start or stop recording in the running daemon
  setup       pick a microphone and save it to the config
  devices     list capture devices
  download    fetch a whisper model (defaults to the configured one)
  keybind     show how to bind a key to the toggle
  doctor      interactive system diagnostics
  install     install desktop entry and autostart (--systemd adds a user service)
  uninstall   remove installed files
  status      show install and daemon state
  help        show this help

Flags:
`, version)
	flag.PrintDefaults()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func dispatchCommand(cmd string) {
	switch cmd {
	case "toggle":
		if err := sendToggle(); err != nil {
			fatal(err)
		}
	case "setup":
		os.Exit(runSetup())
	case "devices":
		os.Exit(listDevices())
	case "download":
		model := ""
		if len(os.Args) > 2 {
			model = os.Args[2]
		}
		os.Exit(runDownload(model))
	case "keybind":
		printKeybind()
	case "doctor":
		os.Exit(doctor.Run(config.Load(log.Nop()), log.Nop()))
	case "install":
		useSystemd := len(os.Args) > 2 && os.Args[2] == "--systemd"
		if err := install.Install(useSystemd); err != nil {
			fatal(err)
		}
	case "uninstall":
		if err := install.Uninstall(); err != nil {
			fatal(err)
		}
	case "status":
		install.Status()
		daemonStatus()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
	os.Exit(0)
}

func run() {
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
		dispatchCommand(os.Args[1])
	}

	modelFlag := flag.String("model", "", "model name or ggml path (overrides config)")
	langFlag := flag.String("language", "", "language code, e.g. en, de (overrides config)")
	deviceFlag := flag.String("device", "", "use named microphone device (overrides config)")
	logPathFlag := flag.String("log-path", "", "log directory (default: OS-specific location)")
	profileFlag := flag.String("profile", "", "pprof listen address (e.g. localhost:6060)")
	crashFlag := flag.Bool("crash", false, "trigger synthetic panic to verify crash logging")
	testFlag := flag.Bool("test", false, "headless test mode, commands on stdin")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fatal(fmt.Errorf("resolve log directory: %w", err))
	}
	logger, err := log.Open(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logger = log.Nop()
	}

	crashPath := filepath.Join(logDir, "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	cfg := config.Load(logger)
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *deviceFlag != "" {
		cfg.Microphone = *deviceFlag
	}

	if missing := clipboard.CheckDependencies(); len(missing) > 0 {
		logger.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
		fmt.Fprintf(os.Stderr, "Missing required tools: %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(os.Stderr, "Install them with your package manager, then run murmur again.")
		os.Exit(1)
	}

	if *testFlag {
		os.Exit(runTestMode(cfg, logger))
	}

	modelPath, err := transcriber.ResolveModelPath(cfg.Model)
	if err != nil {
		logger.Errorf("%v", err)
		fatal(err)
	}
	compute := transcriber.ResolveCompute(cfg.Compute, logger)
	engine, err := transcriber.New(transcriber.Config{Model: modelPath, Compute: compute}, logger)
	if err != nil {
		logger.Errorf("engine init: %v", err)
		fatal(err)
	}

	catalog, err := audio.NewCatalog(logger)
	if err != nil {
		logger.Errorf("%v", err)
		fatal(err)
	}
	recorder := audio.NewRecorder(catalog, logger)

	d := newDaemon(cfg, logger)
	d.catalog = catalog
	d.recorder = recorder

	// Restore the configured microphone. Around login the audio stack
	// and USB or Bluetooth devices come up at their own pace, so this
	// waits rather than checking once.
	var names []string
	if cfg.Microphone != "" {
		devices := catalog.WaitForDevice(cfg.Microphone, 15*time.Second, 2*time.Second)
		names = deviceNames(devices)
		if dev := audio.Find(devices, cfg.Microphone); dev != nil {
			recorder.SetDevice(dev)
			d.selected = cfg.Microphone
		} else {
			logger.Warnf("configured microphone %q not found, using system default", cfg.Microphone)
		}
		d.preferred = cfg.Microphone
	} else {
		names = deviceNames(catalog.DevicesWithRetry(3, 500*time.Millisecond, 2*time.Second))
	}
	d.lastNames = names

	// Preload so the first toggle transcribes immediately instead of
	// paying the model load.
	logger.Infof("loading model %s (%s)", modelPath, compute)
	if err := engine.Load(); err != nil {
		logger.Errorf("model load failed: %v", err)
		fatal(err)
	}

	delivery := clipboard.New(logger, cfg.AutoPaste)
	notifier := notify.New(logger, cfg.Notifications)
	beeper := beep.New(logger, cfg.Sound)
	d.notifier = notifier
	d.beeper = beeper

	t := tray.New(tray.Config{
		Log:      logger,
		Devices:  names,
		Selected: d.selected,
		OnToggle: d.requestToggle,
		OnDevice: d.requestDevice,
	})
	d.view = t

	d.coord = pipeline.New(pipeline.Config{
		Engine:   engine,
		Language: cfg.Language,
		Compute:  compute.String(),
		Deliver:  delivery,
		Notify:   &feedback{notifier: notifier, beeper: beeper},
		Status:   t,
		Log:      logger,
	})

	source, err := newToggleSource(cfg, logger)
	if err != nil {
		logger.Errorf("%v", err)
		fatal(err)
	}
	if err := source.Start(); err != nil {
		logger.Errorf("toggle source: %v", err)
		fatal(err)
	}
	d.source = source

	go d.loop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			logger.Info("shutting down on signal")
		case <-t.Done():
			logger.Info("shutting down from tray")
		}
		gracefulShutdown(d, t, engine)
	}()

	logger.Infof("murmur %s ready", version)
	t.Run()
	gracefulShutdown(d, t, engine)
}

var shutdownOnce sync.Once

// gracefulShutdown tears the daemon down exactly once, whichever exit
// path gets there first. An in-flight recording is finalized, an
// in-flight transcription is cancelled.
func gracefulShutdown(d *daemon, t *tray.Tray, engine transcriber.Engine) {
	shutdownOnce.Do(func() {
		d.Quit()
		<-d.done
		d.source.Stop()
		d.coord.Close()
		engine.Close()
		d.notifier.Close()
		d.catalog.Close()
		d.log.Close()
		t.Quit()
		os.Exit(0)
	})
}

func deviceNames(devices []audio.Device) []string {
	names := make([]string, len(devices))
	for i := range devices {
		names[i] = devices[i].Name
	}
	return names
}

// listDevices prints the filtered capture devices, tagging Bluetooth
// microphones whose headset profile would degrade capture quality.
func listDevices() int {
	logger := log.Nop()
	catalog, err := audio.NewCatalog(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer catalog.Close()

	devices, err := catalog.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("No microphones found.")
		return 1
	}
	cfg := config.Load(logger)
	for _, dev := range devices {
		marker := " "
		if dev.Name == cfg.Microphone {
			marker = "*"
		}
		tag := ""
		if audio.IsBluetooth(dev.Name) {
			tag = "  [bluetooth]"
		}
		fmt.Printf(" %s %s%s\n", marker, dev.Name, tag)
	}
	return 0
}

func runDownload(model string) int {
	if model == "" {
		model = config.Load(log.Nop()).Model
	}
	path, fetched, err := download.Model(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !fetched {
		fmt.Printf("Model already downloaded: %s\n", path)
		return 0
	}
	fmt.Printf("Model ready: %s\n", path)
	return 0
}
