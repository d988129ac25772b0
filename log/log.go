// Package log owns the two on-disk logs: diagnostics_log.txt (zerolog
// console format) and transcribe_log.txt (plain timestamped transcript
// lines). A Logger is constructed once at process start and passed into
// the components that log; there is no package-global state.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	mu             sync.Mutex
	diag           zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	pid            int
	dir            string
}

// Metrics describes one completed local transcription.
type Metrics struct {
	AudioSeconds  float64
	TranscribeMs  float64
	RTF           float64 // transcribe time / audio time
	QueueWaitMs   float64
	Model         string
	Compute       string
	Language      string
	MemoryAllocMB float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -log-path flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: MURMUR_LOG_PATH environment variable
	envPath := os.Getenv("MURMUR_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

// Open creates dir if needed and opens both log files for append.
func Open(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err := os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err := os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return nil, err
	}

	pid := os.Getpid()
	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	return &Logger{
		diag:           zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger(),
		diagFile:       diagFile,
		transcribeFile: transcribeFile,
		pid:            pid,
		dir:            dir,
	}, nil
}

// Nop returns a Logger that discards everything. Components accept it
// before Open has run and in tests.
func Nop() *Logger {
	return &Logger{diag: zerolog.Nop()}
}

func (l *Logger) Dir() string {
	return l.dir
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.diagFile != nil {
		l.diagFile.Close()
		l.diagFile = nil
	}
	if l.transcribeFile != nil {
		l.transcribeFile.Close()
		l.transcribeFile = nil
	}
	l.diag = zerolog.Nop()
}

func (l *Logger) Info(msg string) {
	l.diag.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.diag.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string) {
	l.diag.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.diag.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string) {
	l.diag.Error().Msg(msg)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.diag.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.diag.Debug().Msg(fmt.Sprintf(format, args...))
}

// Transcription records the metrics line for one finished job.
func (l *Logger) Transcription(m Metrics) {
	l.diag.Info().
		Str("model", m.Model).
		Str("compute", m.Compute).
		Str("language", orAuto(m.Language)).
		Float64("audio_s", m.AudioSeconds).
		Float64("transcribe_ms", m.TranscribeMs).
		Float64("rtf", m.RTF).
		Float64("queue_wait_ms", m.QueueWaitMs).
		Float64("mem_mb", m.MemoryAllocMB).
		Msg("transcription")
}

func orAuto(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}

// TranscriptionText appends the delivered text to the plain transcript
// log.
func (l *Logger) TranscriptionText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), l.pid, text)
	l.transcribeFile.WriteString(line)
}
