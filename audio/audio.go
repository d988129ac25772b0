package audio

import "strings"

// TargetRate is the sample rate finalized recordings are delivered at.
const TargetRate = 16000

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives one chunk of mono float32 samples from the
// capture stream. It runs on the driver's realtime thread: it must copy
// what it keeps and return quickly.
type DataCallback func(samples []float32)

type CaptureConfig struct {
	SampleRate int
	Channels   int
}

// Device describes one capture endpoint. Name is the identity key:
// indices and IDs shift across hot-plug and daemon restarts, names
// do not.
type Device struct {
	Index      int
	ID         string // opaque platform-specific identifier
	Name       string
	Channels   int
	SampleRate int // 0 when the backend cannot report it
}

// Buffer is a finalized mono recording tagged with its sample rate.
// A zero-length buffer is the valid "no audio" result.
type Buffer struct {
	Samples []float32
	Rate    int
}

func (b Buffer) Empty() bool {
	return len(b.Samples) == 0
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}

type Context interface {
	Devices() ([]Device, error)
	NewCapture(device *Device, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}
