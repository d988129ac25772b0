package transcriber

import (
	"os"
	"os/exec"

	"murmur/log"
)

// Compute is the acceleration backend the engine runs on. It is
// resolved once at startup; nothing probes hardware after that.
type Compute int

const (
	ComputeCPU Compute = iota
	ComputeCUDA
)

func (c Compute) String() string {
	if c == ComputeCUDA {
		return "cuda"
	}
	return "cpu"
}

// ResolveCompute maps the configured preference ("auto", "cuda",
// "cpu") to a concrete backend. A cuda request on a machine without a
// usable GPU falls back to cpu with a warning rather than failing.
func ResolveCompute(pref string, logger *log.Logger) Compute {
	return resolveCompute(pref, cudaUsable, logger)
}

func resolveCompute(pref string, probe func() bool, logger *log.Logger) Compute {
	switch pref {
	case "cpu":
		return ComputeCPU
	case "cuda":
		if probe() {
			return ComputeCUDA
		}
		logger.Warnf("cuda requested but no usable GPU found, falling back to cpu")
		return ComputeCPU
	case "", "auto":
	default:
		logger.Warnf("unknown compute %q, treating as auto", pref)
	}
	if probe() {
		logger.Infof("compute auto: cuda")
		return ComputeCUDA
	}
	return ComputeCPU
}

func cudaUsable() bool {
	if _, err := os.Stat("/proc/driver/nvidia"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}
