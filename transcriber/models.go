package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// KnownModels are the ggml checkpoints the resolver recognizes by
// short name. Anything else must be given as a path.
var KnownModels = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v3", "large-v3-turbo",
}

func IsKnownModel(name string) bool {
	for _, m := range KnownModels {
		if m == name {
			return true
		}
	}
	return false
}

// ModelFile returns the on-disk file name for a model short name.
func ModelFile(name string) string {
	return "ggml-" + name + ".bin"
}

// ModelDir returns the directory model files are looked up in.
func ModelDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "murmur", "models"), nil
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			return "", fmt.Errorf("LOCALAPPDATA not set")
		}
		return filepath.Join(local, "murmur", "models"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, "murmur", "models"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "murmur", "models"), nil
	}
}

// ResolveModelPath maps a model name or path to an existing ggml file.
// Paths (anything with a separator or a .bin suffix) are used as
// given; short names resolve to ggml-<name>.bin in ModelDir. A model
// that is not on disk is a hard error so startup fails before the
// first recording instead of after it.
func ResolveModelPath(model string) (string, error) {
	if model == "" {
		model = "base.en"
	}
	if strings.ContainsRune(model, os.PathSeparator) || strings.HasSuffix(model, ".bin") {
		if _, err := os.Stat(model); err != nil {
			return "", fmt.Errorf("model file %s: %w", model, err)
		}
		return model, nil
	}
	if !IsKnownModel(model) {
		known := append([]string(nil), KnownModels...)
		sort.Strings(known)
		return "", fmt.Errorf("unknown model %q (known: %s)", model, strings.Join(known, ", "))
	}
	dir, err := ModelDir()
	if err != nil {
		return "", fmt.Errorf("resolve model dir: %w", err)
	}
	path := filepath.Join(dir, ModelFile(model))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("model %q not found at %s, fetch it with: murmur download %s", model, path, model)
	}
	return path, nil
}
