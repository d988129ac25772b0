// Package hotkey delivers the abstract toggle event that flips
// recording on and off.
package hotkey

// Source is one OS mechanism for the toggle. Implementations coalesce
// bursts: a toggle arriving while one is already pending is dropped.
type Source interface {
	Start() error
	Stop()
	Toggles() <-chan struct{}
}
