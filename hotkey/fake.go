package hotkey

// FakeSource drives the toggle from tests.
type FakeSource struct {
	toggles chan struct{}
	started bool
}

func NewFake() *FakeSource {
	return &FakeSource{toggles: make(chan struct{}, 1)}
}

func (f *FakeSource) Start() error { f.started = true; return nil }
func (f *FakeSource) Stop()        { f.started = false }

func (f *FakeSource) Toggles() <-chan struct{} { return f.toggles }

// SimToggle delivers one toggle, dropping it if one is already
// pending, same as the real sources.
func (f *FakeSource) SimToggle() {
	select {
	case f.toggles <- struct{}{}:
	default:
	}
}

func (f *FakeSource) Started() bool { return f.started }
