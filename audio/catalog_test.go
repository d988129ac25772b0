package audio

import (
	"errors"
	"testing"
	"time"

	"murmur/log"
)

func testCatalog(t *testing.T, fake *FakeContext) *Catalog {
	t.Helper()
	cat, err := NewCatalogWith(func() (Context, error) { return fake, nil }, DefaultFilter(), log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	cat.serviceProbe = func(string) (bool, error) { return true, nil }
	cat.serviceTimeout = 50 * time.Millisecond
	cat.pollInterval = 10 * time.Millisecond
	return cat
}

func TestDeviceFilter(t *testing.T) {
	f := DefaultFilter()
	cases := []struct {
		name     string
		device   Device
		included bool
	}{
		{"hdmi monitor output", Device{Name: "HDMI Monitor Output (hw:2,3)", Channels: 2}, false},
		{"usb headset mic", Device{Name: "USB Headset Mic", Channels: 1}, true},
		{"ten channel aggregator", Device{Name: "Pro Tools Mic Array", Channels: 10}, false},
		{"zero channels", Device{Name: "Blue Yeti (hw:1,0)", Channels: 0}, false},
		{"virtual default", Device{Name: "default", Channels: 2}, false},
		{"virtual pipewire", Device{Name: "pipewire", Channels: 2}, false},
		{"virtual null", Device{Name: "null", Channels: 2}, false},
		{"hardware no mic keyword", Device{Name: "HD-Audio Generic (hw:1,0)", Channels: 2}, true},
		{"speaker", Device{Name: "Built-in Speaker", Channels: 2}, false},
		{"monitor of sink", Device{Name: "Monitor of Built-in Audio", Channels: 2}, false},
		{"iec958 passthrough", Device{Name: "IEC958 Digital", Channels: 2}, false},
		{"plain name no markers", Device{Name: "Widget", Channels: 2}, false},
		{"yeti by keyword", Device{Name: "Yeti Stereo Microphone", Channels: 2}, true},
		{"scarlett", Device{Name: "Scarlett 2i2 USB", Channels: 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.Match(tc.device); got != tc.included {
				t.Errorf("Match(%q, %d ch) = %v, want %v", tc.device.Name, tc.device.Channels, got, tc.included)
			}
		})
	}
}

func TestFilterSortsHardwareFirst(t *testing.T) {
	f := DefaultFilter()
	in := []Device{
		{Name: "Zoom Mic", Channels: 1},
		{Name: "Blue Yeti (hw:2,0)", Channels: 2},
		{Name: "ACME Mic (hw:1,0)", Channels: 1},
		{Name: "Awesome Headset", Channels: 1},
	}
	got := f.Apply(in)
	want := []string{"ACME Mic (hw:1,0)", "Blue Yeti (hw:2,0)", "Awesome Headset", "Zoom Mic"}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestFindMatchesByNameAcrossReorder(t *testing.T) {
	before := []Device{
		{Index: 0, Name: "ACME Mic (hw:1,0)", Channels: 1},
		{Index: 1, Name: "Blue Yeti (hw:2,0)", Channels: 2},
	}
	d := Find(before, "Blue Yeti (hw:2,0)")
	if d == nil || d.Index != 1 {
		t.Fatalf("expected to find yeti at index 1, got %+v", d)
	}

	// Re-enumeration after hot-plug reorders indices.
	after := []Device{
		{Index: 0, Name: "Blue Yeti (hw:2,0)", Channels: 2},
		{Index: 1, Name: "ACME Mic (hw:1,0)", Channels: 1},
	}
	d = Find(after, "Blue Yeti (hw:2,0)")
	if d == nil {
		t.Fatal("device lost across re-enumeration")
	}
	if d.Index != 0 {
		t.Errorf("index should track the new enumeration, got %d", d.Index)
	}
	if Find(after, "Ghost Mic") != nil {
		t.Error("found a device that does not exist")
	}
}

func TestCatalogDevicesAppliesFilter(t *testing.T) {
	fake := NewFakeContext(
		Device{Name: "USB Headset Mic", Channels: 1},
		Device{Name: "Monitor of Built-in Audio", Channels: 2},
		Device{Name: "default", Channels: 2},
	)
	cat := testCatalog(t, fake)
	devices, err := cat.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || devices[0].Name != "USB Headset Mic" {
		t.Errorf("filter not applied through catalog: %+v", devices)
	}
}

func TestRefreshReopensBackend(t *testing.T) {
	opens := 0
	fake := NewFakeContext(Device{Name: "USB Headset Mic", Channels: 1})
	cat, err := NewCatalogWith(func() (Context, error) {
		opens++
		return fake, nil
	}, DefaultFilter(), log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if opens != 1 {
		t.Fatalf("expected one open at construction, got %d", opens)
	}
	if err := cat.Refresh(); err != nil {
		t.Fatal(err)
	}
	if opens != 2 {
		t.Errorf("Refresh did not reopen the backend: opens=%d", opens)
	}
	if _, err := cat.Devices(); err != nil {
		t.Errorf("Devices after Refresh: %v", err)
	}
}

func TestRefreshFailureLeavesCatalogClosed(t *testing.T) {
	calls := 0
	fake := NewFakeContext()
	cat, err := NewCatalogWith(func() (Context, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("host down")
		}
		return fake, nil
	}, DefaultFilter(), log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := cat.Refresh(); err == nil {
		t.Fatal("expected Refresh failure")
	}
	if _, err := cat.Devices(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after failed Refresh, got %v", err)
	}
}

func TestWaitForServiceBecomesActive(t *testing.T) {
	fake := NewFakeContext()
	cat := testCatalog(t, fake)
	probes := 0
	cat.serviceProbe = func(name string) (bool, error) {
		probes++
		return probes > 6, nil
	}
	if !cat.WaitForService(time.Second) {
		t.Fatal("service never reported active")
	}
}

func TestWaitForServiceTimeout(t *testing.T) {
	fake := NewFakeContext()
	cat := testCatalog(t, fake)
	cat.serviceProbe = func(string) (bool, error) { return false, errors.New("no bus yet") }
	start := time.Now()
	if cat.WaitForService(100 * time.Millisecond) {
		t.Fatal("service cannot be active")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("blocked past timeout: %s", elapsed)
	}
}

func TestWaitForDeviceTargetShortCircuit(t *testing.T) {
	fake := NewFakeContext()
	cat := testCatalog(t, fake)

	go func() {
		time.Sleep(50 * time.Millisecond)
		fake.SetDevices(Device{Name: "USB Headset Mic", Channels: 1})
	}()

	start := time.Now()
	devices := cat.WaitForDevice("USB Headset Mic", 5*time.Second, time.Second)
	elapsed := time.Since(start)

	if Find(devices, "USB Headset Mic") == nil {
		t.Fatalf("target not in result: %+v", devices)
	}
	if elapsed > time.Second {
		t.Errorf("target appearance should short-circuit, took %s", elapsed)
	}
}

func TestWaitForDeviceTimeoutReturnsLastObserved(t *testing.T) {
	fake := NewFakeContext(Device{Name: "Other Mic (hw:5,0)", Channels: 1})
	cat := testCatalog(t, fake)

	start := time.Now()
	devices := cat.WaitForDevice("Ghost Mic", time.Second, 200*time.Millisecond)
	elapsed := time.Since(start)

	if elapsed < 900*time.Millisecond || elapsed > 1800*time.Millisecond {
		t.Errorf("expected return at about the 1s timeout, took %s", elapsed)
	}
	if Find(devices, "Other Mic (hw:5,0)") == nil {
		t.Errorf("expected last observed devices, got %+v", devices)
	}
}

func TestWaitForDeviceStabilization(t *testing.T) {
	fake := NewFakeContext()
	cat := testCatalog(t, fake)

	// Devices enumerate one at a time, then hold steady.
	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.SetDevices(Device{Name: "ACME Mic (hw:1,0)", Channels: 1})
		time.Sleep(30 * time.Millisecond)
		fake.SetDevices(
			Device{Name: "ACME Mic (hw:1,0)", Channels: 1},
			Device{Name: "USB Headset Mic", Channels: 1},
		)
	}()

	devices := cat.WaitForDevice("", 3*time.Second, 100*time.Millisecond)
	if len(devices) != 2 {
		t.Errorf("expected the settled list of 2 devices, got %+v", devices)
	}
}

func TestDevicesWithRetryBackoff(t *testing.T) {
	fake := NewFakeContext()
	cat := testCatalog(t, fake)

	go func() {
		time.Sleep(25 * time.Millisecond)
		fake.SetDevices(Device{Name: "USB Headset Mic", Channels: 1})
	}()

	devices := cat.DevicesWithRetry(10, 10*time.Millisecond, 50*time.Millisecond)
	if Find(devices, "USB Headset Mic") == nil {
		t.Errorf("retry never saw the device: %+v", devices)
	}
}

func TestDevicesWithRetryExhaustion(t *testing.T) {
	fake := NewFakeContext() // never any devices
	cat := testCatalog(t, fake)

	start := time.Now()
	devices := cat.DevicesWithRetry(3, 10*time.Millisecond, 20*time.Millisecond)
	if devices != nil {
		t.Errorf("expected nil after exhausting attempts, got %+v", devices)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("retry ran too long: %s", elapsed)
	}
}
