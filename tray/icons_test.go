package tray

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRenderedIconsDecode(t *testing.T) {
	for name, data := range map[string][]byte{
		"idle":      iconIdle,
		"idleHi":    iconIdleHi,
		"recording": iconRecording,
		"busy":      iconBusy,
		"warn":      iconWarn,
	} {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		b := img.Bounds()
		if b.Dx() != b.Dy() || (b.Dx() != 22 && b.Dx() != 44) {
			t.Fatalf("%s: bounds %v", name, b)
		}
	}
}

func TestRecordingIconHasRedCenter(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(iconRecording))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := img.At(22, 22).RGBA()
	if a == 0 || r>>8 != 255 || g>>8 == 255 || b>>8 == 255 {
		t.Fatalf("center pixel = (%d,%d,%d,%d), want red", r>>8, g>>8, b>>8, a>>8)
	}
}
