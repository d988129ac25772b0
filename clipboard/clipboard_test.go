package clipboard

import "testing"

func TestIsTerminal(t *testing.T) {
	for _, tt := range []struct {
		class string
		want  bool
	}{
		{"kitty", true},
		{"Alacritty", true},
		{"gnome-terminal-server", true},
		{"foot", true},
		{"firefox", false},
		{"code", false},
		{"", false},
		{"kitty-cat", false},
	} {
		if got := isTerminal(tt.class); got != tt.want {
			t.Errorf("isTerminal(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}
