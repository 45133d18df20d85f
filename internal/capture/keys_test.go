package capture

import "testing"

func TestKeysym(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"a", "a"},
		{"Z", "Z"},
		{"é", "é"},
		{"Esca", "Escape"},
		{"Back", "BackSpace"},
		{"Left", "Left"},
		{"Up", "Up"},
		{"F5", "F5"},
		{"F12", "F12"},
		{"q\x00\x00\x00", "q"},
		{"", ""},
		{"Fo", ""},
		{"abcd", ""},
	}
	for _, tc := range tests {
		if got := keysym(tc.in); got != tc.want {
			t.Errorf("keysym(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
