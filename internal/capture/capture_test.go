package capture

import (
	"errors"
	"strings"
	"testing"

	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/wire"
)

func TestPatternLimit(t *testing.T) {
	t.Parallel()
	p, err := NewPattern(14, 4, 3)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		f, err := p.Grab()
		if err != nil {
			t.Fatalf("Grab %d: %v", i, err)
		}
		if f.Width != 14 || f.Height != 4 || f.LineSize != 56 || len(f.Data) != 56*4 {
			t.Fatalf("frame %d geometry = %dx%d stride %d len %d", i, f.Width, f.Height, f.LineSize, len(f.Data))
		}
		if f.PixelFormat != media.PixelFormatBGRA {
			t.Errorf("pixel format = %v, want bgra", f.PixelFormat)
		}
	}
	if _, err := p.Grab(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
	if p.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", p.Frames())
	}
}

func TestPatternScrolls(t *testing.T) {
	t.Parallel()
	p, err := NewPattern(7, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := p.Grab()
	b, _ := p.Grab()
	if string(a.Data) == string(b.Data) {
		t.Error("consecutive frames are identical")
	}
	// Frame 1 is frame 0 shifted left by one column.
	if string(b.Data[:6*4]) != string(a.Data[4:]) {
		t.Error("frame 1 is not frame 0 shifted by one column")
	}
}

func TestPatternInvalidSize(t *testing.T) {
	t.Parallel()
	if _, err := NewPattern(0, 10, 0); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestPatternHandleAction(t *testing.T) {
	t.Parallel()
	p, _ := NewPattern(2, 2, 0)
	if p.HandleAction(wire.Action{}) {
		t.Error("NoAction should not be handled")
	}
	if !p.HandleAction(wire.NewKeyPressed("a")) {
		t.Error("key action not handled")
	}
	if p.Handled() != 1 {
		t.Errorf("Handled = %d, want 1", p.Handled())
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	p, _ := NewPattern(2, 2, 0)
	r := NewRecorder(p)

	a := wire.NewMouseButtonPressed(1, 0.5, 0.5)
	if !r.HandleAction(a) {
		t.Fatal("HandleAction = false, want true")
	}
	select {
	case <-r.Notify():
	default:
		t.Fatal("no notification after HandleAction")
	}
	got := r.Actions()
	if len(got) != 1 || got[0] != a {
		t.Fatalf("Actions = %v, want [%v]", got, a)
	}
	if r.Width() != 2 {
		t.Errorf("Width = %d, want 2 from wrapped source", r.Width())
	}
}

func TestScreenHandleAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action wire.Action
		want   string
		ok     bool
	}{
		{name: "letter", action: wire.NewKeyPressed("a"), want: "xdotool key a", ok: true},
		{name: "truncated name", action: wire.NewKeyPressed("Return"), want: "xdotool key Return", ok: true},
		{name: "function key", action: wire.NewKeyPressed("F11"), want: "xdotool key F11", ok: true},
		{name: "unknown name", action: wire.NewKeyPressed("Zzzz"), ok: false},
		{name: "click center", action: wire.NewMouseButtonPressed(1, 0.5, 0.5), want: "xdotool mousemove 1051 51 click 1", ok: true},
		{name: "click clamps", action: wire.NewMouseButtonPressed(3, 2, -1), want: "xdotool mousemove 1100 0 click 3", ok: true},
		{name: "no action", action: wire.Action{}, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var ran []string
			s := &Screen{
				log:    testLogger(),
				bounds: imageRect(1000, 0, 1101, 101),
				run: func(name string, args ...string) error {
					ran = append(ran, name+" "+strings.Join(args, " "))
					return nil
				},
			}
			if got := s.HandleAction(tc.action); got != tc.ok {
				t.Fatalf("HandleAction = %v, want %v", got, tc.ok)
			}
			if !tc.ok {
				if len(ran) != 0 {
					t.Errorf("ran %v, want nothing", ran)
				}
				return
			}
			if len(ran) != 1 || ran[0] != tc.want {
				t.Errorf("ran %v, want %q", ran, tc.want)
			}
		})
	}
}

func TestScreenCommandFailure(t *testing.T) {
	t.Parallel()
	s := &Screen{
		log:    testLogger(),
		bounds: imageRect(0, 0, 10, 10),
		run:    func(string, ...string) error { return errors.New("exit status 1") },
	}
	if s.HandleAction(wire.NewKeyPressed("a")) {
		t.Error("failed command reported as handled")
	}
}

func TestOpenUnknownSource(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Source: "webcam"}, nil); err == nil {
		t.Fatal("expected error for unknown source")
	}
	src, err := Open(Config{Source: SourcePattern, Width: 4, Height: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if src.Width() != 4 {
		t.Errorf("Width = %d, want 4", src.Width())
	}
}

func TestScreenPointFractionOfSurface(t *testing.T) {
	t.Parallel()
	s := &Screen{log: testLogger(), bounds: imageRect(0, 0, 1920, 1080)}

	for _, px := range [][2]int{{0, 0}, {960, 540}, {1, 1}, {1919, 1079}, {1234, 777}} {
		x, y := s.point(float64(px[0])/1920, float64(px[1])/1080)
		if x != px[0] || y != px[1] {
			t.Errorf("point(%d/1920, %d/1080) = (%d, %d), want (%d, %d)", px[0], px[1], x, y, px[0], px[1])
		}
	}
	if x, y := s.point(1, 1); x != 1919 || y != 1079 {
		t.Errorf("point(1, 1) = (%d, %d), want last pixel (1919, 1079)", x, y)
	}
}
