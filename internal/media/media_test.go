package media

import "testing"

func TestRescale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ts       int64
		from, to Rational
		want     int64
	}{
		{name: "identity", ts: 42, from: Rational{1, 30}, to: Rational{1, 30}, want: 42},
		{name: "30fps to 90kHz", ts: 1, from: Rational{1, 30}, to: StreamTimeBase, want: 3000},
		{name: "30fps to 90kHz large", ts: 300, from: Rational{1, 30}, to: StreamTimeBase, want: 900000},
		{name: "90kHz to ms rounds", ts: 1500, from: StreamTimeBase, to: Rational{1, 1000}, want: 17},
		{name: "negative rounds away", ts: -1500, from: StreamTimeBase, to: Rational{1, 1000}, want: -17},
		{name: "zero den passthrough", ts: 7, from: Rational{1, 0}, to: StreamTimeBase, want: 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Rescale(tc.ts, tc.from, tc.to)
			if got != tc.want {
				t.Errorf("Rescale(%d, %v, %v) = %d, want %d", tc.ts, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCodecParametersFrameRate(t *testing.T) {
	t.Parallel()
	p := CodecParameters{TimeBase: Rational{Num: 1, Den: 30}}
	if got := p.FrameRate(); got != 30 {
		t.Fatalf("FrameRate = %v, want 30", got)
	}
}

func TestParseCodecID(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]CodecID{"mjpeg": CodecMJPEG, "jpeg": CodecMJPEG, "raw": CodecRaw} {
		got, err := ParseCodecID(name)
		if err != nil {
			t.Fatalf("ParseCodecID(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseCodecID(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseCodecID("h264"); err == nil {
		t.Error("expected error for unsupported codec")
	}
}

func TestPacketRescaleTS(t *testing.T) {
	t.Parallel()
	p := &Packet{PTS: 2, DTS: 2, Duration: 1}
	p.RescaleTS(Rational{1, 30}, StreamTimeBase)
	if p.PTS != 6000 || p.DTS != 6000 || p.Duration != 3000 {
		t.Fatalf("rescaled = pts %d dts %d dur %d, want 6000/6000/3000", p.PTS, p.DTS, p.Duration)
	}
}

func TestGrabbedFrameImageSwizzlesBGRA(t *testing.T) {
	t.Parallel()
	g := &GrabbedFrame{
		Width:       2,
		Height:      1,
		PixelFormat: PixelFormatBGRA,
		Data:        []byte{1, 2, 3, 4, 5, 6, 7, 8},
		LineSize:    8,
	}
	img := g.Image()
	want := []byte{3, 2, 1, 4, 7, 6, 5, 8}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("Pix = %v, want %v", img.Pix, want)
		}
	}
	if g.PixelFormat != PixelFormatRGBA {
		t.Errorf("PixelFormat = %v, want rgba", g.PixelFormat)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
