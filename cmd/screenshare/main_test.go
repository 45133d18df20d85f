package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/zsiec/screenshare/internal/player"
)

func TestRunHeadlessPrintsEveryLine(t *testing.T) {
	t.Parallel()
	p := player.New(player.Config{LogLines: 8}, nil)
	p.Info().AddLines("Connecting", "retry", "retry")
	p.Info().AddLine("retry")

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runHeadless(ctx, &out, p, time.Millisecond)

	if got, want := out.String(), "Connecting\nretry\nretry\nretry\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
