package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/screenshare/internal/capture"
	"github.com/zsiec/screenshare/internal/codec"
	"github.com/zsiec/screenshare/internal/config"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/player"
	"github.com/zsiec/screenshare/internal/session"
	"github.com/zsiec/screenshare/internal/viewer"
)

var version = "dev"

const usage = `usage:
  screenshare [-c config.toml] server [bind]
  screenshare [-c config.toml] [-headless] client [addr]
`

func main() {
	configPath := flag.String("c", os.Getenv("SCREENSHARE_CONFIG"), "config file path")
	headless := flag.Bool("headless", false, "client: log frames instead of opening a window")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Debug() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	switch args[0] {
	case "server":
		if len(args) > 1 {
			cfg.Server.Listen = args[1]
		}
		err = runServer(ctx, cfg)
	case "client":
		if len(args) > 1 {
			cfg.Client.Server = args[1]
		}
		cfg.Client.Headless = cfg.Client.Headless || *headless
		err = runClient(ctx, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	sc := cfg.Server
	codecID, err := media.ParseCodecID(sc.Codec)
	if err != nil {
		return err
	}

	src, err := capture.Open(capture.Config{
		Source:  sc.Source,
		Display: sc.Display,
		Width:   sc.Width,
		Height:  sc.Height,
		Limit:   sc.Limit,
	}, nil)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	enc, err := codec.NewEncoder(codec.EncoderConfig{
		Codec:     codecID,
		Width:     sc.Width,
		Height:    sc.Height,
		FrameRate: sc.FPS,
		Quality:   sc.Quality,
	})
	if err != nil {
		return fmt.Errorf("open encoder: %w", err)
	}

	srv := session.NewServer(session.Config{
		Listen:         sc.Listen,
		FrameRate:      sc.FPS,
		WriteTimeout:   sc.WriteTimeout.Duration,
		ShutdownLinger: sc.ShutdownLinger.Duration,
		SkipWhenIdle:   sc.SkipWhenIdle,
	}, src, enc, metrics.New(prometheus.DefaultRegisterer), nil)
	if err := srv.Listen(); err != nil {
		return err
	}

	slog.Info("screenshare server starting",
		"version", version,
		"listen", srv.Addr(),
		"source", sc.Source,
		"codec", codecID,
		"size", fmt.Sprintf("%dx%d", sc.Width, sc.Height),
		"fps", sc.FPS,
		"api", sc.APIAddr,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if sc.APIAddr != "" {
		apiSrv := &http.Server{
			Addr:    sc.APIAddr,
			Handler: srv.APIHandler(prometheus.DefaultGatherer),
		}
		serveHTTP(ctx, g, "API", apiSrv)
	}
	if sc.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		serveHTTP(ctx, g, "metrics", &http.Server{Addr: sc.MetricsAddr, Handler: mux})
	}

	return g.Wait()
}

func serveHTTP(ctx context.Context, g *errgroup.Group, name string, srv *http.Server) {
	g.Go(func() error {
		slog.Info(name+" server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func runClient(ctx context.Context, cfg config.Config) error {
	cc := cfg.Client
	p := player.New(player.Config{
		IdleTimeout: cc.IdleTimeout.Duration,
		LogLines:    cc.LogLines,
	}, nil)
	p.Connect(cc.Server)

	go func() {
		<-ctx.Done()
		p.Disconnect()
	}()

	if cc.Headless {
		runHeadless(ctx, os.Stderr, p, cc.PollInterval.Duration)
	} else if err := viewer.Run(ctx, p, viewer.Config{
		Title:        "screenshare " + cc.Server,
		PollInterval: cc.PollInterval.Duration,
	}, nil); err != nil {
		return err
	}

	p.Disconnect()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := p.Wait(waitCtx); err != nil {
		return fmt.Errorf("player did not stop: %w", err)
	}
	if p.State() == player.Error {
		return p.Err()
	}
	return nil
}

// runHeadless mirrors the info log to w until the session ends.
func runHeadless(ctx context.Context, w io.Writer, p *player.Player, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	info := p.Info()
	var version, seen uint64
	for {
		running := p.Running()
		if _, v, changed := info.TextSince(version); changed {
			version = v
			var lines []string
			lines, seen = info.LinesSince(seen)
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
		}
		if !running {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
