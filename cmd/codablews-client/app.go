package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BobCatC/CodableWebsocket/pkg/config"
	"github.com/BobCatC/CodableWebsocket/pkg/observability"
	"github.com/BobCatC/CodableWebsocket/pkg/socket"
)

// Message is any object the configured codec can carry.
type Message map[string]any

func run(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, opts)

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(cfg.AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	var metrics *observability.Metrics
	mctx, stopMetrics := context.WithCancel(gctx)
	defer stopMetrics()
	if cfg.Metrics.Enable {
		reg := prometheus.NewRegistry()
		if metrics, err = observability.NewMetrics(reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		serveMetrics(mctx, g, cfg.Metrics.Listen, reg, logger)
	}

	sopts, err := socketOptions(cfg.Socket, logger, metrics)
	if err != nil {
		return err
	}
	a, err := socket.Dial[Message](gctx, cfg.Socket.URL, sopts...)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	outcomes := a.Outcomes(gctx, cfg.Socket.Buffer)
	received := make(chan struct{}, 1)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		defer stopMetrics()
		for o := range outcomes.C() {
			printOutcome(out, o)
			select {
			case received <- struct{}{}:
			default:
			}
		}
		if err := outcomes.Err(); err != nil && !errors.Is(err, socket.ErrConnectionClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		defer func() { _ = a.Close() }()
		if opts.Once != "" {
			if err := sendLine(gctx, a, opts.Once); err != nil {
				return err
			}
			select {
			case <-received:
			case <-done:
			case <-gctx.Done():
			}
			return nil
		}
		stop := make(chan struct{})
		defer close(stop)
		lines, scanErr := readLines(in, stop)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-done:
				return nil
			case line, ok := <-lines:
				if !ok {
					return <-scanErr
				}
				err := sendLine(gctx, a, line)
				if errors.Is(err, socket.ErrEncode) {
					logger.Warn("line skipped", zap.Error(err))
					continue
				}
				if err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.URL != "" {
		cfg.Socket.URL = opts.URL
	}
	if opts.Transport != "" {
		cfg.Socket.Transport = opts.Transport
	}
	if opts.Codec != "" {
		cfg.Socket.Codec = opts.Codec
	}
	if opts.TypedAsText {
		cfg.Socket.TypedAsText = true
	}
}

// readLines scans non-empty lines from r until stop is closed. Reads from
// stdin cannot be interrupted, so the scanner runs outside the errgroup and
// exits at its next line once stopped.
func readLines(r io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

// sendLine sends a JSON object as a typed value and anything else as text.
func sendLine(ctx context.Context, a *socket.Adapter[Message], line string) error {
	var m Message
	if err := json.Unmarshal([]byte(line), &m); err == nil && m != nil {
		return a.SendValue(ctx, m)
	}
	return a.SendText(ctx, line)
}

func printOutcome(w io.Writer, o socket.Outcome[Message]) {
	it, ok := o.Item()
	if !ok {
		fmt.Fprintf(w, "error %v\n", o.Err())
		return
	}
	switch it.Kind() {
	case socket.ItemTyped:
		v, _ := it.Typed()
		b, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(w, "typed %v\n", v)
			return
		}
		fmt.Fprintf(w, "typed %s\n", b)
	case socket.ItemText:
		s, _ := it.Text()
		fmt.Fprintf(w, "text %s\n", s)
	case socket.ItemRaw:
		b, _ := it.Raw()
		fmt.Fprintf(w, "raw %d %s\n", len(b), hex.EncodeToString(b))
	}
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	g.Go(func() error {
		logger.Info("metrics listening", zap.String("listen", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
}
