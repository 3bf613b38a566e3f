// Command fetch performs one mediated HTTP transfer and logs its events.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IvanTurko/httpmediator/config"
	"github.com/IvanTurko/httpmediator/engine"
	"github.com/IvanTurko/httpmediator/event"
	"github.com/IvanTurko/httpmediator/telemetry"
	"github.com/IvanTurko/httpmediator/transport"
	"github.com/IvanTurko/httpmediator/ws"
	"github.com/prometheus/client_golang/prometheus"
)

type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }

func (h *headerFlags) Set(v string) error {
	*h = append(*h, v)
	return nil
}

type options struct {
	configPath string
	method     string
	data       string
	output     string
	relayURL   string
	emitIO     bool
	headers    headerFlags
	url        string

	// set holds the names of flags given on the command line.
	set    map[string]bool
	logOut io.Writer
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		slog.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{set: map[string]bool{}, logOut: os.Stderr}
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "fetch.yaml", "path to the YAML config")
	fs.StringVar(&opts.method, "X", "", "request method (default GET, or POST with -d)")
	fs.StringVar(&opts.data, "d", "", "request body; @file reads it from a file")
	fs.StringVar(&opts.output, "o", "", "write the response body to this file instead of stdout")
	fs.StringVar(&opts.relayURL, "relay", "", "websocket URL events are relayed to")
	fs.BoolVar(&opts.emitIO, "emit-io", false, "dispatch read and write events")
	fs.Var(&opts.headers, "H", "request header 'Name: value' (repeatable)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("usage: fetch [flags] URL")
	}
	opts.url = fs.Arg(0)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.method == "" {
		opts.method = http.MethodGet
		if opts.data != "" {
			opts.method = http.MethodPost
		}
	}
	return opts, nil
}

func run(opts *options) error {
	cfg, err := config.LoadFile(opts.configPath, true)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level, opts.logOut)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Transfer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Transfer.Timeout)
		defer cancel()
	}

	bus := event.NewBus()
	bus.Subscribe(event.All, logListener(logger))

	metrics := telemetry.NewMetrics(prometheus.NewRegistry(), cfg.Telemetry.Namespace)
	bus.Subscribe(event.All, metrics)

	if cfg.Relay.URL != "" {
		relay := ws.NewRelay(cfg.Relay.URL,
			ws.WithLogger(slogAdapter{logger.With("component", "relay")}),
			ws.WithEncoding(ws.Encoding(cfg.Relay.Encoding)),
			ws.WithWriteTimeout(cfg.Relay.WriteTimeout),
		)
		if err := relay.Connect(ctx); err != nil {
			return err
		}
		defer relay.Close()
		bus.Subscribe(event.All, relay)
	}

	body, err := requestBody(opts.data)
	if err != nil {
		return err
	}
	if c, ok := body.(io.Closer); ok {
		defer c.Close()
	}

	req := transport.NewRequest(opts.method, opts.url, body).SetDispatcher(bus)
	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header %q", h)
		}
		req.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	req.SetResponseBody(out)

	client := engine.NewClient(
		engine.WithEmitIO(cfg.Transfer.EmitIO),
		engine.WithChunkSize(cfg.Transfer.ChunkSize),
		engine.WithLogger(slogAdapter{logger.With("component", "engine")}),
	)

	resp, err := client.Do(ctx, req)
	if err != nil {
		return err
	}

	snap, err := metrics.Snapshot()
	if err != nil {
		return err
	}
	logger.Info("transfer complete",
		"status", resp.StatusCode,
		"request_body_bytes", int64(snap.Uploaded),
		"response_body_bytes", int64(snap.Downloaded),
	)
	return nil
}

// applyFlags overrides cfg with the flags given on the command line and
// validates the result.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.set["emit-io"] {
		cfg.Transfer.EmitIO = opts.emitIO
	}
	if opts.set["relay"] {
		cfg.Relay.URL = opts.relayURL
	}
	return cfg.Validate()
}

// requestBody returns nil for an empty body, the file for @path, or the
// literal string.
func requestBody(data string) (io.Reader, error) {
	switch {
	case data == "":
		return nil, nil
	case strings.HasPrefix(data, "@"):
		f, err := os.Open(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return strings.NewReader(data), nil
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// logListener logs every event; byte chunks are logged by size only.
func logListener(logger *slog.Logger) event.Listener {
	return event.ListenerFunc(func(name string, payload event.Payload) {
		switch name {
		case event.Progress:
			info, ok := event.ProgressFrom(payload)
			if !ok {
				return
			}
			logger.Debug("progress",
				"downloaded", info.Downloaded,
				"download_size", info.DownloadSize,
				"download_ratio", info.DownloadRatio().String(),
				"uploaded", info.Uploaded,
				"upload_size", info.UploadSize,
				"upload_ratio", info.UploadRatio().String(),
			)
		case event.Read:
			chunk, _ := payload[event.KeyRead].([]byte)
			logger.Debug("request body chunk", "bytes", len(chunk))
		case event.Write:
			chunk, _ := payload[event.KeyWrite].([]byte)
			logger.Debug("response body chunk", "bytes", len(chunk))
		case event.StatusLine:
			logger.Info("status line", "line", payload[event.KeyLine])
		}
	})
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...))
}
