package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/LFroesch/ferry/internal/config"
	"github.com/LFroesch/ferry/internal/coordinator"
	"github.com/LFroesch/ferry/internal/localfs"
	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/remote"
	"github.com/LFroesch/ferry/internal/session"
	"github.com/LFroesch/ferry/internal/telemetry"
	"github.com/LFroesch/ferry/internal/tui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	peer := flag.StringP("peer", "p", "", "host:port of a ferry peer to browse")
	serve := flag.Bool("serve", false, "serve this machine's drives to peers instead of browsing")
	listen := flag.StringP("listen", "l", "", "address to serve on (with --serve)")
	debug := flag.BoolP("debug", "d", false, "write debug lines to the log")
	flag.Parse()

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, logging disabled\n", err)
	}
	defer logger.Close()

	cfg := config.Load()
	if flag.CommandLine.Changed("peer") {
		cfg.PeerAddress = *peer
	}
	if flag.CommandLine.Changed("listen") {
		cfg.ListenAddress = *listen
	}
	logger.SetDebug(cfg.Debug || *debug)

	var err error
	if *serve {
		err = runServer(cfg)
	} else {
		err = runBrowser(cfg)
	}
	if err != nil {
		logger.Error("%v", err)
		logger.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := remote.Listen(cfg.ListenAddress, localfs.New(cfg.ShowHidden))
	if err != nil {
		return err
	}
	fmt.Printf("ferry serving on %s (ctrl+c to stop)\n", srv.Address())
	return srv.Serve(ctx)
}

func runBrowser(cfg *config.Config) error {
	ctx := context.Background()

	provider, err := telemetry.NewProvider(ctx)
	if err != nil {
		logger.Warn("Tracing disabled: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Trace shutdown: %v", err)
		}
	}()

	// A nil interface, not a nil *remote.Client, means no peer.
	var peer session.RemoteLister
	var peerHost string
	var peerLost <-chan struct{}
	if cfg.PeerAddress != "" {
		client, err := remote.Dial(ctx, cfg.PeerAddress, cfg.DialTimeout)
		if err != nil {
			logger.Warn("Browsing without a peer: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			defer client.Close()
			peer = client
			peerHost = client.Host()
			peerLost = client.Done()
		}
	}

	var program *tea.Program
	presenter := tui.NewPresenter()
	sess := session.New(localfs.New(cfg.ShowHidden), peer, func() {
		program.Quit()
	})
	defer sess.Close()

	c := coordinator.New(sess, presenter, coordinator.Options{
		Tracer:         provider.Tracer(),
		RequestTimeout: cfg.RequestTimeout,
	})
	sess.Attach(c)
	if peerLost != nil {
		sess.WatchPeer(peerLost, c)
	}

	model := tui.NewModel(c, tui.Options{PeerHost: peerHost})
	program = tea.NewProgram(model, tea.WithAltScreen())
	presenter.Bind(program)

	if err := c.Start(); err != nil {
		return err
	}
	defer c.Close()

	_, err = program.Run()
	c.HandleEvent(coordinator.Destroying{})
	return err
}
