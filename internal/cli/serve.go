package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/server"
	"github.com/roach88/complications/internal/store"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	Database   string
	Tuning     string
	SpawnEvery time.Duration
	Seed       uint64
	Tick       time.Duration

	// ServerSeed switches puzzle and spawn randomness to the HMAC stream
	// derived from ServerSeed, ClientSeed and Nonce, so a session can be
	// replayed from its published seeds.
	ServerSeed string
	ClientSeed string
	Nonce      uint64

	// OnListen is called with the bound address once the listener is up
	// (for testing).
	OnListen func(addr net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console over HTTP and websocket",
		Long: `Start the console loop, the complication spawner and the HTTP API.

The console advances its logical clock from wall time on every tick.
Clients receive views and send input over /ws; upgrades, manual spawns
and resolution history live under /api/v1. With --db, upgrade flags and
resolutions are saved to SQLite and upgrade flags are restored on start.

Examples:
  complications serve
  complications serve --addr :9000 --db ./save.db
  complications serve --spawn-every 0 --seed 42 --tuning ./tuning.cue
  complications serve --server-seed s3cret --client-seed alice --nonce 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			return runServe(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite save file (no persistence when empty)")
	cmd.Flags().StringVar(&opts.Tuning, "tuning", "", "tuning file (.yaml, .yml or .cue)")
	cmd.Flags().DurationVar(&opts.SpawnEvery, "spawn-every", 20*time.Second, "complication spawn interval (0 disables spawning)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "puzzle randomness seed (random when unset)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", console.DefaultTick, "console clock tick")
	cmd.Flags().StringVar(&opts.ServerSeed, "server-seed", "", "HMAC server seed (overrides --seed)")
	cmd.Flags().StringVar(&opts.ClientSeed, "client-seed", "", "HMAC client seed (requires --server-seed)")
	cmd.Flags().Uint64Var(&opts.Nonce, "nonce", 0, "HMAC nonce; the spawner uses nonce+1")

	return cmd
}

func runServe(parent context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	puzzleRand, spawnRand, err := randomSources(opts)
	if err != nil {
		return err
	}

	tuning, err := loadTuning(opts.Tuning)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load tuning", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var st *store.Store
	maxed := complication.MaxedSet{}
	if opts.Database != "" {
		logger.Info("opening save store", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		maxed, err = st.Maxed(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read upgrades", err)
		}
	}

	board := complication.NewBoard(complication.UUIDv7Generator{})
	c := console.New(console.Options{
		Tuning:   tuning,
		Rand:     puzzleRand,
		Resolver: board,
		Logger:   logger,
	})
	for _, t := range maxed.Sorted() {
		c.SetMaxed(t, true)
	}
	c.OnFailure(func(f puzzle.Failure) {
		logger.Debug("puzzle failure", "type", f.Type, "id", f.ID, "detail", f.Detail, "at", f.At)
	})
	if st != nil {
		board.OnResolve(server.RecordResolutions(st, c.Scheduler().Now, logger))
	}
	board.OnResolve(func(r complication.Complication) {
		logger.Info("complication resolved", "type", r.Type, "id", r.ID)
	})

	loop := console.NewLoop(c, board, console.WithTick(opts.Tick), console.WithLogger(logger))
	spawner := complication.NewSpawner(board, opts.SpawnEvery, spawnRand, logger)
	httpSrv := &http.Server{
		Handler:           server.New(loop, board, st, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("console loop stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := spawner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("spawner stopped", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(ln)
	}()

	logger.Info("server listening", "addr", ln.Addr().String(), "seed", opts.Seed, "hmac", opts.ServerSeed != "", "spawn_every", opts.SpawnEvery, "store", st != nil)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
	if opts.OnListen != nil {
		opts.OnListen(ln.Addr())
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = WrapExitError(ExitFailure, "server error", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	cancel()
	wg.Wait()

	logger.Info("server stopped", slog.Int("active", len(board.Snapshot())))
	return runErr
}

// randomSources returns the puzzle and spawner sources. With a server seed
// both are HMAC streams on consecutive nonces; otherwise both are seeded
// from Seed.
func randomSources(opts *ServeOptions) (puzzleSrc, spawnSrc rng.Source, err error) {
	if opts.ServerSeed == "" {
		if opts.ClientSeed != "" {
			return nil, nil, NewExitError(ExitCommandError, "--client-seed requires --server-seed")
		}
		return rng.NewSeeded(opts.Seed), rng.NewSeeded(opts.Seed + 1), nil
	}
	return rng.NewHMAC(opts.ServerSeed, opts.ClientSeed, opts.Nonce),
		rng.NewHMAC(opts.ServerSeed, opts.ClientSeed, opts.Nonce+1), nil
}
