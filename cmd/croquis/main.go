package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"croquis/internal/config"
	"croquis/internal/gui"
	"croquis/internal/resource"
	"croquis/internal/scan"
	"croquis/internal/service"
	"croquis/internal/session"
	"croquis/internal/slideshow"
	"croquis/internal/ui"

	"fyne.io/fyne/v2/app"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func cliLogger(msg string) {
	log.Printf("[croquis] %s", msg)
}

// Env is what every command works with, built once per invocation.
type Env struct {
	Config    config.Config
	Service   *service.Service
	Registry  *resource.Registry
	NewTicker func(time.Duration) slideshow.Ticker // nil means a real one-second ticker
}

// Close releases the locator store.
func (e *Env) Close() error {
	if e.Registry == nil {
		return nil
	}
	return e.Registry.Close()
}

// newEnv wires the service and locator registry for cfg.
func newEnv(cfg config.Config, logger func(string)) (*Env, error) {
	var store resource.Store
	switch cfg.LocatorStore {
	case config.StoreBolt:
		dir := cfg.StoreDir
		if dir == "" {
			dir = os.TempDir()
		}
		bs, err := resource.NewBoltStore(dir, resource.LoggerFunc(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open locator store: %w", err)
		}
		store = bs
	default:
		store = resource.NewMemoryStore()
	}
	return &Env{
		Config:   cfg,
		Service:  service.NewService(nil, logger),
		Registry: resource.NewRegistry(store, resource.LoggerFunc(logger)),
	}, nil
}

type rootOptions struct {
	configPath string
	draw       int
	breakSecs  int
	order      string
	store      string
	chunk      int
	flat       bool
}

// applyFlags layers explicitly set flags over the loaded config.
func (o *rootOptions) applyFlags(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("draw") {
		cfg.DrawSeconds = o.draw
	}
	if flags.Changed("break") {
		cfg.BreakSeconds = o.breakSecs
	}
	if flags.Changed("order") {
		mode, err := session.ParseOrderMode(o.order)
		if err != nil {
			return cfg, err
		}
		cfg.Order = mode
	}
	if flags.Changed("store") {
		cfg.LocatorStore = o.store
	}
	if flags.Changed("chunk") {
		cfg.ChunkSize = o.chunk
	}
	return cfg, cfg.Validate()
}

// NewRootCmd creates the root command. build turns the effective config into an Env; tests
// pass their own to swap the ticker or the store.
func NewRootCmd(build func(cfg config.Config, logger func(string)) (*Env, error)) *cobra.Command {
	opts := &rootOptions{}
	var env *Env

	rootCmd := &cobra.Command{
		Use:           "croquis",
		Short:         "Croquis - timed figure drawing sessions from a folder of images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			cfg, err = opts.applyFlags(cmd, cfg)
			if err != nil {
				return err
			}
			env, err = build(cfg, cliLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			return nil
		},
	}

	// withEnv closes the env when the command returns, failed or not.
	withEnv := func(run func(cmd *cobra.Command, env *Env, args []string, flat bool) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			defer env.Close()
			return run(cmd, env, args, opts.flat)
		}
	}

	scanCmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "List the images a session would show, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEnv(runScan),
	}
	rootCmd.AddCommand(scanCmd)

	playCmd := &cobra.Command{
		Use:   "play [path...]",
		Short: "Run a session without the interactive screen",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEnv(runPlay),
	}
	rootCmd.AddCommand(playCmd)

	runCmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Open the interactive session screen",
		RunE:  withEnv(runTUI),
	}
	rootCmd.AddCommand(runCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [path...]",
		Short: "Open the session window",
		RunE:  withEnv(runGUI),
	}
	rootCmd.AddCommand(guiCmd)

	configCmd := &cobra.Command{
		Use:   "config <path>",
		Short: "Write the effective settings to a YAML config file",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runConfig),
	}
	rootCmd.AddCommand(configCmd)

	defaults := config.Defaults()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	pf.IntVar(&opts.draw, "draw", defaults.DrawSeconds, "Seconds to draw each image (1-3600)")
	pf.IntVar(&opts.breakSecs, "break", defaults.BreakSeconds, "Seconds of break between images (0-600)")
	pf.StringVar(&opts.order, "order", defaults.Order.String(), "Session order: name or random")
	pf.StringVar(&opts.store, "store", defaults.LocatorStore, "Locator store: memory or bolt")
	pf.IntVar(&opts.chunk, "chunk", defaults.ChunkSize, "Directory entries read per batch")
	pf.BoolVar(&opts.flat, "flat", false, "Treat the paths as one flat file list")

	return rootCmd
}

func sourceOptions(env *Env, flat bool) service.SourceOptions {
	return service.SourceOptions{Flat: flat, Chunk: env.Config.ChunkSize, Logger: env.Service.Logger}
}

func controllerOptions(env *Env, extra ...slideshow.Option) []slideshow.Option {
	opts := []slideshow.Option{}
	if env.NewTicker != nil {
		opts = append(opts, slideshow.WithTicker(env.NewTicker))
	}
	return append(opts, extra...)
}

func runScan(cmd *cobra.Command, env *Env, args []string, flat bool) error {
	src, err := service.ResolveSource(args, sourceOptions(env, flat))
	if err != nil {
		return err
	}
	loaded, err := env.Service.Load(cmd.Context(), src)
	if err != nil {
		return err
	}
	items, err := env.Registry.Acquire(loaded.Files)
	if err != nil {
		return err
	}
	defer env.Registry.ReleaseAll(items)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d image(s), %d other file(s) skipped\n", loaded.FolderName, len(items), loaded.Skipped)
	if len(items) == 0 {
		fmt.Fprintln(out, "No image files found.")
		return nil
	}
	for i, it := range session.Build(items, env.Config.Order, nil) {
		fmt.Fprintf(out, "%4d  %s  %s\n", i+1, it.Name, it.File.Path)
	}
	return nil
}

func runPlay(cmd *cobra.Command, env *Env, args []string, flat bool) error {
	src, err := service.ResolveSource(args, sourceOptions(env, flat))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithCancel(cmd.Context())
	ctrl := slideshow.New(env.Service, env.Registry, controllerOptions(env, slideshow.WithLogger(cliLogger))...)
	go ctrl.Run(ctx)
	defer func() {
		cancel()
		<-ctrl.Done()
	}()

	if _, err := ctrl.SelectSource(src); err != nil {
		return err
	}

	last := session.State{Index: -1}
	for {
		select {
		case ev := <-ctrl.Events():
			switch ev := ev.(type) {
			case slideshow.SourceInstalled:
				fmt.Fprintf(out, "%s: %d image(s), draw %s, break %s, %s order\n", ev.FolderName, ev.Count,
					ui.FormatDuration(env.Config.DrawSeconds), ui.FormatDuration(env.Config.BreakSeconds), env.Config.Order)
				if _, err := ctrl.Start(env.Config.Timing(), env.Config.Order); err != nil {
					return err
				}
			case slideshow.NoImages:
				fmt.Fprintln(out, "No image files found.")
				return nil
			case slideshow.LoadFailed:
				return ev.Err
			case slideshow.StateChanged:
				printTransition(out, last, ev.Snapshot)
				last = ev.Snapshot.State
			case slideshow.Finished:
				fmt.Fprintln(out, "Session finished.")
				return nil
			case slideshow.PromptFolder:
				return errors.New("nothing to play")
			}
		case <-ctrl.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return slideshow.ErrClosed
		}
	}
}

// printTransition prints one line whenever the session moves to another phase or item.
func printTransition(out io.Writer, prev session.State, snap slideshow.Snapshot) {
	st := snap.State
	if !st.Phase.Running() || (st.Phase == prev.Phase && st.Index == prev.Index) {
		return
	}
	if st.Phase == session.PhaseBreak {
		fmt.Fprintf(out, "      break %s\n", ui.Clock(st.SecondsRemaining))
		return
	}
	name := ""
	if snap.Current != nil {
		name = snap.Current.Name
	}
	fmt.Fprintf(out, "[%d/%d] %s  %s\n", st.Index+1, st.QueueLen, name, ui.Clock(st.SecondsRemaining))
}

func runTUI(cmd *cobra.Command, env *Env, args []string, flat bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var p *tea.Program
	tuiLog := func(msg string) {
		if p != nil {
			p.Send(ui.LogMsg(msg))
		}
	}
	svc := service.NewService(env.Service.FileScan, tuiLog)
	ctrl := slideshow.New(svc, env.Registry, controllerOptions(env, slideshow.WithLogger(tuiLog))...)

	opts := sourceOptions(env, flat)
	opts.Logger = tuiLog
	resolve := func(paths []string) (scan.Source, error) {
		return service.ResolveSource(paths, opts)
	}

	// paths are resolved by the model once the program runs; Send blocks until then
	model := ui.NewModel(ctrl, resolve, env.Config.Timing(), env.Config.Order).OpenOnStart(args)
	p = tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	go ctrl.Run(ctx)
	defer func() {
		cancel()
		<-ctrl.Done()
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running session screen: %w", err)
	}
	return nil
}

func runGUI(cmd *cobra.Command, env *Env, args []string, flat bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fyApp := app.NewWithID("com.github.croquis")
	fyApp.Settings().SetTheme(gui.NewCompactTheme(fyApp.Settings().Theme()))

	var g *gui.App
	guiLog := func(msg string) {
		cliLogger(msg)
		if g != nil {
			g.Log(msg)
		}
	}
	svc := service.NewService(env.Service.FileScan, guiLog)
	ctrl := slideshow.New(svc, env.Registry, controllerOptions(env, slideshow.WithLogger(guiLog))...)

	opts := sourceOptions(env, flat)
	opts.Logger = guiLog
	resolve := func(paths []string) (scan.Source, error) {
		return service.ResolveSource(paths, opts)
	}

	g = gui.New(fyApp, ctrl, env.Registry, resolve, env.Config.Timing(), env.Config.Order)

	go ctrl.Run(ctx)
	defer func() {
		cancel()
		<-ctrl.Done()
	}()
	g.Listen()
	fyApp.Lifecycle().SetOnStarted(func() { g.SelectPaths(args) })

	g.ShowAndRun()
	return nil
}

func runConfig(cmd *cobra.Command, env *Env, args []string, _ bool) error {
	if err := env.Config.Save(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved settings to %s\n", args[0])
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd(newEnv)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
