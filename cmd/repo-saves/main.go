// Package main is the entry point for the repo-saves application.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/worker/v4"
	"github.com/spf13/afero"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/repo-saves/internal/cli"
	"github.com/joe/repo-saves/internal/config"
	"github.com/joe/repo-saves/internal/controller"
	"github.com/joe/repo-saves/internal/logging"
	"github.com/joe/repo-saves/internal/platform"
	"github.com/joe/repo-saves/internal/settings"
	"github.com/joe/repo-saves/internal/state"
	"github.com/joe/repo-saves/internal/syncengine"
	"github.com/joe/repo-saves/internal/tui"
	"github.com/joe/repo-saves/internal/watch"
	"github.com/joe/repo-saves/pkg/filesystem"
)

var logger = loggo.GetLogger("repo-saves")

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	env := platform.OSEnv{}
	paths := platform.Current(env)
	appDir := platform.AppDataDir(paths)
	osFs := afero.NewOsFs()

	closer, err := setupLogging(cfg, appDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	settingsStore := settings.NewStore(osFs, settingsPath(cfg, appDir))
	saveDir, backupDir := directories(cfg, settingsStore, osFs, paths, env)

	resolver := filesystem.NewResolver(osFs)
	defer resolver.Close()

	engine := syncengine.NewEngine()
	engine.Verify = cfg.Verify

	appState := state.NewStore(saveDir, backupDir)
	queue := controller.NewQueue()

	ctlConfig := controller.Config{
		Store:    appState,
		Queue:    queue,
		Engine:   engine,
		Resolver: resolver,
		Settings: settingsStore,
	}

	if cfg.Watch {
		watcher, err := watch.New(watch.Config{
			Clock:    clock.WallClock,
			Debounce: watch.DefaultDebounce,
			Notify:   func() { queue.Send(controller.Refresh{}) },
		})
		if err != nil {
			logger.Warningf("not watching for changes: %v", err)
		} else {
			defer func() { _ = worker.Stop(watcher) }()

			watcher.Watch(saveDir, backupDir)
			ctlConfig.Watcher = watcher
		}
	}

	ctl, err := controller.New(ctlConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	defer func() {
		queue.Send(controller.Exit{})

		if err := ctl.Wait(); err != nil { //nolint:noinlineerr // Shutdown path
			logger.Errorf("controller: %v", err)
		}
	}()

	queue.Send(controller.Refresh{})

	if cfg.Interactive() {
		err = runTUI(appState, queue, osFs)
	} else {
		err = runCLI(cfg, appState, queue, ctl)
	}

	if err != nil {
		// Failed operations were already reported by the console log writer.
		var opErr state.OperationError
		if !errors.As(err, &opErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		return 1
	}

	return 0
}

func setupLogging(cfg *config.Config, appDir string) (io.Closer, error) {
	opts := logging.Options{
		File:  cfg.LogFile,
		Level: cfg.LogLevel,
	}

	if opts.File == "" && appDir != "" {
		opts.File = filepath.Join(appDir, logging.DefaultFileName)
	}

	if !cfg.Interactive() {
		opts.Console = os.Stderr
	}

	return logging.Setup(opts)
}

func settingsPath(cfg *config.Config, appDir string) string {
	if cfg.Settings != "" {
		return cfg.Settings
	}

	return filepath.Join(appDir, settings.FileName)
}

// directories picks the save and backup directories: flags first, then the
// settings file, then platform defaults. The result is written back so the
// next start uses it.
func directories(cfg *config.Config, store *settings.Store, fsys afero.Fs, paths platform.Paths, env platform.Env) (string, string) {
	saved, err := store.Load()
	if err != nil {
		logger.Warningf("ignoring settings: %v", err)
	}

	saveDir := firstNonEmpty(cfg.SaveDir, saved.SaveDirectory)
	if saveDir == "" {
		if found, ok := platform.DefaultSaveDir(fsys, paths); ok {
			saveDir = found
		} else {
			logger.Warningf("no game save directory found; set one with --save-dir or the s key")
		}
	}

	backupDir := firstNonEmpty(cfg.BackupDir, saved.BackupDirectory, platform.DefaultBackupDir(paths, env))

	if saveDir != saved.SaveDirectory || backupDir != saved.BackupDirectory {
		err = store.Update(func(s *settings.AppSettings) {
			s.SaveDirectory = saveDir
			s.BackupDirectory = backupDir
		})
		if err != nil {
			logger.Warningf("cannot persist settings: %v", err)
		}
	}

	return saveDir, backupDir
}

func runTUI(reader state.Reader, events tui.Sender, fsys afero.Fs) error {
	model := tui.NewAppModel(reader, events, fsys)

	var opts []tea.ProgramOption
	if term.IsTerminal(int(os.Stdout.Fd())) {
		opts = append(opts, tea.WithAltScreen())
	}

	_, err := tui.NewProgram(model, opts...).Run()

	return errors.Trace(err)
}

func runCLI(cfg *config.Config, reader state.Reader, events cli.Sender, ctl *controller.Controller) error {
	var prompt cli.PromptFn
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prompt = cli.HuhPrompt
	}

	runner := cli.New(cli.Params{
		Reader:   reader,
		Events:   events,
		Dead:     ctl.Dead(),
		W:        os.Stdout,
		PromptFn: prompt,
	})

	return runner.Run(cfg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
