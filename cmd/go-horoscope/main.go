// Command go-horoscope is the desktop client of the horoscope generation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/cislenka/go-horoscope/internal/logging"
	"github.com/cislenka/go-horoscope/internal/server"
	"github.com/cislenka/go-horoscope/internal/ui"
)

// main only converts the result of runMain into the process status,
// so that deferred cleanup in runMain always happens.
func main() {
	os.Exit(runMain())
}

// runMain owns the process lifecycle and returns the exit code.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. Flags
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	flag.Parse()

	if *showVersion {
		fmt.Printf(config.MsgVersionOutput, config.AppName, config.Version, runtime.GOOS, runtime.GOARCH)
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging
	// -------------------------------------------------------------------------
	// JSON records go to stdout and to a log file in the user cache dir,
	// which is truncated on every start.
	if logFile := logging.Setup(logging.Options{
		Console:  os.Stdout,
		FileName: config.LogFileName,
		Debug:    *debugMode,
		Level:    slog.LevelInfo,
	}); logFile != nil {
		defer func() { _ = logFile.Close() }()
	}
	logging.StartupInfo(config.CompMain)

	// -------------------------------------------------------------------------
	// 3. Context & Signals
	// -------------------------------------------------------------------------
	// SIGINT and SIGTERM cancel ctx, which quits the window loop.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -------------------------------------------------------------------------
	// 4. Application
	// -------------------------------------------------------------------------
	if err := run(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the object server and the form window, then blocks in the Fyne loop.
func run(ctx context.Context) error {
	// The app ID scopes Preferences, which hold the endpoint, user and default type.
	a := app.NewWithID(config.AppID)
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	// Generated PDFs are published on a loopback port picked at startup and
	// handed to the OS as one-shot URLs.
	srv := server.NewObjectServer(config.ObjectServerPort)
	gui := ui.NewHoroscopeApp(a, ctx, srv, engine.RealScheduler{})

	// Lifecycle bridge: a cancelled context closes the UI.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the main window is closed.
	gui.Run()
	return nil
}
