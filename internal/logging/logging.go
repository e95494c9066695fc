// Package logging configures the process-wide slog logger shared by the desktop app and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cislenka/go-horoscope/internal/config"
)

// Options selects where records go and how verbose they are.
type Options struct {
	// Console receives every record, typically os.Stdout for the GUI and os.Stderr for the CLI.
	Console io.Writer
	// FileName is created (truncated) in the user cache dir. Empty disables the file.
	FileName string
	// Debug lowers the level to Debug and adds source locations.
	Debug bool
	// Level is used when Debug is off.
	Level slog.Level
}

// Setup installs a JSON slog handler as the default logger and returns the log file, if any,
// so the caller can close it on exit.
func Setup(opts Options) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	if opts.FileName != "" {
		if logPath, err := FilePath(opts.FileName); err == nil {
			// O_TRUNC resets logs on restart to prevent indefinite growth.
			f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
			if err == nil {
				writers = append(writers, f)
				logFile = f
			} else {
				fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
			}
		}
	}

	level := opts.Level
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.Debug,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), handlerOpts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// FilePath returns name inside the platform cache directory of the app, creating the directory.
func FilePath(name string) (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, name), nil
}

// StartupInfo logs environment details useful for debugging.
func StartupInfo(component string) {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, component,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}
