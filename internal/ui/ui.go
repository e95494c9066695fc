package ui

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/cislenka/go-horoscope/internal/server"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/zalando/go-keyring"
)

// HoroscopeApp encapsulates the UI state, preferences and the submission core.
type HoroscopeApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Server        *server.ObjectServer
	Controller    *engine.Controller
	Notifications *engine.NotificationQueue
	Scheduler     engine.Scheduler

	form           *formWidgets
	settingsWindow fyne.Window

	// rendering suppresses change callbacks while a View is copied into the widgets.
	rendering bool

	viewMu     sync.Mutex
	latestView engine.View
}

// NewHoroscopeApp constructs the application and wires dependencies.
// Generated documents are published on srv and opened through the OS URL handler.
func NewHoroscopeApp(a fyne.App, ctx context.Context, srv *server.ObjectServer, sched engine.Scheduler) *HoroscopeApp {
	if sched == nil {
		sched = engine.RealScheduler{}
	}

	// The notification queue and the controller share the scheduler, so tests
	// drive progress ticks and expiry timers from one virtual clock.
	app := &HoroscopeApp{
		App:           a,
		Preferences:   a.Preferences(),
		Ctx:           ctx,
		Server:        srv,
		Scheduler:     sched,
		Notifications: engine.NewNotificationQueue(nil, sched),
	}

	// Downloads go through the object server and open in the default PDF viewer.
	artifacts := engine.NewArtifactHandler(engine.NewObjectURLSink(srv, a, sched))
	app.Controller = engine.NewController(engine.GeneratorFunc(app.generate), app.Notifications, sched, artifacts)
	app.Controller.Translate = app.Translate

	// The stored default type preselects the form before the window exists.
	app.applyDefaultType()
	return app
}

// Run launches the object server and the main UI loop. It blocks until the app quits.
func (app *HoroscopeApp) Run() {
	// The catalog must be loaded before any widget text is built.
	app.SetupI18n()
	app.startServer()
	app.ShowMainWindow()

	// Blocks until the main window is closed.
	app.App.Run()

	// Pending expiry timers must not fire into a closed UI.
	app.Notifications.Close()
}

// startServer binds the object server synchronously so that the first download
// already has a URL, then serves on a background goroutine.
func (app *HoroscopeApp) startServer() {
	if err := app.Server.Listen(); err != nil {
		slog.Error(config.ErrServerStartup,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyErrServer)))
		return
	}

	go func() {
		if err := app.Server.Serve(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		}
	}()
}

// generate builds a client from the current preferences for every request,
// so settings changes apply without a restart.
func (app *HoroscopeApp) generate(ctx context.Context, req engine.GenerateRequest) (*engine.Artifact, error) {
	return engine.NewHTTPClient(app.loadClientConfig()).Generate(ctx, req)
}

// loadClientConfig maps Fyne preferences and the keyring password to the client settings.
func (app *HoroscopeApp) loadClientConfig() engine.ClientConfig {
	cfg := engine.ClientConfig{
		BaseURL:  app.Preferences.StringWithFallback(config.PrefEndpointURL, config.DefaultEndpoint),
		Username: app.Preferences.String(config.PrefUsername),
	}

	if cfg.Username != "" {
		pwd, err := keyring.Get(config.KeyringService, cfg.Username)
		if err != nil {
			slog.Debug(config.ErrPasswordNotFound,
				config.LogKeyUser, cfg.Username,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		} else {
			cfg.Password = pwd
		}
	}
	return cfg
}

// defaultType reads the preferred horoscope type, falling back to the built-in default.
func (app *HoroscopeApp) defaultType() engine.HoroscopeType {
	raw := app.Preferences.StringWithFallback(config.PrefHoroscopeType, config.DefaultHoroscopeType)
	t, err := engine.ParseHoroscopeType(raw)
	if err != nil {
		slog.Warn(config.ErrHoroscopeType,
			config.LogKeyValue, raw,
			config.LogKeyComponent, config.CompUI)
		return config.DefaultHoroscopeType
	}
	return t
}

// applyDefaultType makes the preferred type the one restored by Reset and,
// when the form is untouched, the current selection.
func (app *HoroscopeApp) applyDefaultType() {
	t := app.defaultType()
	app.Controller.DefaultType = t

	view := app.Controller.View()
	in := view.Input
	if view.State == engine.StateIdle && in.Name == "" && in.DOB == "" && in.Code == "" {
		in.HoroscopeType = t
		app.Controller.SetInput(in)
	}
}
