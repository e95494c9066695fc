package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	urlEntry   *widget.Entry
	userEntry  *widget.Entry
	passEntry  *widget.Entry
	typeSelect *widget.Select
}

// clientConfig returns the connection settings as currently typed, saved or not.
func (sw *settingsWidgets) clientConfig() engine.ClientConfig {
	return engine.ClientConfig{
		BaseURL:  strings.TrimSpace(sw.urlEntry.Text),
		Username: strings.TrimSpace(sw.userEntry.Text),
		Password: sw.passEntry.Text,
	}
}

// ShowSettingsWindow displays the configuration dialog for the service connection and defaults.
func (app *HoroscopeApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug("Settings window already open, requesting focus", config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgOpeningSettings, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	// --- Server Section ---
	itemURL := widget.NewFormItem(app.GetMsg(config.TKeyLblURL), sw.urlEntry)
	itemURL.HintText = app.GetMsg(config.TKeyHelpURL)
	itemUser := widget.NewFormItem(app.GetMsg(config.TKeyLblUser), sw.userEntry)
	itemPass := widget.NewFormItem(app.GetMsg(config.TKeyLblPass), sw.passEntry)

	btnTest := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnTest), theme.ViewRefreshIcon(), func() {
		cfg := sw.clientConfig()
		go func() { _ = app.checkHealth(app.Ctx, cfg) }()
	})

	serverCard := widget.NewCard(app.GetMsg(config.TKeyLblServer), "",
		container.NewVBox(widget.NewForm(itemURL, itemUser, itemPass), btnTest))

	// --- Defaults Section ---
	defaultsCard := widget.NewCard(app.GetMsg(config.TKeyLblDefaults), "",
		widget.NewForm(widget.NewFormItem(app.GetMsg(config.TKeyLblType), sw.typeSelect)))

	// --- Actions ---
	saveAction := func() {
		// The endpoint is the only field that blocks saving.
		if err := sw.urlEntry.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(sw)
		w.Close()
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	// --- Footer ---
	footerLabel := widget.NewLabel(app.Translate(config.TKeyLblFooter, map[string]interface{}{
		"App":     config.AppName,
		"Version": config.Version,
	}))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		serverCard,
		defaultsCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

// newSettingsWidgets creates the settings inputs pre-filled from preferences and the keyring.
func (app *HoroscopeApp) newSettingsWidgets() *settingsWidgets {
	sw := &settingsWidgets{}

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.SetText(app.Preferences.StringWithFallback(config.PrefEndpointURL, config.DefaultEndpoint))
	sw.urlEntry.PlaceHolder = config.PlaceholderURL
	sw.urlEntry.Validator = func(s string) error {
		if _, err := engine.ParseEndpoint(s); err != nil {
			return errors.New(app.GetMsg(config.TKeyErrURLInvalid))
		}
		return nil
	}

	sw.userEntry = widget.NewEntry()
	sw.userEntry.SetText(app.Preferences.String(config.PrefUsername))

	sw.passEntry = widget.NewPasswordEntry()
	// Attempt to pre-fill password from secure storage
	if user := sw.userEntry.Text; user != "" {
		if pwd, err := keyring.Get(config.KeyringService, user); err == nil {
			sw.passEntry.SetText(pwd)
		}
	}

	sw.typeSelect = widget.NewSelect([]string{
		app.typeLabel(engine.HoroscopeBasic),
		app.typeLabel(engine.HoroscopeProfi),
	}, nil)
	sw.typeSelect.SetSelected(app.typeLabel(app.defaultType()))

	return sw
}

// saveSettings persists the connection settings and applies the default type.
func (app *HoroscopeApp) saveSettings(sw *settingsWidgets) {
	slog.Info(config.MsgSavingPrefs, config.LogKeyComponent, config.CompUISet)

	cfg := sw.clientConfig()
	app.Preferences.SetString(config.PrefEndpointURL, cfg.BaseURL)
	app.Preferences.SetString(config.PrefUsername, cfg.Username)
	app.Preferences.SetString(config.PrefHoroscopeType, string(app.typeFromLabel(sw.typeSelect.Selected)))

	// Save password to Keyring only if provided
	if cfg.Username != "" && cfg.Password != "" {
		if err := keyring.Set(config.KeyringService, cfg.Username, cfg.Password); err != nil {
			slog.Error(config.ErrKeyringSave, config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
		}
	}

	app.applyDefaultType()
}

// checkHealth queries the service with cfg and reports the outcome as a notification.
func (app *HoroscopeApp) checkHealth(ctx context.Context, cfg engine.ClientConfig) error {
	err := engine.NewHTTPClient(cfg).Health(ctx)
	if err != nil {
		slog.Warn(config.MsgHealthFailed,
			config.LogKeyComponent, config.CompUISet,
			config.LogKeyError, err)
		app.Notifications.Enqueue(app.GetMsg(config.TKeyNotifHealthFail), engine.KindError)
		return err
	}

	slog.Info(config.MsgHealthOK, config.LogKeyComponent, config.CompUISet)
	app.Notifications.Enqueue(app.GetMsg(config.TKeyNotifHealthOK), engine.KindSuccess)
	return nil
}
