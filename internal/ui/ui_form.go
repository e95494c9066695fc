package ui

import (
	"errors"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
)

// formWidgets holds references to the main window elements touched by render.
type formWidgets struct {
	name *FieldEntry
	dob  *FieldEntry
	code *FieldEntry

	nameErr *widget.Label
	dobErr  *widget.Label
	codeErr *widget.Label

	typeGroup *widget.RadioGroup

	status     *widget.Label
	errorLabel *widget.Label
	progress   *widget.ProgressBar

	submitBtn   *widget.Button
	resetBtn    *widget.Button
	downloadBtn *widget.Button
	importBtn   *widget.Button

	notifBox *fyne.Container
}

// ShowMainWindow displays the horoscope form. It implements a singleton pattern:
// if the window is already open, it requests focus.
func (app *HoroscopeApp) ShowMainWindow() {
	if app.Window != nil {
		app.Window.RequestFocus()
		return
	}

	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w
	w.SetContent(app.buildForm())
	w.Resize(fyne.NewSize(config.MainWindowWidth, config.MainWindowHeight))
	w.SetMaster()

	// Both publishers call back from arbitrary goroutines.
	app.Controller.OnChange(app.queueRender)
	app.Notifications.Subscribe(func(items []engine.Notification) {
		fyne.Do(func() { app.renderNotifications(items) })
	})

	app.render(app.Controller.View())
	app.renderNotifications(app.Notifications.Snapshot())
	w.Show()
}

func (app *HoroscopeApp) buildForm() fyne.CanvasObject {
	f := &formWidgets{}
	app.form = f

	f.name = NewFieldEntry()
	f.dob = NewDateEntry()
	f.dob.PlaceHolder = config.PlaceholderDOB
	f.code = NewFieldEntry()

	for field, entry := range map[engine.Field]*FieldEntry{
		engine.FieldName: f.name,
		engine.FieldDOB:  f.dob,
		engine.FieldCode: f.code,
	} {
		entry.OnChanged = func(string) { app.syncInput() }
		entry.OnFocusLost = func() { app.validateField(field) }
	}

	f.nameErr = newErrorLabel()
	f.dobErr = newErrorLabel()
	f.codeErr = newErrorLabel()

	f.typeGroup = widget.NewRadioGroup([]string{
		app.typeLabel(engine.HoroscopeBasic),
		app.typeLabel(engine.HoroscopeProfi),
	}, func(string) { app.syncInput() })
	f.typeGroup.Horizontal = true
	f.typeGroup.Required = true

	itemName := widget.NewFormItem(engine.FieldLabel(app.Translate, engine.FieldName), container.NewVBox(f.name, f.nameErr))
	itemDOB := widget.NewFormItem(engine.FieldLabel(app.Translate, engine.FieldDOB), container.NewVBox(f.dob, f.dobErr))
	itemDOB.HintText = app.GetMsg(config.TKeyHintDOB)
	itemCode := widget.NewFormItem(engine.FieldLabel(app.Translate, engine.FieldCode), container.NewVBox(f.code, f.codeErr))
	itemType := widget.NewFormItem(app.GetMsg(config.TKeyLblType), f.typeGroup)
	form := widget.NewForm(itemName, itemDOB, itemCode, itemType)

	f.status = widget.NewLabel("")
	f.status.TextStyle = fyne.TextStyle{Bold: true}
	f.errorLabel = newErrorLabel()
	f.progress = widget.NewProgressBar()
	f.progress.Max = config.ProgressComplete
	f.progress.Hide()

	f.submitBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSubmit), theme.ConfirmIcon(), func() {
		in := app.readForm()
		go app.submit(in)
	})
	f.submitBtn.Importance = widget.HighImportance
	f.resetBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnReset), theme.ContentClearIcon(), app.reset)
	f.downloadBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnDownload), theme.DownloadIcon(), app.download)
	f.downloadBtn.Importance = widget.SuccessImportance
	f.downloadBtn.Hide()

	f.importBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnImport), theme.FolderOpenIcon(), app.showImportDialog)
	settingsBtn := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSettings), theme.SettingsIcon(), app.ShowSettingsWindow)

	f.notifBox = container.NewVBox()

	content := container.NewVBox(
		container.NewHBox(f.importBtn, layout.NewSpacer(), settingsBtn),
		form,
		f.status,
		f.progress,
		f.errorLabel,
		container.NewGridWithColumns(config.LayoutColumnsDouble, f.resetBtn, f.submitBtn),
		f.downloadBtn,
		widget.NewSeparator(),
		f.notifBox,
	)
	return container.NewVScroll(container.NewPadded(content))
}

func newErrorLabel() *widget.Label {
	l := widget.NewLabel("")
	l.Importance = widget.DangerImportance
	l.Wrapping = fyne.TextWrapWord
	l.Hide()
	return l
}

// readForm collects the raw field values. Must run on the UI goroutine.
func (app *HoroscopeApp) readForm() engine.FormInput {
	f := app.form
	return engine.FormInput{
		Name:          f.name.Text,
		DOB:           f.dob.Text,
		Code:          f.code.Text,
		HoroscopeType: app.typeFromLabel(f.typeGroup.Selected),
	}
}

func (app *HoroscopeApp) syncInput() {
	if app.rendering || app.form == nil {
		return
	}
	app.Controller.SetInput(app.readForm())
}

func (app *HoroscopeApp) validateField(f engine.Field) {
	if app.rendering {
		return
	}
	app.Controller.ValidateField(f)
}

// submit blocks for the whole request. The outcome is already reflected in the
// View and the notifications, so the error is only logged.
func (app *HoroscopeApp) submit(in engine.FormInput) {
	if err := app.Controller.Submit(app.Ctx, in); err != nil {
		slog.Debug(config.MsgSubmitFailed,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
	}
}

func (app *HoroscopeApp) reset() {
	if err := app.Controller.Reset(); err != nil {
		slog.Debug(config.MsgSubmitBusy,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
	}
}

func (app *HoroscopeApp) download() {
	loc, err := app.Controller.Download()
	switch {
	case errors.Is(err, engine.ErrNoArtifact):
		// Logged by the handler, nothing to show.
	case err != nil:
		slog.Error(config.MsgDownloadFailed,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
		app.Notifications.Enqueue(app.GetMsg(config.TKeyErrDownload), engine.KindError)
	default:
		slog.Debug(config.MsgDownloadDone,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyURL, loc)
	}
}

// showImportDialog lets the user pick a contact file to prefill name and date of birth.
func (app *HoroscopeApp) showImportDialog() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			slog.Warn(config.MsgImportFailed,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err)
			return
		}
		if r == nil {
			return
		}
		defer func() { _ = r.Close() }()
		app.importContact(r)
	}, app.Window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard}))
	d.Show()
}

// importContact merges the first contact of r into the form. The access code is kept.
func (app *HoroscopeApp) importContact(r io.Reader) {
	contact, err := engine.ImportContact(r)
	if err != nil {
		slog.Warn(config.MsgImportFailed,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
		app.Notifications.Enqueue(app.GetMsg(config.TKeyNotifImportFail), engine.KindWarning)
		return
	}

	in := app.Controller.View().Input
	in.Name = contact.Name
	if contact.DOB != "" {
		in.DOB = contact.DOB
	}
	app.Controller.SetInput(in)

	app.Notifications.Enqueue(
		app.Translate(config.TKeyNotifImported, map[string]interface{}{"Name": contact.Name}),
		engine.KindInfo)
}

// queueRender records v as the latest View and schedules a render on the UI goroutine.
// Queued renders always draw the latest View, never the one that triggered them:
// a View from an earlier keystroke would otherwise overwrite newer entry text.
func (app *HoroscopeApp) queueRender(v engine.View) {
	app.viewMu.Lock()
	app.latestView = v
	app.viewMu.Unlock()
	fyne.Do(app.renderLatest)
}

func (app *HoroscopeApp) renderLatest() {
	app.viewMu.Lock()
	v := app.latestView
	app.viewMu.Unlock()
	app.render(v)
}

// render copies a View into the widgets. Must run on the UI goroutine.
func (app *HoroscopeApp) render(v engine.View) {
	f := app.form
	if f == nil {
		return
	}
	app.rendering = true
	defer func() { app.rendering = false }()

	setText(f.name, v.Input.Name)
	setText(f.dob, v.Input.DOB)
	setText(f.code, v.Input.Code)
	if label := app.typeLabel(v.Input.HoroscopeType); f.typeGroup.Selected != label {
		f.typeGroup.SetSelected(label)
	}

	app.renderFieldError(f.nameErr, engine.FieldName, v.Validation.Name)
	app.renderFieldError(f.dobErr, engine.FieldDOB, v.Validation.DOB)
	app.renderFieldError(f.codeErr, engine.FieldCode, v.Validation.Code)

	busy := v.State == engine.StateSubmitting
	for _, w := range []fyne.Disableable{f.name, f.dob, f.code, f.typeGroup, f.importBtn, f.submitBtn} {
		setEnabled(w, !busy)
	}
	setEnabled(f.resetBtn, v.State.IsSettled())

	f.status.SetText(app.statusText(v.State))

	f.progress.SetValue(v.Progress)
	setVisible(f.progress, busy || v.State == engine.StateSuccess)

	f.errorLabel.SetText(v.ErrorMessage)
	setVisible(f.errorLabel, v.State == engine.StateFailed && v.ErrorMessage != "")

	setVisible(f.downloadBtn, v.HasArtifact)
}

func (app *HoroscopeApp) renderFieldError(l *widget.Label, field engine.Field, e engine.FieldError) {
	l.SetText(engine.FieldErrorText(app.Translate, field, e))
	setVisible(l, e != engine.ErrNone)
}

// renderNotifications rebuilds the notification panel from a snapshot.
func (app *HoroscopeApp) renderNotifications(items []engine.Notification) {
	f := app.form
	if f == nil {
		return
	}

	rows := make([]fyne.CanvasObject, 0, len(items))
	for _, n := range items {
		id := n.ID
		msg := widget.NewLabel(n.Message)
		msg.Wrapping = fyne.TextWrapWord
		msg.Importance = importanceFor(n.Kind)

		closeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() { app.Notifications.Dismiss(id) })
		closeBtn.Importance = widget.LowImportance
		rows = append(rows, container.NewBorder(nil, nil, nil, closeBtn, msg))
	}

	f.notifBox.Objects = rows
	f.notifBox.Refresh()
}

func importanceFor(k engine.Kind) widget.Importance {
	switch k {
	case engine.KindSuccess:
		return widget.SuccessImportance
	case engine.KindError:
		return widget.DangerImportance
	case engine.KindWarning:
		return widget.WarningImportance
	default:
		return widget.MediumImportance
	}
}

func (app *HoroscopeApp) statusText(s engine.SubmissionState) string {
	switch s {
	case engine.StateSubmitting:
		return app.GetMsg(config.TKeyStatusBusy)
	case engine.StateSuccess:
		return app.GetMsg(config.TKeyStatusDone)
	case engine.StateFailed:
		return app.GetMsg(config.TKeyStatusFailed)
	default:
		return app.GetMsg(config.TKeyStatusIdle)
	}
}

func (app *HoroscopeApp) typeLabel(t engine.HoroscopeType) string {
	if t == engine.HoroscopeProfi {
		return app.GetMsg(config.TKeyTypeProfi)
	}
	return app.GetMsg(config.TKeyTypeBasic)
}

func (app *HoroscopeApp) typeFromLabel(label string) engine.HoroscopeType {
	if label == app.GetMsg(config.TKeyTypeProfi) {
		return engine.HoroscopeProfi
	}
	return engine.HoroscopeBasic
}

func setText(e *FieldEntry, s string) {
	if e.Text != s {
		e.SetText(s)
	}
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}
