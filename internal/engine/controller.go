package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
)

// ErrSubmissionInFlight is returned by Submit and Reset while a request is outstanding.
var ErrSubmissionInFlight = errors.New(config.ErrInFlight)

// ValidationError reports a submission rejected before any request was sent.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(Fields))
	for _, f := range e.Result.InvalidFields() {
		fields = append(fields, f.String()+"="+string(e.Result.Get(f)))
	}
	return fmt.Sprintf("%s: %s", config.ErrValidation, strings.Join(fields, config.FieldListSeparator))
}

// Controller orchestrates one form: validation, the generation request, progress and notifications.
// It is safe for concurrent use; Submit blocks for the duration of the request and is
// normally called on its own goroutine by interactive front ends.
type Controller struct {
	Clock         Clock
	Generator     Generator
	Notifications *NotificationQueue
	Progress      *ProgressSimulator
	Artifacts     *ArtifactHandler
	Translate     Translator

	// DefaultType is restored by Reset.
	DefaultType HoroscopeType

	// pubMu serializes mutate+publish so listeners observe views in mutation order.
	pubMu sync.Mutex

	mu         sync.Mutex
	input      FormInput
	state      SubmissionState
	progress   float64
	validation ValidationResult
	errMsg     string
	artifact   *Artifact
	listeners  []func(View)
}

// NewController wires a controller with real time and a progress simulator driven by scheduler.
func NewController(gen Generator, notifications *NotificationQueue, scheduler Scheduler, artifacts *ArtifactHandler) *Controller {
	if notifications == nil {
		notifications = NewNotificationQueue(nil, scheduler)
	}
	c := &Controller{
		Clock:         RealClock{},
		Generator:     gen,
		Notifications: notifications,
		Artifacts:     artifacts,
		DefaultType:   config.DefaultHoroscopeType,
		input:         NewFormInput(),
	}
	c.Progress = NewProgressSimulator(scheduler, c.onProgress)
	return c
}

// OnChange registers fn to receive a View after every state change.
// fn runs synchronously on the mutating goroutine and must not call back into the controller.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// View returns the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// SetInput records the raw field values typed by the user.
func (c *Controller) SetInput(in FormInput) {
	c.update(func() { c.input = in })
}

// ValidateField re-validates a single field, typically when it loses focus.
// A rejected field also raises a short Warning notification.
func (c *Controller) ValidateField(f Field) FieldError {
	today := c.Clock.Now()

	var e FieldError
	c.update(func() {
		e = ValidateField(f, c.input, today)
		c.validation = c.validation.With(f, e)
	})

	if e != ErrNone {
		c.Notifications.Enqueue(FieldWarningText(c.Translate, f, e), KindWarning)
	}
	return e
}

// Submit validates in and, when valid, sends it to the generator and waits for the outcome.
// The returned error is informational: every failure is already reflected in the View
// and in a notification.
func (c *Controller) Submit(ctx context.Context, in FormInput) error {
	today := c.Clock.Now()

	c.pubMu.Lock()
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		c.pubMu.Unlock()
		slog.Warn(config.MsgSubmitBusy, config.LogKeyComponent, config.CompController)
		return ErrSubmissionInFlight
	}

	c.input = in
	result := Validate(in, today)
	c.validation = result
	if !result.Valid() {
		c.publishLocked()
		c.pubMu.Unlock()

		invalid := result.InvalidFields()
		slog.Info(config.MsgValidationFail,
			config.LogKeyComponent, config.CompController,
			config.LogKeyFields, fmt.Sprint(invalid))
		c.Notifications.Enqueue(c.missingFieldsMessage(invalid), KindWarning)
		return &ValidationError{Result: result}
	}

	trimmed := in.Trimmed()
	c.state = StateSubmitting
	c.progress = 0
	c.errMsg = ""
	c.artifact = nil
	c.publishLocked()
	c.pubMu.Unlock()

	slog.Info(config.MsgSubmitStart,
		config.LogKeyComponent, config.CompController,
		config.LogKeyType, string(trimmed.HoroscopeType))

	if dob, ok := ParseDOB(trimmed.DOB, today); ok {
		c.Notifications.Enqueue(c.zodiacMessage(dob, trimmed.DOB), KindInfo)
	}

	art, err := c.generate(ctx, trimmed)
	if err == nil && art == nil {
		err = errors.New(config.ErrNoArtifact)
	}
	if err != nil {
		c.fail(err)
		return err
	}
	c.succeed(art)
	return nil
}

// generate runs the request while the progress simulation is active.
// The simulation is stopped on every exit path before the caller settles the state.
func (c *Controller) generate(ctx context.Context, in FormInput) (*Artifact, error) {
	run := c.Progress.Start()
	defer c.Progress.Stop(run)

	if c.Generator == nil {
		return nil, errors.New(config.ErrEndpointEmpty)
	}
	return c.Generator.Generate(ctx, NewGenerateRequest(in))
}

func (c *Controller) succeed(art *Artifact) {
	c.update(func() {
		c.state = StateSuccess
		c.progress = config.ProgressComplete
		c.artifact = art
	})

	slog.Info(config.MsgSubmitSuccess,
		config.LogKeyComponent, config.CompController,
		config.LogKeySizeBytes, len(art.Data))
	c.Notifications.Enqueue(c.Translate.text(message{config.TKeyNotifSuccess, config.FallbackNotifSuccess}, nil), KindSuccess)
}

func (c *Controller) fail(err error) {
	msg := FailureMessage(c.Translate, err)
	c.update(func() {
		c.state = StateFailed
		c.errMsg = msg
	})

	slog.Error(config.MsgSubmitFailed,
		config.LogKeyComponent, config.CompController,
		config.LogKeyError, err)
	c.Notifications.Enqueue(msg, KindError)
}

// Reset returns the form to its initial empty state. It is refused while a request is outstanding.
func (c *Controller) Reset() error {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.input = FormInput{HoroscopeType: c.DefaultType}
	c.state = StateIdle
	c.progress = 0
	c.validation = ValidationResult{}
	c.errMsg = ""
	c.artifact = nil
	c.publishLocked()

	slog.Debug(config.MsgFormReset, config.LogKeyComponent, config.CompController)
	return nil
}

// Download hands the generated document to the artifact handler, named after the trimmed name.
func (c *Controller) Download() (string, error) {
	c.mu.Lock()
	art := c.artifact
	seed := strings.TrimSpace(c.input.Name)
	c.mu.Unlock()

	if c.Artifacts == nil {
		return "", errors.New(config.ErrSinkMissing)
	}
	return c.Artifacts.Download(art, seed)
}

// onProgress receives simulator ticks. Values arriving outside a submission are ignored.
func (c *Controller) onProgress(v float64) {
	c.update(func() {
		if c.state == StateSubmitting && v > c.progress {
			c.progress = v
		}
	})
}

func (c *Controller) missingFieldsMessage(fields []Field) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, FieldLabel(c.Translate, f))
	}
	list := strings.Join(labels, config.FieldListSeparator)
	return c.Translate.text(
		message{config.TKeyNotifMissing, fmt.Sprintf(config.FallbackNotifMissing, list)},
		map[string]interface{}{"Fields": list})
}

func (c *Controller) zodiacMessage(dob time.Time, raw string) string {
	sign := SignName(c.Translate, ZodiacSign(dob))
	number := AstrologicalNumber(raw)
	return c.Translate.text(
		message{config.TKeyNotifZodiac, fmt.Sprintf(config.FallbackNotifZodiac, sign, number)},
		map[string]interface{}{"Sign": sign, "Number": number})
}

// update applies mutate under the state lock and publishes the resulting view.
func (c *Controller) update(mutate func()) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	mutate()
	c.publishLocked()
}

// publishLocked releases c.mu and notifies listeners. The caller must hold pubMu and mu.
func (c *Controller) publishLocked() {
	view := c.viewLocked()
	listeners := make([]func(View), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
}

func (c *Controller) viewLocked() View {
	return View{
		Input:        c.input,
		State:        c.state,
		Progress:     c.progress,
		Validation:   c.validation,
		ErrorMessage: c.errMsg,
		HasArtifact:  c.artifact != nil,
	}
}
