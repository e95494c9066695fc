package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGenerator mocks the generation service.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req engine.GenerateRequest) (*engine.Artifact, error) {
	args := m.Called(ctx, req)
	if a := args.Get(0); a != nil {
		return a.(*engine.Artifact), args.Error(1)
	}
	return nil, args.Error(1)
}

type controllerFixture struct {
	ctrl  *engine.Controller
	queue *engine.NotificationQueue
	sched *engine.ManualScheduler
	sink  *recordingSink
}

func newFixture(gen engine.Generator) *controllerFixture {
	sched := engine.NewManualScheduler()
	queue := engine.NewNotificationQueue(&engine.Counter{}, sched)
	sink := &recordingSink{location: "file"}
	artifacts := &engine.ArtifactHandler{Clock: MockClock{CurrentTime: validationToday}, Sink: sink}

	ctrl := engine.NewController(gen, queue, sched, artifacts)
	ctrl.Clock = MockClock{CurrentTime: validationToday}
	return &controllerFixture{ctrl: ctrl, queue: queue, sched: sched, sink: sink}
}

func (f *controllerFixture) kinds() []engine.Kind {
	var out []engine.Kind
	for _, n := range f.queue.Snapshot() {
		out = append(out, n.Kind)
	}
	return out
}

func (f *controllerFixture) messages(kind engine.Kind) []string {
	var out []string
	for _, n := range f.queue.Snapshot() {
		if n.Kind == kind {
			out = append(out, n.Message)
		}
	}
	return out
}

func TestController_InvalidInputStaysIdle(t *testing.T) {
	gen := new(MockGenerator)
	f := newFixture(gen)

	err := f.ctrl.Submit(context.Background(), engine.FormInput{Name: " ", DOB: "31.04.2020", Code: "abc"})

	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, engine.ErrRequired, verr.Result.Name)
	assert.Equal(t, engine.ErrInvalidDate, verr.Result.DOB)

	view := f.ctrl.View()
	assert.Equal(t, engine.StateIdle, view.State)
	assert.Equal(t, verr.Result, view.Validation)

	warnings := f.messages(engine.KindWarning)
	require.Len(t, warnings, 1, "one combined warning")
	assert.Equal(t, "Prosím vyplňte povinná pole: Jméno, Datum narození", warnings[0])

	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.sched.Pending(), "only the warning expiry is scheduled")
}

func TestController_ServerErrorDetail(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, engine.GenerateRequest{
		Name: "Jana", DOB: "01.02.1990", Code: "abc", HoroscopeType: engine.HoroscopeBasic,
	}).Return(nil, &engine.APIError{
		StatusCode: 422,
		StatusText: "Unprocessable Entity",
		Body:       []byte(`{"detail":[{"msg":"bad date"}]}`),
	}).Once()

	f := newFixture(gen)
	err := f.ctrl.Submit(context.Background(), engine.FormInput{
		Name: "  Jana ", DOB: " 01.02.1990", Code: "abc  ", HoroscopeType: engine.HoroscopeBasic,
	})

	require.Error(t, err)
	gen.AssertExpectations(t)

	view := f.ctrl.View()
	assert.Equal(t, engine.StateFailed, view.State)
	assert.Equal(t, "bad date", view.ErrorMessage)
	assert.False(t, view.HasArtifact)
	assert.Less(t, view.Progress, config.ProgressComplete)
	assert.Equal(t, []string{"bad date"}, f.messages(engine.KindError))
	assert.Equal(t, len(f.queue.Snapshot()), f.sched.Pending(), "no progress timer left behind")
}

func TestController_Success(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(&engine.Artifact{Data: pdfBytes, ContentType: config.MimePDF}, nil).Once()

	f := newFixture(gen)
	var views []engine.View
	f.ctrl.OnChange(func(v engine.View) { views = append(views, v) })

	err := f.ctrl.Submit(context.Background(), validInput())
	require.NoError(t, err)

	view := f.ctrl.View()
	assert.Equal(t, engine.StateSuccess, view.State)
	assert.Equal(t, config.ProgressComplete, view.Progress)
	assert.True(t, view.HasArtifact)
	assert.Empty(t, view.ErrorMessage)

	assert.Len(t, f.messages(engine.KindSuccess), 1, "exactly one success notification")
	assert.Equal(t, []engine.Kind{engine.KindInfo, engine.KindSuccess}, f.kinds())

	require.GreaterOrEqual(t, len(views), 2)
	assert.Equal(t, engine.StateSubmitting, views[0].State)
	assert.Equal(t, engine.StateSuccess, views[len(views)-1].State)

	loc, err := f.ctrl.Download()
	require.NoError(t, err)
	assert.Equal(t, "file", loc)
	assert.Equal(t, []string{"horoscope_Jana_2024-06-15.pdf"}, f.sink.names)

	assert.Equal(t, len(f.queue.Snapshot()), f.sched.Pending(), "no progress timer left behind")
}

func TestController_ZodiacInfo(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&engine.Artifact{Data: pdfBytes}, nil)

	f := newFixture(gen)
	require.NoError(t, f.ctrl.Submit(context.Background(), validInput()))

	// 01.02.1990: Aquarius, digits sum to 22.
	assert.Equal(t,
		[]string{"Generuji horoskop pro znamení Vodnář (astrologické číslo 4)."},
		f.messages(engine.KindInfo))
}

func TestController_TransportErrorIsGeneric(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	f := newFixture(gen)
	err := f.ctrl.Submit(context.Background(), validInput())

	require.Error(t, err)
	view := f.ctrl.View()
	assert.Equal(t, engine.StateFailed, view.State)
	assert.Equal(t, config.FallbackErrUnknown, view.ErrorMessage)
	assert.Equal(t, len(f.queue.Snapshot()), f.sched.Pending(), "no progress timer left behind")
}

func TestController_ResetFromSettledStates(t *testing.T) {
	outcomes := map[string]func(*MockGenerator){
		"success": func(g *MockGenerator) {
			g.On("Generate", mock.Anything, mock.Anything).Return(&engine.Artifact{Data: pdfBytes}, nil)
		},
		"failure": func(g *MockGenerator) {
			g.On("Generate", mock.Anything, mock.Anything).Return(nil, &engine.APIError{StatusCode: 500})
		},
	}

	for name, setup := range outcomes {
		t.Run(name, func(t *testing.T) {
			gen := new(MockGenerator)
			setup(gen)
			f := newFixture(gen)
			_ = f.ctrl.Submit(context.Background(), validInput())
			require.True(t, f.ctrl.View().State.IsSettled())

			require.NoError(t, f.ctrl.Reset())

			view := f.ctrl.View()
			assert.Equal(t, engine.StateIdle, view.State)
			assert.Equal(t, engine.NewFormInput(), view.Input)
			assert.Zero(t, view.Progress)
			assert.False(t, view.HasArtifact)
			assert.Empty(t, view.ErrorMessage)
			assert.True(t, view.Validation.Valid())

			_, err := f.ctrl.Download()
			assert.ErrorIs(t, err, engine.ErrNoArtifact)
		})
	}
}

func TestController_DownloadWithoutArtifact(t *testing.T) {
	f := newFixture(new(MockGenerator))

	_, err := f.ctrl.Download()

	assert.ErrorIs(t, err, engine.ErrNoArtifact)
	assert.Empty(t, f.queue.Snapshot(), "nothing surfaced to the user")
}

// blockingGenerator holds the request open until released.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingGenerator) Generate(_ context.Context, _ engine.GenerateRequest) (*engine.Artifact, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	<-b.release
	return &engine.Artifact{Data: pdfBytes}, nil
}

func TestController_ProgressDuringFlight(t *testing.T) {
	gen := newBlockingGenerator()
	f := newFixture(gen)

	var mu sync.Mutex
	var progress []float64
	f.ctrl.OnChange(func(v engine.View) {
		if v.State == engine.StateSubmitting {
			mu.Lock()
			progress = append(progress, v.Progress)
			mu.Unlock()
		}
	})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Submit(context.Background(), validInput()) }()
	<-gen.started

	for i := 0; i < 200; i++ {
		f.sched.Advance(config.ProgressTickInterval)
	}

	mu.Lock()
	require.NotEmpty(t, progress)
	for i, p := range progress {
		assert.LessOrEqual(t, p, config.ProgressCeiling)
		if i > 0 {
			assert.GreaterOrEqual(t, p, progress[i-1], "progress must not decrease")
		}
	}
	mu.Unlock()

	assert.ErrorIs(t, f.ctrl.Submit(context.Background(), validInput()), engine.ErrSubmissionInFlight)
	assert.ErrorIs(t, f.ctrl.Reset(), engine.ErrSubmissionInFlight)

	close(gen.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, gen.calls, "exactly one request")
	assert.Equal(t, config.ProgressComplete, f.ctrl.View().Progress)
}

func TestController_ValidateField(t *testing.T) {
	f := newFixture(new(MockGenerator))
	f.ctrl.SetInput(engine.FormInput{Name: "J", DOB: "01.02.1990", Code: ""})

	assert.Equal(t, engine.ErrTooShort, f.ctrl.ValidateField(engine.FieldName))
	assert.Equal(t, engine.ErrNone, f.ctrl.ValidateField(engine.FieldDOB))
	assert.Equal(t, engine.ErrRequired, f.ctrl.ValidateField(engine.FieldCode))

	view := f.ctrl.View()
	assert.Equal(t, engine.ErrTooShort, view.Validation.Name)
	assert.Equal(t, engine.ErrNone, view.Validation.DOB)
	assert.Equal(t, engine.ErrRequired, view.Validation.Code)

	assert.Equal(t,
		[]string{config.FallbackWarnNameShort, config.FallbackWarnCodeRequired},
		f.messages(engine.KindWarning))
}

func TestController_NotificationsExpire(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&engine.Artifact{Data: pdfBytes}, nil)
	f := newFixture(gen)

	require.NoError(t, f.ctrl.Submit(context.Background(), validInput()))
	require.Len(t, f.queue.Snapshot(), 2)

	f.sched.Advance(config.NotifDurationSuccess + time.Millisecond)
	assert.Empty(t, f.queue.Snapshot())
}
