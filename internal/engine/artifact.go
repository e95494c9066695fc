package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
)

// ErrNoArtifact is returned when a download is requested before any document was generated.
var ErrNoArtifact = errors.New(config.ErrNoArtifact)

// ArtifactSink delivers a named document to the user and returns where it went.
type ArtifactSink interface {
	Deliver(filename string, a *Artifact) (string, error)
}

// ArtifactHandler names generated documents and hands them to a sink.
type ArtifactHandler struct {
	Clock Clock
	Sink  ArtifactSink
}

// NewArtifactHandler creates a handler stamping filenames with the real clock.
func NewArtifactHandler(sink ArtifactSink) *ArtifactHandler {
	return &ArtifactHandler{Clock: RealClock{}, Sink: sink}
}

// Download offers the document under a filename derived from seed and today's date.
// A nil artifact is a caller bug: it is logged and reported as ErrNoArtifact.
func (h *ArtifactHandler) Download(a *Artifact, seed string) (string, error) {
	if a == nil {
		slog.Warn(config.MsgDownloadNone, config.LogKeyComponent, config.CompArtifact)
		return "", ErrNoArtifact
	}
	if h.Sink == nil {
		return "", errors.New(config.ErrSinkMissing)
	}

	filename := ArtifactFilename(seed, h.Clock.Now())
	location, err := h.Sink.Deliver(filename, a)
	if err != nil {
		return "", err
	}

	slog.Info(config.MsgDownloadDone,
		config.LogKeyComponent, config.CompArtifact,
		config.LogKeyFilename, filename,
		config.LogKeySizeBytes, len(a.Data))
	return location, nil
}

// ArtifactFilename builds "horoscope_<seed>_<YYYY-MM-DD>.pdf". Path separators in
// seed are replaced so the name always stays a single path element.
func ArtifactFilename(seed string, now time.Time) string {
	seed = strings.TrimSpace(seed)
	seed = strings.NewReplacer("/", config.FilenameReplaceSep, `\`, config.FilenameReplaceSep).Replace(seed)
	return fmt.Sprintf(config.FormatArtifactName, seed, now.Format(config.DateFormatFilename))
}

// ObjectStore issues transient URLs for in-memory documents.
type ObjectStore interface {
	Create(filename, contentType string, data []byte) (*url.URL, error)
	Revoke(u *url.URL) bool
}

// GoneNotifier is implemented by stores that drop objects on their own, for example
// after the first retrieval. fn runs once when the object behind u is gone, or at once
// if it is already gone.
type GoneNotifier interface {
	OnGone(u *url.URL, fn func())
}

// URLOpener hands a URL to the operating system. fyne.App satisfies it.
type URLOpener interface {
	OpenURL(u *url.URL) error
}

// ObjectURLSink publishes the document as a one-shot object URL and opens it.
// The URL is revoked after its first retrieval by the store, or after TTL at the latest.
type ObjectURLSink struct {
	Store     ObjectStore
	Opener    URLOpener
	Scheduler Scheduler
	TTL       time.Duration
}

// NewObjectURLSink creates a sink with the default object URL lifetime.
func NewObjectURLSink(store ObjectStore, opener URLOpener, scheduler Scheduler) *ObjectURLSink {
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	return &ObjectURLSink{
		Store:     store,
		Opener:    opener,
		Scheduler: scheduler,
		TTL:       config.ObjectURLTTL,
	}
}

func (s *ObjectURLSink) Deliver(filename string, a *Artifact) (string, error) {
	u, err := s.Store.Create(filename, a.ContentType, a.Data)
	if err != nil {
		return "", err
	}

	// The TTL timer is cancelled as soon as the store drops the object itself.
	ttl := &revokeTimer{}
	if n, ok := s.Store.(GoneNotifier); ok {
		n.OnGone(u, ttl.stop)
	}

	if err := s.Opener.OpenURL(u); err != nil {
		s.Store.Revoke(u)
		return "", fmt.Errorf("%s: %w", config.ErrOpenURL, err)
	}

	ttl.set(s.Scheduler.AfterFunc(s.TTL, func() { s.Store.Revoke(u) }))
	return u.String(), nil
}

// revokeTimer holds the TTL handle of one object URL. stop may run before set,
// when the object is fetched while the URL is still being opened.
type revokeTimer struct {
	mu      sync.Mutex
	handle  Handle
	stopped bool
}

func (t *revokeTimer) set(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		h.Stop()
		return
	}
	t.handle = h
}

func (t *revokeTimer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.handle != nil {
		t.handle.Stop()
	}
}

// DirSink writes documents into a directory on disk.
type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(filename string, a *Artifact) (string, error) {
	if err := os.MkdirAll(s.Dir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrOutputDir, err)
	}

	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, a.Data, config.FilePermUserRW); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrSaveArtifact, err)
	}
	return path, nil
}
