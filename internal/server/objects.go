package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/google/uuid"
)

// object is one document published under a transient URL.
type object struct {
	filename    string
	contentType string
	data        []byte
	onGone      []func()
}

// ObjectServer serves in-memory documents on the loopback interface under
// unguessable one-shot URLs. An object disappears after its first GET or when revoked.
type ObjectServer struct {
	Port string

	mu       sync.Mutex
	objects  map[string]*object
	listener net.Listener
	base     *url.URL
}

// NewObjectServer creates a server for the given port. "0" picks a free port.
func NewObjectServer(port string) *ObjectServer {
	return &ObjectServer{
		Port:    port,
		objects: make(map[string]*object),
	}
}

// Listen binds the loopback socket so that Create can hand out URLs before Serve runs.
func (s *ObjectServer) Listen() error {
	ln, err := net.Listen("tcp", config.LocalhostBindAddr+config.AddrSeparator+s.Port)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.base = &url.URL{Scheme: config.SchemeHTTP, Host: ln.Addr().String()}
	s.mu.Unlock()
	return nil
}

// Serve blocks until the context is cancelled, then shuts down gracefully.
func (s *ObjectServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln, base := s.listener, s.base
	s.mu.Unlock()
	if ln == nil {
		return errors.New(config.ErrServerNotReady)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, 1)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyURL, base.String(),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		s.revokeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Handler returns the HTTP handler serving object URLs.
func (s *ObjectServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteObjects, s.handleObject)
	return mux
}

// Create publishes data and returns its URL.
func (s *ObjectServer) Create(filename, contentType string, data []byte) (*url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		return nil, errors.New(config.ErrServerNotReady)
	}

	token := uuid.NewString()
	s.objects[token] = &object{filename: filename, contentType: contentType, data: data}

	u := s.base.JoinPath(config.RouteObjects, token)
	slog.Debug(config.MsgObjectCreated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFilename, filename,
		config.LogKeySizeBytes, len(data))
	return u, nil
}

// Revoke removes the object behind u. It reports whether the object was still live.
func (s *ObjectServer) Revoke(u *url.URL) bool {
	if u == nil {
		return false
	}
	token := tokenFromPath(u.Path)

	_, ok := s.remove(token)
	if ok {
		slog.Debug(config.MsgObjectRevoked, config.LogKeyComponent, config.CompServer)
	}
	return ok
}

// OnGone registers fn to run once the object behind u is consumed or revoked.
// fn runs immediately when the object no longer exists.
func (s *ObjectServer) OnGone(u *url.URL, fn func()) {
	if u == nil {
		fn()
		return
	}

	s.mu.Lock()
	obj, ok := s.objects[tokenFromPath(u.Path)]
	if ok {
		obj.onGone = append(obj.onGone, fn)
	}
	s.mu.Unlock()

	if !ok {
		fn()
	}
}

// remove deletes the object and runs its callbacks outside the lock.
func (s *ObjectServer) remove(token string) (*object, bool) {
	s.mu.Lock()
	obj, ok := s.objects[token]
	delete(s.objects, token)
	s.mu.Unlock()

	if ok {
		for _, fn := range obj.onGone {
			fn()
		}
	}
	return obj, ok
}

// Len returns the number of live objects.
func (s *ObjectServer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *ObjectServer) revokeAll() {
	s.mu.Lock()
	var callbacks []func()
	for _, obj := range s.objects {
		callbacks = append(callbacks, obj.onGone...)
	}
	clear(s.objects)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// handleObject serves one object. GET consumes it, HEAD only inspects it.
func (s *ObjectServer) handleObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	token := tokenFromPath(r.URL.Path)

	var obj *object
	var ok bool
	if r.Method == http.MethodGet {
		obj, ok = s.remove(token)
	} else {
		s.mu.Lock()
		obj, ok = s.objects[token]
		s.mu.Unlock()
	}

	if !ok {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set(config.HeaderContentType, obj.contentType)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlNone)
	w.Header().Set(config.HeaderContentDisposition, fmt.Sprintf(config.FormatAttachment, url.PathEscape(obj.filename)))
	w.Header().Set(config.HeaderContentLength, strconv.Itoa(len(obj.data)))

	if r.Method != http.MethodGet {
		return
	}

	if _, err := io.Copy(w, bytes.NewReader(obj.data)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		return
	}
	slog.Info(config.MsgObjectServed,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFilename, obj.filename)
}

func tokenFromPath(p string) string {
	return strings.TrimPrefix(p, config.RouteObjects)
}
