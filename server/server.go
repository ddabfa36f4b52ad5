// Package server is the render server's HTTP job service. It accepts skybox requests, queues them
// for the render loop and reports their completion by polling or over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/engine/imageio"
	"github.com/Carmen-Shannon/universe/engine/task"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
)

// Server exposes the job queue over HTTP.
type Server interface {
	// Handler returns the routes, for embedding or tests.
	//
	// Returns:
	//   - http.Handler: the router
	Handler() http.Handler

	// Serve accepts connections on l until Shutdown.
	//
	// Parameters:
	//   - l: the listener
	//
	// Returns:
	//   - error: nil after Shutdown, otherwise the serve error
	Serve(l net.Listener) error

	// Shutdown stops accepting requests, ends websocket streams and waits for active requests.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the context error if the wait timed out
	Shutdown(ctx context.Context) error

	// SetReady sets the readiness reported by /job/status.json.
	//
	// Parameters:
	//   - ready: true once the render loop is running
	SetReady(ready bool)

	// Results returns the store of completed jobs.
	//
	// Returns:
	//   - *ResultStore: the store
	Results() *ResultStore

	// Addr returns the configured listen address.
	//
	// Returns:
	//   - string: host:port
	Addr() string
}

type server struct {
	queue   *task.Queue
	running *atomic.Bool
	ready   atomic.Bool
	nextID  atomic.Uint64

	addr        string
	defaultName string
	command     string
	streamBuf   int

	results  *ResultStore
	http     *http.Server
	upgrader websocket.Upgrader
	quitOnce sync.Once
}

var _ Server = &server{}

// New creates the job service. Nothing listens until Serve.
//
// Parameters:
//   - q: the queue drained by the render loop
//   - running: cleared by POST /job/quit
//   - options: functional options to configure the server
//
// Returns:
//   - Server: the server
func New(q *task.Queue, running *atomic.Bool, options ...ServerBuilderOption) Server {
	if q == nil || running == nil {
		panic("server: queue and running flag are required")
	}
	s := &server{
		queue:       q,
		running:     running,
		addr:        "localhost:8001",
		defaultName: "skybox.qoi",
		command:     strings.Join(os.Args, " "),
		streamBuf:   64,
		results:     NewResultStore(),
	}
	for _, opt := range options {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /job/attach.json", s.handleAttach)
	mux.HandleFunc("GET /job/status.json", s.handleStatus)
	mux.HandleFunc("POST /job/quit", s.handleQuit)
	mux.HandleFunc("POST /skybox", s.handleSkybox)
	mux.HandleFunc("GET /tasks/poll", s.handlePoll)
	mux.HandleFunc("GET /tasks/listen", s.handleListen)
	mux.HandleFunc("GET /ping", s.handlePing)

	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *server) Handler() http.Handler {
	return s.http.Handler
}

func (s *server) Addr() string {
	return s.addr
}

func (s *server) Results() *ResultStore {
	return s.results
}

func (s *server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *server) Serve(l net.Listener) error {
	common.Logger().Info("job service listening", "addr", l.Addr().String())
	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Shutdown(ctx context.Context) error {
	s.results.Close()
	return s.http.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.Logger().Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type attachResponse struct {
	Pid     int    `json:"pid"`
	Command string `json:"command"`
}

func (s *server) handleAttach(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, attachResponse{Pid: os.Getpid(), Command: s.command})
}

type statusResponse struct {
	Ready bool `json:"ready"`
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Ready: s.ready.Load() && s.running.Load()})
}

// handleQuit clears the running flag and shuts the service down after the response is sent.
func (s *server) handleQuit(w http.ResponseWriter, _ *http.Request) {
	s.quitOnce.Do(func() {
		common.Logger().Info("quit requested")
		s.running.Store(false)
		s.ready.Store(false)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				common.Logger().Warn("job service shutdown", "error", err)
			}
		}()
	})
	writeJSON(w, http.StatusOK, struct{}{})
}

type skyboxRequest struct {
	Position []float64 `json:"position"`
	DestPath string    `json:"dest_path"`
}

type skyboxResponse struct {
	TaskID  uint64 `json:"task_id"`
	AssetID string `json:"asset_id"`
}

// ErrBadPosition is returned for positions that are not three finite numbers.
var ErrBadPosition = errors.New("position must be three finite numbers")

func parsePosition(p []float64) (mgl32.Vec3, error) {
	if len(p) != 3 {
		return mgl32.Vec3{}, ErrBadPosition
	}
	var v mgl32.Vec3
	for i, c := range p {
		f := float32(c)
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return mgl32.Vec3{}, ErrBadPosition
		}
		v[i] = f
	}
	return v, nil
}

func (s *server) handleSkybox(w http.ResponseWriter, r *http.Request) {
	if !s.running.Load() {
		writeError(w, http.StatusServiceUnavailable, errors.New("render server is shutting down"))
		return
	}

	var req skyboxRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	pos, err := parsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := req.DestPath
	if name == "" {
		name = s.defaultName
	}
	if _, err := imageio.ResolvePath("", name); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := s.nextID.Add(1)
	s.queue.Push(task.NewSkyboxJob(id, pos, name, task.WithCompletion(func(res task.Result) {
		s.results.Add(res)
	})))
	common.Logger().Debug("skybox queued", "id", id, "position", pos, "path", name)
	writeJSON(w, http.StatusOK, skyboxResponse{TaskID: id, AssetID: name})
}

type pollResponse struct {
	Results []Entry `json:"results"`
	Last    uint64  `json:"last"`
}

func parseAfter(r *http.Request) (uint64, error) {
	v := r.URL.Query().Get("after")
	if v == "" {
		return 0, nil
	}
	after, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid after: %w", err)
	}
	return after, nil
}

func (s *server) handlePoll(w http.ResponseWriter, r *http.Request) {
	after, err := parseAfter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries := s.results.Since(after)
	last := after
	if n := len(entries); n > 0 {
		last = entries[n-1].Seq
	}
	writeJSON(w, http.StatusOK, pollResponse{Results: entries, Last: last})
}

// handleListen streams every entry newer than ?after= over a websocket, backlog first.
func (s *server) handleListen(w http.ResponseWriter, r *http.Request) {
	after, err := parseAfter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Subscribe before reading the backlog so nothing falls between the two.
	ch, cancel := s.results.Subscribe(s.streamBuf)
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		common.Logger().Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The client never sends anything meaningful; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Each received entry only signals news. Reading the store instead also delivers entries
	// dropped while this listener lagged: they were added before the pending one was received.
	last := after
	catchUp := func() bool {
		for _, e := range s.results.Since(last) {
			last = e.Seq
			if err := conn.WriteJSON(e); err != nil {
				return false
			}
		}
		return true
	}
	if !catchUp() {
		return
	}
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if !catchUp() {
				return
			}
		case <-gone:
			return
		}
	}
}

type pingResponse struct {
	Message string `json:"message"`
}

func (s *server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pingResponse{Message: "Pong " + r.URL.Query().Get("message")})
}
