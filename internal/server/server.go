package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/firefly/internal/config"
	apierrors "github.com/copyleftdev/firefly/internal/errors"
	"github.com/copyleftdev/firefly/internal/logging"
	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
	"github.com/copyleftdev/firefly/internal/optimization/objective"
	"github.com/copyleftdev/firefly/internal/output"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RunRequest describes a run to start. Unset tuning fields fall back to the
// server configuration.
type RunRequest struct {
	Objective  string            `json:"objective"`
	Fireflies  int               `json:"fireflies"`
	Iterations int               `json:"iterations"`
	Bounds     optimization.Rect `json:"bounds"`
	Alpha      *float64          `json:"alpha,omitempty"`
	Gamma      *float64          `json:"gamma,omitempty"`
	Seed       int64             `json:"seed,omitempty"`
	Mode       firefly.Mode      `json:"mode,omitempty"`
	Workers    *int              `json:"workers,omitempty"`
	Tolerance  float64           `json:"tolerance,omitempty"`
	Rank       bool              `json:"rank,omitempty"`
	SelectBest *bool             `json:"select_best,omitempty"`
	Kernel     string            `json:"kernel,omitempty"`
	Schedule   string            `json:"schedule,omitempty"`
	AlphaFloor float64           `json:"alpha_floor,omitempty"`
	ScaleGamma bool              `json:"scale_gamma,omitempty"`
	Init       firefly.Init      `json:"init,omitempty"`
}

// RunStatus is the externally visible snapshot of a run.
type RunStatus struct {
	ID         string                 `json:"run_id"`
	Objective  string                 `json:"objective"`
	Status     Status                 `json:"status"`
	Progress   float64                `json:"progress"`
	Generation int                    `json:"generation"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    *time.Time             `json:"end_time,omitempty"`
	Best       *optimization.Solution `json:"best,omitempty"`
	BestValue  *float64               `json:"best_value,omitempty"`
	Final      []optimization.Point   `json:"final,omitempty"`
	Converged  bool                   `json:"converged"`
	OutputDir  string                 `json:"output_dir,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// runState tracks one run. Fields are guarded by Server.runsMu.
type runState struct {
	status     RunStatus
	iterations int
	cancel     context.CancelFunc
	done       chan struct{}
	// exited is set once the run goroutine stops computing. A cancelled run
	// keeps its slot until then.
	exited bool
}

// defaultMaxBodyBytes caps request bodies when the configuration leaves
// HTTP.MaxBodyBytes unset.
const defaultMaxBodyBytes = 1 << 20

// Server implements the HTTP and JSON-RPC server for firefly runs. Each run
// executes in its own goroutine and can be polled or cancelled by id.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	observer firefly.Observer
	pool     *firefly.Pool

	seq    atomic.Uint64
	wg     sync.WaitGroup
	runs   map[string]*runState
	runsMu sync.RWMutex
}

// NewServer creates a new server. observer, typically the metrics collector,
// is notified about every run and may be nil.
func NewServer(cfg *config.Config, logger *logging.Logger, observer firefly.Observer) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		pool:     firefly.NewPool(),
		runs:     make(map[string]*runState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleStart)
		r.Get("/runs", s.handleList)
		r.Get("/runs/{id}", s.handleStatus)
		r.Delete("/runs/{id}", s.handleCancel)
		r.Get("/objectives", s.handleObjectives)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Start validates req and launches the run in the background.
func (s *Server) Start(req RunRequest) (*RunStatus, error) {
	obj, err := objective.Lookup(req.Objective)
	if err != nil {
		return nil, err
	}

	cfg, err := s.runConfig(req)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("run_%d", s.seq.Add(1))
	runLogger := s.logger.WithRun(id).WithField("objective", req.Objective)

	state := &runState{
		status: RunStatus{
			ID:        id,
			Objective: req.Objective,
			Status:    StatusPending,
			StartTime: time.Now(),
		},
		iterations: cfg.Iterations,
		done:       make(chan struct{}),
	}

	opts := []firefly.Option{
		firefly.WithSeed(req.Seed),
		firefly.WithPool(s.pool),
		firefly.WithLogger(logging.NewZapLogger(runLogger)),
		firefly.WithObserver(&progress{server: s, state: state, next: s.observer}),
	}
	if dir := s.cfg.Firefly.OutputDir; dir != "" {
		state.status.OutputDir = filepath.Join(dir, id)
		sinks := output.Multi{output.NewFileSink(state.status.OutputDir)}
		if s.cfg.Firefly.Chart {
			sinks = append(sinks, output.NewChartSink(filepath.Join(state.status.OutputDir, output.ChartFile), req.Objective))
		}
		opts = append(opts, firefly.WithSink(sinks))
	}

	o, err := firefly.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	state.cancel = cancel

	s.runsMu.Lock()
	if s.activeLocked() >= s.cfg.Firefly.MaxRuns {
		s.runsMu.Unlock()
		cancel()
		return nil, apierrors.ErrBusy
	}
	s.runs[id] = state
	snapshot := state.status
	s.runsMu.Unlock()

	runLogger.Info("Run started", map[string]interface{}{
		"fireflies":  cfg.Fireflies,
		"iterations": cfg.Iterations,
		"mode":       string(cfg.Mode),
	})

	s.wg.Add(1)
	go s.run(ctx, o, obj, state, runLogger)

	return &snapshot, nil
}

// runConfig merges req with the server defaults and enforces the limits.
func (s *Server) runConfig(req RunRequest) (firefly.Config, error) {
	limits := s.cfg.Firefly

	cfg := firefly.DefaultConfig()
	cfg.Alpha = limits.Alpha
	cfg.Gamma = limits.Gamma
	cfg.Workers = limits.Workers
	cfg.Mode = firefly.Mode(limits.Mode)

	cfg.Fireflies = req.Fireflies
	cfg.Iterations = req.Iterations
	cfg.Bounds = req.Bounds
	cfg.Tolerance = req.Tolerance
	cfg.Rank = req.Rank
	cfg.Kernel = req.Kernel
	cfg.Schedule = req.Schedule
	cfg.AlphaFloor = req.AlphaFloor
	cfg.ScaleGamma = req.ScaleGamma
	cfg.Init = req.Init
	cfg.SelectBest = true
	if req.Alpha != nil {
		cfg.Alpha = *req.Alpha
	}
	if req.Gamma != nil {
		cfg.Gamma = *req.Gamma
	}
	if req.Workers != nil {
		cfg.Workers = *req.Workers
	}
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	if req.SelectBest != nil {
		cfg.SelectBest = *req.SelectBest
	}

	if cfg.Fireflies > limits.MaxFireflies {
		return cfg, optimization.NewErrorf(optimization.KindConfig,
			"fireflies must not exceed %d, got %d", limits.MaxFireflies, cfg.Fireflies).WithComponent("server")
	}
	if cfg.Iterations > limits.MaxIterations {
		return cfg, optimization.NewErrorf(optimization.KindConfig,
			"iterations must not exceed %d, got %d", limits.MaxIterations, cfg.Iterations).WithComponent("server")
	}
	return cfg, nil
}

// activeLocked counts runs whose goroutine is still alive, including
// cancelled ones that have not yet noticed.
func (s *Server) activeLocked() int {
	n := 0
	for _, r := range s.runs {
		if !r.exited {
			n++
		}
	}
	return n
}

func (s *Server) maxBodyBytes() int64 {
	if n := s.cfg.HTTP.MaxBodyBytes; n > 0 {
		return n
	}
	return defaultMaxBodyBytes
}

// run executes the optimization and records its outcome.
func (s *Server) run(ctx context.Context, o *firefly.Optimizer, obj firefly.Objective, state *runState, logger *logging.Logger) {
	defer s.wg.Done()
	defer close(state.done)
	defer state.cancel()

	s.runsMu.Lock()
	if state.status.Status == StatusPending {
		state.status.Status = StatusRunning
	}
	s.runsMu.Unlock()

	result, err := o.Run(ctx, obj)

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state.exited = true
	now := time.Now()
	st := &state.status
	st.EndTime = &now

	if result != nil {
		st.Final = result.Final
		st.Converged = result.Converged
		st.Best = result.Best
		if result.Best != nil {
			if f, derr := objective.Describe(st.Objective); derr == nil {
				v := f(result.Best.Position)
				st.BestValue = &v
			}
		}
	}

	switch {
	case st.Status == StatusCancelled || errors.Is(err, context.Canceled):
		st.Status = StatusCancelled
		logger.Info("Run cancelled")
	case err != nil && optimization.IsKind(err, optimization.KindIO):
		// Output failures do not invalidate the search.
		st.Status = StatusCompleted
		st.Progress = 1
		st.Error = err.Error()
		logger.WithError(err).Warn("Run completed without its position files")
	case err != nil:
		st.Status = StatusFailed
		st.Error = err.Error()
		logger.WithError(err).Error("Run failed")
	default:
		st.Status = StatusCompleted
		st.Progress = 1
		logger.Info("Run completed", map[string]interface{}{
			"iterations": result.Iterations,
			"converged":  result.Converged,
		})
	}
}

// Status returns a snapshot of the run.
func (s *Server) Status(id string) (*RunStatus, error) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	state, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, apierrors.ErrNotFound)
	}
	snapshot := state.status
	return &snapshot, nil
}

// List returns snapshots of all runs ordered by start time.
func (s *Server) List() []RunStatus {
	s.runsMu.RLock()
	out := make([]RunStatus, 0, len(s.runs))
	for _, state := range s.runs {
		st := state.status
		st.Final = nil
		out = append(out, st)
	}
	s.runsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Cancel stops a pending or running run.
func (s *Server) Cancel(id string) error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, apierrors.ErrNotFound)
	}
	if state.status.Status.terminal() {
		return fmt.Errorf("cannot cancel run with status %s: %w", state.status.Status, apierrors.ErrFinished)
	}

	state.cancel()
	state.status.Status = StatusCancelled

	s.logger.Info("Run cancelled", map[string]interface{}{
		"run_id": id,
	})
	return nil
}

// Wait blocks until the run has finished or ctx is done.
func (s *Server) Wait(ctx context.Context, id string) (*RunStatus, error) {
	s.runsMu.RLock()
	state, ok := s.runs[id]
	s.runsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, apierrors.ErrNotFound)
	}

	select {
	case <-state.done:
		return s.Status(id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close cancels every run and waits for their goroutines to return.
func (s *Server) Close() error {
	s.runsMu.Lock()
	for _, state := range s.runs {
		if !state.status.Status.terminal() {
			state.cancel()
		}
	}
	s.runsMu.Unlock()

	s.wg.Wait()
	return nil
}

// progress records generation progress and forwards to the next observer.
type progress struct {
	server *Server
	state  *runState
	next   firefly.Observer
}

func (p *progress) RunStarted(cfg firefly.Config) {
	if p.next != nil {
		p.next.RunStarted(cfg)
	}
}

func (p *progress) GenerationDone(generation int, elapsed time.Duration) {
	p.server.runsMu.Lock()
	p.state.status.Generation = generation + 1
	if p.state.iterations > 0 {
		p.state.status.Progress = float64(generation+1) / float64(p.state.iterations)
	}
	p.server.runsMu.Unlock()

	if p.next != nil {
		p.next.GenerationDone(generation, elapsed)
	}
}

func (p *progress) RunFinished(result *optimization.Result, elapsed time.Duration, err error) {
	if p.next != nil {
		p.next.RunFinished(result, elapsed, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleStart handles POST /api/v1/runs
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteJSON(w, optimization.WrapError(err, optimization.KindConfig, "invalid request body"))
		return
	}

	st, err := s.Start(req)
	if err != nil {
		apierrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

// handleList handles GET /api/v1/runs
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": s.List()})
}

// handleStatus handles GET /api/v1/runs/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Status(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleCancel handles DELETE /api/v1/runs/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Cancel(chi.URLParam(r, "id")); err != nil {
		apierrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

// handleObjectives handles GET /api/v1/objectives
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"objectives": objective.Names()})
}
