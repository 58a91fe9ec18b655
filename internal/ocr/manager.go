package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

// Manager owns every OCR job: a bounded queue feeding a fixed worker pool, the live job
// table, and an expiring store of terminal snapshots.
type Manager struct {
	engine Engine
	pre    *Preprocessor
	logger *slog.Logger

	workers         int
	queueSize       int
	jobTimeout      time.Duration
	followUpTimeout time.Duration
	retention       int
	retentionTTL    time.Duration
	languages       []string

	ch   chan *job
	wg   sync.WaitGroup
	once sync.Once

	mu       sync.Mutex
	closed   bool
	live     map[string]*job
	finished *expirable.LRU[string, Snapshot]
	running  int

	submitted atomic.Int64
	rejected  atomic.Int64
}

type Option func(*Manager)

func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.jobTimeout = d
		}
	}
}

// WithFollowUpTimeout bounds the stage that runs after recognition.
func WithFollowUpTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.followUpTimeout = d
		}
	}
}

// WithRetention keeps up to size terminal snapshots for ttl.
func WithRetention(size int, ttl time.Duration) Option {
	return func(m *Manager) {
		if size > 0 {
			m.retention = size
		}
		if ttl > 0 {
			m.retentionTTL = ttl
		}
	}
}

func WithPreprocessor(p *Preprocessor) Option {
	return func(m *Manager) {
		if p != nil {
			m.pre = p
		}
	}
}

func WithLanguages(langs ...string) Option {
	return func(m *Manager) { m.languages = langs }
}

func NewManager(engine Engine, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		engine:          engine,
		pre:             NewPreprocessor(common.DefaultDownsizeTiers(), true),
		logger:          logger,
		workers:         4,
		queueSize:       64,
		jobTimeout:      20 * time.Second,
		followUpTimeout: 45 * time.Second,
		retention:       1024,
		retentionTTL:    time.Hour,
		live:            make(map[string]*job),
	}
	for _, o := range opts {
		o(m)
	}
	m.ch = make(chan *job, m.queueSize)
	m.finished = expirable.NewLRU[string, Snapshot](m.retention, nil, m.retentionTTL)
	m.start()
	return m
}

func (m *Manager) start() {
	m.once.Do(func() {
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go func(workerID int) {
				defer m.wg.Done()
				m.logger.Debug("ocr.worker.started", "worker_id", workerID)
				for j := range m.ch {
					m.run(workerID, j)
				}
				m.logger.Debug("ocr.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Submit enqueues a job without blocking and returns its identifier. A full queue is
// rejected with QUEUE_SATURATED.
func (m *Manager) Submit(ctx context.Context, req Request) (string, error) {
	if len(req.Image) == 0 && req.Then == nil && req.Text == "" {
		return "", common.NewTaxonomyError(common.CodeInvalidInput, "ocr job needs an image or text", nil)
	}
	j := &job{
		id:        uuid.NewString(),
		req:       req,
		state:     constants.JobStateQueued,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
	logger := common.LoggerFrom(ctx, m.logger).With("job_id", j.id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", common.NewAppError(common.CodeInternal, "ocr manager is shutting down", common.ErrShuttingDown)
	}
	m.live[j.id] = j
	select {
	case m.ch <- j:
		m.submitted.Add(1)
		logger.Info("ocr.job.queued", "filename", req.Filename, "image_bytes", len(req.Image), "queued", len(m.ch))
		return j.id, nil
	default:
		delete(m.live, j.id)
		m.rejected.Add(1)
		logger.Warn("ocr.job.rejected", "filename", req.Filename, "capacity", m.queueSize)
		return "", common.NewTaxonomyError(common.CodeQueueSaturated,
			fmt.Sprintf("ocr queue is full (capacity %d)", m.queueSize), nil)
	}
}

// Status returns the current snapshot. It never changes job state.
func (m *Manager) Status(id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.live[id]; ok {
		return j.snapshot(), nil
	}
	if s, ok := m.finished.Peek(id); ok {
		return s, nil
	}
	return Snapshot{}, common.NewTaxonomyError(common.CodeJobNotFound, fmt.Sprintf("job %q", id), nil)
}

// Await blocks until the job is terminal or ceiling elapses. When the ceiling wins the
// caller gets a timed_out snapshot and OCR_TIMEOUT while the job keeps running; it stays
// retrievable through Status.
func (m *Manager) Await(ctx context.Context, id string, ceiling time.Duration) (Snapshot, error) {
	m.mu.Lock()
	j, ok := m.live[id]
	if !ok {
		s, found := m.finished.Peek(id)
		m.mu.Unlock()
		if !found {
			return Snapshot{}, common.NewTaxonomyError(common.CodeJobNotFound, fmt.Sprintf("job %q", id), nil)
		}
		return s, s.Err
	}
	m.mu.Unlock()

	var timer <-chan time.Time
	if ceiling > 0 {
		t := time.NewTimer(ceiling)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-j.done:
		s := m.detached(j)
		return s, s.Err
	case <-timer:
		s := m.detached(j)
		s.Err = common.NewTaxonomyError(common.CodeOcrTimeout,
			fmt.Sprintf("job %s still %s after sync ceiling %s", id, s.State, ceiling), nil)
		s.State = constants.JobStateTimedOut
		s.Detached = true
		m.logger.Info("ocr.job.ceiling_elapsed", "job_id", id, "ceiling_ms", ceiling.Milliseconds())
		return s, s.Err
	case <-ctx.Done():
		s := m.detached(j)
		s.Detached = true
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.State = constants.JobStateTimedOut
			s.Err = common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "waiting for ocr job "+id, ctx.Err())
		} else {
			s.Err = ctx.Err()
		}
		return s, s.Err
	}
}

func (m *Manager) detached(j *job) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return j.snapshot()
}

// Process is sync mode: Submit followed by Await with the caller's ceiling.
func (m *Manager) Process(ctx context.Context, req Request, ceiling time.Duration) (Snapshot, error) {
	id, err := m.Submit(ctx, req)
	if err != nil {
		return Snapshot{}, err
	}
	return m.Await(ctx, id, ceiling)
}

func (m *Manager) run(workerID int, j *job) {
	logger := m.logger.With("job_id", j.id, "worker_id", workerID)
	if !m.transition(j, constants.JobStateRunning, nil) {
		return
	}
	logger.Info("ocr.job.running", "waited_ms", time.Since(j.submitted).Milliseconds())

	text, conf, ok := m.recognize(logger, j)
	if !ok {
		return
	}
	if j.req.Then == nil {
		m.transition(j, constants.JobStateSucceeded, func(j *job) { j.text, j.conf = text, conf })
		logger.Info("ocr.job.succeeded", "chars", len(text), "confidence", conf, "elapsed_ms", time.Since(j.started).Milliseconds())
		return
	}

	m.mu.Lock()
	j.text, j.conf = text, conf
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(common.WithJobID(context.Background(), j.id), m.followUpTimeout)
	defer cancel()
	payload, err := j.req.Then(ctx, text)
	switch {
	case err == nil:
		m.transition(j, constants.JobStateSucceeded, func(j *job) { j.payload = payload })
		logger.Info("ocr.job.succeeded", "chars", len(text), "elapsed_ms", time.Since(j.started).Milliseconds())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		m.transition(j, constants.JobStateTimedOut, func(j *job) {
			j.payload = payload
			j.err = common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "follow-up stage", err)
		})
		logger.Warn("ocr.job.follow_up_timed_out", "timeout_ms", m.followUpTimeout.Milliseconds())
	default:
		m.transition(j, constants.JobStateFailed, func(j *job) {
			j.payload = payload
			j.err = err
		})
		logger.Warn("ocr.job.follow_up_failed", "error", err)
	}
}

// recognize runs preprocessing and the engine under the job timeout. On failure it moves
// the job to its terminal state and reports false.
func (m *Manager) recognize(logger *slog.Logger, j *job) (string, float32, bool) {
	if len(j.req.Image) == 0 {
		return j.req.Text, 1, true
	}

	ctx, cancel := context.WithTimeout(common.WithJobID(context.Background(), j.id), m.jobTimeout)
	defer cancel()

	prepared, err := m.pre.Prepare(ctx, j.req.Image)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			m.timedOut(logger, j)
			return "", 0, false
		}
		m.fail(logger, j, common.NewTaxonomyError(common.CodeOcrEngineFailure, "preprocess image", err))
		return "", 0, false
	}
	m.mu.Lock()
	j.prepared = prepared
	m.mu.Unlock()
	logger.Debug("ocr.job.preprocessed",
		"original", fmt.Sprintf("%dx%d", prepared.OriginalWidth, prepared.OriginalHeight),
		"scaled", fmt.Sprintf("%dx%d", prepared.Width, prepared.Height),
		"max_dimension", prepared.MaxDimension,
	)

	res, err := m.engine.Recognize(ctx, Input{ID: j.id, Image: prepared.Data, Languages: m.languages})
	if err != nil || ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			m.timedOut(logger, j)
			return "", 0, false
		}
		if err == nil {
			err = ctx.Err()
		}
		m.fail(logger, j, common.NewTaxonomyError(common.CodeOcrEngineFailure, m.engine.Name(), err))
		return "", 0, false
	}

	text := Normalize(res.Text)
	return text, blend(res.Confidence, heuristicConfidence(text)), true
}

func (m *Manager) timedOut(logger *slog.Logger, j *job) {
	m.transition(j, constants.JobStateTimedOut, func(j *job) {
		j.err = common.NewTaxonomyError(common.CodeOcrTimeout,
			fmt.Sprintf("recognition exceeded %s", m.jobTimeout), context.DeadlineExceeded)
	})
	logger.Warn("ocr.job.timed_out", "timeout_ms", m.jobTimeout.Milliseconds())
}

func (m *Manager) fail(logger *slog.Logger, j *job, err error) {
	m.transition(j, constants.JobStateFailed, func(j *job) { j.err = err })
	logger.Warn("ocr.job.failed", "error", err)
}

// transition moves j to state if the graph allows it, applying mutate under the lock.
// Terminal jobs leave the live table for the retention store.
func (m *Manager) transition(j *job, to constants.JobState, mutate func(*job)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !constants.CanTransition(j.state, to) {
		m.logger.Error("ocr.job.illegal_transition", "job_id", j.id, "from", j.state, "to", to)
		return false
	}
	now := time.Now()
	if mutate != nil {
		mutate(j)
	}
	j.state = to
	switch {
	case to == constants.JobStateRunning:
		j.started = now
		m.running++
	case to.IsTerminal():
		j.finished = now
		m.running--
		m.finished.Add(j.id, j.snapshot())
		delete(m.live, j.id)
		close(j.done)
	}
	return true
}

// Stats is a point-in-time view for health reporting.
func (m *Manager) Stats() entity.QueueStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return entity.QueueStats{
		Capacity:  m.queueSize,
		Queued:    len(m.ch),
		Running:   m.running,
		Retained:  m.finished.Len(),
		Submitted: m.submitted.Load(),
		Rejected:  m.rejected.Load(),
	}
}

// Engine exposes the bound engine for capability probes.
func (m *Manager) Engine() Engine { return m.engine }

// Available reports whether the engine can currently be used.
func (m *Manager) Available(ctx context.Context) error {
	if m.engine == nil {
		return errors.New("no ocr engine configured")
	}
	if p, ok := m.engine.(Prober); ok {
		return p.Available(ctx)
	}
	return nil
}

// Shutdown stops accepting jobs and waits for queued work to drain or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.ch)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); m.wg.Wait() }()

	select {
	case <-ctx.Done():
		m.logger.Warn("ocr.manager.shutdown_interrupted")
	case <-done:
		m.logger.Info("ocr.manager.drained")
	}
}
