package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/nunc/internal/harmonize"
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/lifecycle"
	"github.com/JaimeStill/nunc/pkg/storage"
)

// Archive keeps copies of resolved output documents.
type Archive interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Download(ctx context.Context, key string) (*storage.Blob, error)
}

type entry struct {
	task        Task
	fingerprint string
	cancel      context.CancelFunc
	done        chan struct{}
}

// Manager runs and tracks asynchronous pipeline tasks. In-flight tasks are
// held until they reach a terminal state; finished tasks move into a bounded
// store and expire after the configured retention.
type Manager struct {
	runner  harmonize.System
	archive Archive
	logger  *slog.Logger
	sem     *semaphore.Weighted

	mu       sync.Mutex
	base     context.Context
	inflight map[uuid.UUID]*entry
	byPrint  map[string]uuid.UUID
	finished *expirable.LRU[uuid.UUID, Task]
	wg       sync.WaitGroup
}

// New creates a Manager. archive may be nil when no archive is configured.
func New(runner harmonize.System, cfg *Config, archive Archive, logger *slog.Logger) *Manager {
	return &Manager{
		runner:   runner,
		archive:  archive,
		logger:   logger.With("system", "tasks"),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		base:     context.Background(),
		inflight: make(map[uuid.UUID]*entry),
		byPrint:  make(map[string]uuid.UUID),
		finished: expirable.NewLRU[uuid.UUID, Task](cfg.Capacity, nil, cfg.RetentionDuration()),
	}
}

// Start binds task contexts to the coordinator so that shutdown cancels
// in-flight tasks and waits for them to settle.
func (m *Manager) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting task manager")

	m.mu.Lock()
	m.base = lc.Context()
	m.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.logger.Info("waiting for in-flight tasks")
		m.wg.Wait()
		m.logger.Info("task manager stopped")
	})

	return nil
}

// Submit validates req and starts a task for it. If an identical submission
// is still pending or running, that task is returned and no new run starts.
func (m *Manager) Submit(req harmonize.Request) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fp := fingerprint(req)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byPrint[fp]; ok {
		if e, ok := m.inflight[id]; ok {
			m.logger.Info("identical task in flight", "id", id)
			task := e.task
			return &task, nil
		}
	}

	if err := m.base.Err(); err != nil {
		return nil, fmt.Errorf("task manager stopped: %w", err)
	}

	ctx, cancel := context.WithCancel(m.base)
	e := &entry{
		task: Task{
			ID:         uuid.New(),
			State:      StatePending,
			SourceName: req.Filename,
			CreatedAt:  time.Now().UTC(),
		},
		fingerprint: fp,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	m.inflight[e.task.ID] = e
	m.byPrint[fp] = e.task.ID

	m.wg.Go(func() {
		m.run(ctx, e, req)
	})

	m.logger.Info("task submitted", "id", e.task.ID, "filename", req.Filename)

	task := e.task
	return &task, nil
}

// Find returns a snapshot of the task with the given id.
func (m *Manager) Find(id uuid.UUID) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.inflight[id]; ok {
		task := e.task
		return &task, nil
	}
	if task, ok := m.finished.Get(id); ok {
		return &task, nil
	}
	return nil, ErrNotFound
}

// Cancel cancels a pending or running task. Cancelling a task that already
// reached a terminal state has no effect.
func (m *Manager) Cancel(id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.inflight[id]
	if !ok {
		_, ok = m.finished.Get(id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if e != nil {
		m.logger.Info("task cancellation requested", "id", id)
		e.cancel()
	}
	return nil
}

// Wait blocks until the task reaches a terminal state or ctx is done.
func (m *Manager) Wait(ctx context.Context, id uuid.UUID) (*Task, error) {
	m.mu.Lock()
	e, ok := m.inflight[id]
	m.mu.Unlock()

	if ok {
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return m.Find(id)
}

// Document returns the output document of a resolved task. Once a task has
// left the store, the archived copy is used when an archive is configured.
func (m *Manager) Document(ctx context.Context, id uuid.UUID) ([]byte, error) {
	task, err := m.Find(id)
	if err == nil {
		if task.State != StateResolved || task.Result == nil {
			return nil, ErrNotResolved
		}
		return task.Result.Document, nil
	}

	if !errors.Is(err, ErrNotFound) || m.archive == nil {
		return nil, err
	}

	b, err := m.archive.Download(ctx, ArchiveKey(id))
	if err != nil {
		m.logger.Warn("archive lookup failed", "id", id, "error", err)
		return nil, ErrNotFound
	}
	defer b.Body.Close()

	data, err := io.ReadAll(b.Body)
	if err != nil {
		return nil, fmt.Errorf("read archived document: %w", err)
	}
	return data, nil
}

func (m *Manager) run(ctx context.Context, e *entry, req harmonize.Request) {
	defer e.cancel()
	defer close(e.done)

	id := e.task.ID

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.finish(e, StateCancelled, nil, err)
		return
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	started := time.Now().UTC()
	e.task.State = StateRunning
	e.task.StartedAt = &started
	m.mu.Unlock()

	m.logger.Info("task running", "id", id)

	result, err := m.runner.Run(ctx, req)
	switch {
	case ctx.Err() != nil:
		m.finish(e, StateCancelled, nil, ctx.Err())
	case err != nil:
		m.finish(e, StateFailed, nil, err)
	default:
		m.archiveResult(ctx, e, result)
		m.finish(e, StateResolved, result, nil)
	}
}

func (m *Manager) archiveResult(ctx context.Context, e *entry, result *harmonize.Result) {
	if m.archive == nil {
		return
	}

	key := ArchiveKey(e.task.ID)
	err := m.archive.Upload(ctx, key, bytes.NewReader(result.Document), docx.ContentType)
	if err != nil {
		m.logger.Error("archive upload failed", "id", e.task.ID, "error", err)
		return
	}

	m.mu.Lock()
	e.task.ArchiveKey = key
	m.mu.Unlock()
}

func (m *Manager) finish(e *entry, state State, result *harmonize.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	completed := time.Now().UTC()
	e.task.State = state
	e.task.CompletedAt = &completed
	e.task.Result = result
	if err != nil {
		e.task.Error = err.Error()
	}
	if state == StateFailed {
		e.task.Status = MapHTTPStatus(err)
	}

	delete(m.inflight, e.task.ID)
	if m.byPrint[e.fingerprint] == e.task.ID {
		delete(m.byPrint, e.fingerprint)
	}
	m.finished.Add(e.task.ID, e.task)

	attrs := []any{"id", e.task.ID, "state", state}
	if e.task.StartedAt != nil {
		attrs = append(attrs, "duration", completed.Sub(*e.task.StartedAt))
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		m.logger.Warn("task finished", attrs...)
		return
	}
	m.logger.Info("task finished", attrs...)
}
