package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/middleware"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
)

// Job states.
const (
	JobRunning  = "running"
	JobComplete = "complete"
	JobError    = "error"
)

// JobStatus is the state of one ingestion run.
type JobStatus struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Progress    int                   `json:"progress"`
	Total       int                   `json:"total"`
	Current     string                `json:"current_source"`
	Reports     []domain.SourceReport `json:"reports"`
	Summary     *domain.IngestSummary `json:"summary,omitempty"`
	Error       string                `json:"error,omitempty"`
	StartedBy   string                `json:"started_by"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at,omitempty"`
}

func (j *JobStatus) done() bool { return j.Status == JobComplete || j.Status == JobError }

// JobTracker keeps ingestion jobs in memory. At most one job runs at a time.
type JobTracker struct {
	mu     sync.RWMutex
	jobs   map[string]*JobStatus
	subs   map[string][]chan JobStatus
	active string
}

// NewJobTracker creates a new job tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*JobStatus),
		subs: make(map[string][]chan JobStatus),
	}
}

// TryStart registers a running job unless one is already active, in which
// case it returns the active job's id and false.
func (t *JobTracker) TryStart(id string, total int, startedBy string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != "" {
		return t.active, false
	}
	t.active = id
	t.jobs[id] = &JobStatus{
		ID:        id,
		Status:    JobRunning,
		Total:     total,
		Reports:   []domain.SourceReport{},
		StartedBy: startedBy,
		StartedAt: time.Now(),
	}
	return id, true
}

// Report records a processed source and notifies subscribers.
func (t *JobTracker) Report(id string, r domain.SourceReport) {
	t.update(id, func(j *JobStatus) {
		j.Progress = r.Position
		j.Current = r.Source.Title
		j.Reports = append(j.Reports, r)
	})
}

// Finish marks the job complete or failed and releases the active slot.
func (t *JobTracker) Finish(id string, summary domain.IngestSummary, err error) {
	t.update(id, func(j *JobStatus) {
		j.Summary = &summary
		j.Current = ""
		j.CompletedAt = time.Now()
		if err != nil {
			j.Status = JobError
			j.Error = err.Error()
		} else {
			j.Status = JobComplete
		}
		if t.active == id {
			t.active = ""
		}
	})
}

func (t *JobTracker) update(id string, fn func(*JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	fn(job)
	snapshot := job.snapshot()

	// Unsubscribe closes channels; send under the lock, never blocking
	for _, ch := range t.subs[id] {
		deliver(ch, snapshot)
	}
}

// deliver sends s without blocking. A full buffer drops a progress update,
// but a terminal state evicts queued progress until it fits.
func deliver(ch chan JobStatus, s JobStatus) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		if !s.done() {
			return
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (j *JobStatus) snapshot() JobStatus {
	s := *j
	s.Reports = append([]domain.SourceReport(nil), j.Reports...)
	return s
}

// GetJob returns a copy of the job status.
func (t *JobTracker) GetJob(id string) (*JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := job.snapshot()
	return &snapshot, true
}

const subscriberBuffer = 32

// Subscribe returns a channel that receives job updates. The final
// complete or error update is always delivered.
func (t *JobTracker) Subscribe(id string) chan JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan JobStatus, subscriberBuffer)
	t.subs[id] = append(t.subs[id], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (t *JobTracker) Unsubscribe(id string, ch chan JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[id]
	for i, s := range subs {
		if s == ch {
			t.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// IngestHandler starts ingestion runs and reports their progress.
type IngestHandler struct {
	ingest  *service.IngestService
	sources []domain.Source
	tracker *JobTracker
}

// NewIngestHandler creates an ingest handler over a fixed source list.
func NewIngestHandler(ingest *service.IngestService, sources []domain.Source, tracker *JobTracker) *IngestHandler {
	return &IngestHandler{ingest: ingest, sources: sources, tracker: tracker}
}

// Register sets up admin routes. The router must already enforce the admin role.
func (h *IngestHandler) Register(router fiber.Router) {
	ingest := router.Group("/ingest")
	ingest.Post("/", h.Start)
	ingest.Get("/:id", h.GetStatus)
	ingest.Get("/:id/stream", h.StreamSSE)
}

// Start launches a full rebuild in the background and returns its job id.
func (h *IngestHandler) Start(c fiber.Ctx) error {
	startedBy := "unknown"
	if uc := middleware.GetUserContext(c); uc != nil {
		startedBy = uc.UserID
	}

	id, ok := h.tracker.TryStart(uuid.NewString(), len(h.sources), startedBy)
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  port.ErrIngestionRunning.Error(),
			"code":   "ingestion_running",
			"job_id": id,
		})
	}

	slog.Info("ingestion job started", "job_id", id, "started_by", startedBy, "sources", len(h.sources))

	go func() {
		summary, err := h.ingest.Ingest(context.Background(), h.sources, func(r domain.SourceReport, _ int) {
			h.tracker.Report(id, r)
		})
		if err != nil && !errors.Is(err, port.ErrIngestionRunning) {
			slog.Error("ingestion job failed", "job_id", id, "error", err)
		}
		h.tracker.Finish(id, summary, err)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id, "status": JobRunning, "total": len(h.sources)})
}

// GetStatus returns the current job status.
func (h *IngestHandler) GetStatus(c fiber.Ctx) error {
	job, ok := h.tracker.GetJob(c.Params("id"))
	if !ok {
		return respondError(c, port.ErrJobNotFound)
	}
	return c.JSON(job)
}

// StreamSSE streams job updates via Server-Sent Events.
func (h *IngestHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	job, ok := h.tracker.GetJob(id)
	if !ok {
		return respondError(c, port.ErrJobNotFound)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	if job.done() {
		data, _ := json.Marshal(job)
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", job.Status, data))
	}

	ch := h.tracker.Subscribe(id)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(id, ch)

		// re-read after subscribing so a job finishing in between is not missed
		if latest, ok := h.tracker.GetJob(id); ok {
			job = latest
		}
		eventType := "progress"
		if job.done() {
			eventType = job.Status
		}
		data, _ := json.Marshal(job)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
		if err := w.Flush(); err != nil || job.done() {
			return
		}

		timeout := time.After(30 * time.Minute)
		for {
			select {
			case update := <-ch:
				data, _ := json.Marshal(update)
				eventType := "progress"
				if update.done() {
					eventType = update.Status
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
				if err := w.Flush(); err != nil {
					return
				}
				if update.done() {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "job_id", id)
				return
			}
		}
	})
}
