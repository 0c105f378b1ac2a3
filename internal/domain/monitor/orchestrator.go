package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
	"plant-diagnosis-server/internal/platform/storage"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Event topics published per processed record.
const (
	TopicCompleted = "diagnosis:completed"
	TopicFailed    = "diagnosis:failed"
)

// RecordStore is the slice of persistence the orchestrator drives.
type RecordStore interface {
	PendingImages(ctx context.Context) ([]storage.ImageRecord, error)
	UpdateDiagnosis(ctx context.Context, id, diagnosis string) error
}

// Fetcher retrieves image bytes for a storage path.
type Fetcher interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
	TestConnection(ctx context.Context) bool
}

// Diagnoser turns image bytes plus caption into validated diagnosis JSON.
type Diagnoser interface {
	Diagnose(ctx context.Context, imageBytes []byte, caption string) (string, error)
}

// Outcome is the per-record result of one batch cycle. Err carries the
// typed failure for log and event consumers; API callers only see Message.
type Outcome struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Diagnosis json.RawMessage `json:"diagnosis,omitempty"`
	Err       error           `json:"-"`
}

// Summary aggregates one batch cycle. It is ephemeral and never persisted.
type Summary struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Results   []Outcome `json:"results,omitempty"`
}

// Orchestrator drives fetch, diagnose and persist for every pending record.
// Records are processed sequentially; a single record's failure never aborts
// the batch.
type Orchestrator struct {
	records     RecordStore
	fetcher     Fetcher
	diagnoser   Diagnoser
	bus         EventBus.Bus
	recordDelay time.Duration
	logger      *logging.Logger
}

// Options configures an Orchestrator. RecordDelay spaces out inference
// calls in the continuous driver; the HTTP driver leaves it at zero.
type Options struct {
	Records     RecordStore
	Fetcher     Fetcher
	Diagnoser   Diagnoser
	Bus         EventBus.Bus
	RecordDelay time.Duration
	Logger      *logging.Logger
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		records:     opts.Records,
		fetcher:     opts.Fetcher,
		diagnoser:   opts.Diagnoser,
		bus:         opts.Bus,
		recordDelay: opts.RecordDelay,
		logger:      opts.Logger,
	}
}

// RunOnce executes one batch cycle and always returns a summary, even when
// the pending query itself fails.
func (o *Orchestrator) RunOnce(ctx context.Context) Summary {
	runID := uuid.NewString()[:8]

	records, err := o.records.PendingImages(ctx)
	if err != nil {
		o.logger.ErrorTag("MONITOR", "run %s: error fetching new images: %v", runID, err)
		return Summary{Status: StatusError, Message: err.Error()}
	}

	if len(records) == 0 {
		o.logger.InfoTag("MONITOR", "run %s: no new images to process", runID)
		return Summary{Status: StatusSuccess, Message: "No new images to process"}
	}

	o.logger.InfoTag("MONITOR", "run %s: found %d new image(s) to process", runID, len(records))

	results := make([]Outcome, 0, len(records))
	processed := 0

	for i, record := range records {
		if i > 0 && o.recordDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.recordDelay):
			}
		}
		if ctx.Err() != nil {
			o.logger.WarnTag("MONITOR", "run %s: cancelled after %d of %d record(s)", runID, i, len(records))
			break
		}

		outcome := o.processRecord(ctx, record)
		results = append(results, outcome)

		if outcome.Status == StatusSuccess {
			processed++
			o.publish(TopicCompleted, outcome)
		} else {
			o.publish(TopicFailed, outcome)
		}
	}

	summary := Summary{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Processed %d of %d images", processed, len(records)),
		Processed: processed,
		Total:     len(records),
		Results:   results,
	}

	o.logger.InfoTag("MONITOR", "run %s: %s", runID, summary.Message)
	return summary
}

// processRecord runs the fetch-diagnose-persist sequence for one record.
// Panics are converted into an error outcome at this boundary.
func (o *Orchestrator) processRecord(ctx context.Context, record storage.ImageRecord) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			id := record.ID
			if id == "" {
				id = "unknown"
			}
			o.logger.ErrorTag("MONITOR", "error processing image record %s: %v", id, r)
			outcome = Outcome{
				ID:      id,
				Status:  StatusError,
				Message: fmt.Sprintf("%v", r),
				Err:     errors.New(errors.KindUnknown, "monitor.process", fmt.Sprintf("%v", r)),
			}
		}
	}()

	if record.StoragePath == "" {
		err := errors.New(errors.KindInput, "monitor.process", "record has no storage path")
		o.logger.WarnTag("MONITOR", "skipping image record %s: %v", record.ID, err)
		return Outcome{ID: record.ID, Status: StatusError, Message: "Missing storage path", Err: err}
	}

	o.logger.InfoTag("MONITOR", "processing image %s: %s", record.ID, record.StoragePath)

	imageBytes, err := o.fetcher.Fetch(ctx, record.StoragePath)
	if err != nil {
		o.logger.ErrorTag("MONITOR", "failed to download image %s from %s: %v", record.ID, record.StoragePath, err)
		return Outcome{ID: record.ID, Status: StatusError, Message: "Failed to download image", Err: err}
	}

	diagnosis, err := o.diagnoser.Diagnose(ctx, imageBytes, record.Title)
	if err != nil {
		o.logger.ErrorTag("MONITOR", "failed to generate diagnosis for image %s: %v", record.ID, err)
		return Outcome{ID: record.ID, Status: StatusError, Message: "Failed to generate diagnosis", Err: err}
	}

	if err := o.records.UpdateDiagnosis(ctx, record.ID, diagnosis); err != nil {
		o.logger.ErrorTag("MONITOR", "failed to update database for image %s after successful diagnosis: %v", record.ID, err)
		return Outcome{ID: record.ID, Status: StatusError, Message: "Failed to update database", Err: err}
	}

	o.logger.InfoTag("MONITOR", "successfully processed image %s", record.ID)
	return Outcome{ID: record.ID, Status: StatusSuccess, Diagnosis: json.RawMessage(diagnosis)}
}

// TestConnection probes object storage availability.
func (o *Orchestrator) TestConnection(ctx context.Context) bool {
	return o.fetcher.TestConnection(ctx)
}

func (o *Orchestrator) publish(topic string, outcome Outcome) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(topic, outcome)
}
