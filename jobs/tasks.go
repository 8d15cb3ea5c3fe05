package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPrune is the task type for the stale session sweep.
	TaskSessionPrune = "session:prune"
)

// SessionPrunePayload bounds a single prune run.
type SessionPrunePayload struct {
	BatchSize int `json:"batch_size"`
}

// NewSessionPruneTask constructs an Asynq task for the session sweep.
func NewSessionPruneTask(batchSize int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPrunePayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data), nil
}
