package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceIntegrity is the task type for the balance integrity scan.
	TaskBalanceIntegrity = "ledger:balance_integrity"
)

// BalanceIntegrityPayload bounds the scan concurrency.
type BalanceIntegrityPayload struct {
	Parallelism int `json:"parallelism"`
}

// NewBalanceIntegrityTask constructs an Asynq task.
func NewBalanceIntegrityTask(parallelism int) (*asynq.Task, error) {
	data, err := json.Marshal(BalanceIntegrityPayload{Parallelism: parallelism})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceIntegrity, data), nil
}
