package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogReprice recomputes margin and commission for every article.
	TaskCatalogReprice = "catalog:reprice"
	// TaskProposalsExpire moves overdue open proposals to expirada.
	TaskProposalsExpire = "proposals:expire"
)

// CatalogRepricePayload describes why a reprice was requested.
type CatalogRepricePayload struct {
	Reason      string    `json:"reason"`
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewCatalogRepriceTask constructs a reprice task.
func NewCatalogRepriceTask(payload CatalogRepricePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogReprice, data), nil
}

// ProposalsExpirePayload is the cron payload of the expiry sweep.
type ProposalsExpirePayload struct {
	Source string `json:"source"`
}

// NewProposalsExpireTask constructs an expiry sweep task.
func NewProposalsExpireTask(source string) (*asynq.Task, error) {
	data, err := json.Marshal(ProposalsExpirePayload{Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProposalsExpire, data), nil
}
