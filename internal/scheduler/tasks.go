package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskGenerateDueServices = "recurring.generate_due"

type GenerateDuePayload struct {
	// AsOf is the run date in 2006-01-02 form.
	AsOf      string `json:"asOf"`
	DaysAhead int    `json:"daysAhead"`
	DryRun    bool   `json:"dryRun"`
}

func NewGenerateDueTask(payload GenerateDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateDueServices, data), nil
}

func ParseGenerateDuePayload(task *asynq.Task) (GenerateDuePayload, error) {
	var payload GenerateDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GenerateDuePayload{}, err
	}
	return payload, nil
}
