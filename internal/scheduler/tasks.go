// Package scheduler runs background jobs on an asynq/Redis queue. Its one
// recurring job is the pause tolerance sweep that auto-resumes orders whose
// pause outlived the tolerance snapshotted on its justification.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPauseToleranceSweep = "execution:pause_tolerance_sweep"

// PauseToleranceSweepPayload carries the sweep trigger time, mostly for
// queue introspection; the handler always sweeps against its own clock.
type PauseToleranceSweepPayload struct {
	TriggeredAt time.Time `json:"triggeredAt"`
}

func NewPauseToleranceSweepTask(payload PauseToleranceSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPauseToleranceSweep, data), nil
}

func ParsePauseToleranceSweepPayload(task *asynq.Task) (PauseToleranceSweepPayload, error) {
	var payload PauseToleranceSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PauseToleranceSweepPayload{}, err
	}
	return payload, nil
}
