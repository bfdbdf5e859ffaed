package models

import "time"

// Task lifecycle event types.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskEvent describes a change to a task. Only the owner ever receives it.
type TaskEvent struct {
	Type    string    `json:"type"`
	OwnerID int64     `json:"owner_id"`
	TaskID  int64     `json:"task_id"`
	Task    *Task     `json:"task,omitempty"`
	At      time.Time `json:"at"`
}
