package models

import "time"

// MaxTitleLength is the longest title, in characters, the tasks table accepts.
const MaxTitleLength = 255

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Completed   bool       `json:"completed"`
	OwnerID     int64      `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Completed   bool       `json:"completed"`
}

// DeleteResult confirms a removed task.
type DeleteResult struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}
