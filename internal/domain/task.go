package domain

import "time"

// Priority is the importance level of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo Status = "Todo"
	StatusDone Status = "Done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// Task is one unit of work owned by a single user.
type Task struct {
	ID       string
	UserID   string
	Title    string
	Detail   *string
	Priority Priority
	Status   Status
	DueDate  *time.Time

	CreatedAt time.Time
}
