package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DueDate parses due_date from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",     // date only
		time.RFC3339,     // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano, // with nanoseconds
		"2006-01-02T15:04:05",
		"2006-01-02T15:04", // datetime-local inputs
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			// If it was date-only (no time component), use start of day UTC
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("due_date: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

type CreateTaskRequest struct {
	Title    string  `json:"title" binding:"required,min=1,max=200"`
	Detail   string  `json:"detail" binding:"max=2000"`
	Priority string  `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	DueDate  DueDate `json:"due_date"` // optional: "2026-02-19" or RFC3339
}

type UpdateTaskRequest struct {
	Title    *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Detail   *string  `json:"detail" binding:"omitempty,max=2000"`
	Priority *string  `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	Status   *string  `json:"status" binding:"omitempty,oneof=Todo Done"`
	DueDate  *DueDate `json:"due_date"` // nil = keep, value = set
}

type TaskResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Detail    *string    `json:"detail"`
	Priority  string     `json:"priority"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
}

type ListTasksResponse struct {
	Items []TaskResponse `json:"items"`
}

// AnalyzeTaskRequest is the JSON body for POST /analyze-task.
type AnalyzeTaskRequest struct {
	Title  string `json:"title" binding:"required,min=1"`
	Detail string `json:"detail"`
}
