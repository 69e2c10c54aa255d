package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Todo is the unified item shape. Description, Priority and DueDate are
// optional extensions: servers that do not know them simply omit them.
type Todo struct {
	ID          int64      `json:"id"`
	Task        string     `json:"task"`
	Status      bool       `json:"status"`
	UserID      int64      `json:"user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type TodoPatch struct {
	Task        *string    `json:"task,omitempty"`
	Status      *bool      `json:"status,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (p TodoPatch) IsEmpty() bool {
	return p.Task == nil && p.Status == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil
}

type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterCompleted StatusFilter = "completed"
	FilterPending   StatusFilter = "pending"
)

// TodoQuery narrows a read of the local collection. Zero value matches all.
type TodoQuery struct {
	Status   StatusFilter
	Priority Priority
	Search   string
}

func (q TodoQuery) Matches(t Todo) bool {
	switch q.Status {
	case FilterCompleted:
		if !t.Status {
			return false
		}
	case FilterPending:
		if t.Status {
			return false
		}
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		if !strings.Contains(strings.ToLower(t.Task), s) &&
			!strings.Contains(strings.ToLower(t.Description), s) {
			return false
		}
	}
	return true
}

type TodoStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completion_rate"`
}
