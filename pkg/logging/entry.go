package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
)

// EntryType categorizes a log entry
type EntryType string

const (
	// EntryTypeAuthRejected records an authentication/authorization rejection
	EntryTypeAuthRejected EntryType = "auth.rejected"
	// EntryTypeRequestError records an unexpected request-handling fault
	EntryTypeRequestError EntryType = "request.error"
	// EntryTypeNotificationSent records a notification delivery attempt
	EntryTypeNotificationSent EntryType = "notification.sent"
)

// Entry is a single audit/event record. An Entry is created at the moment of
// the triggering condition, handed to exactly one Writer, and never mutated
// after handoff.
type Entry struct {
	ID         string                 `json:"id"`
	Type       EntryType              `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Project    string                 `json:"project,omitempty"`
	Source     string                 `json:"source,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	Message    string                 `json:"message,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	RemoteAddr string                 `json:"remote_addr,omitempty"`
	Success    bool                   `json:"success,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewEntry creates a base entry with a fresh id and timestamp
func NewEntry(entryType EntryType) *Entry {
	return &Entry{
		ID:         uuid.New().String(),
		Type:       entryType,
		OccurredAt: time.Now().UTC(),
	}
}

// NewAuthRejected builds the audit entry for a rejected authentication
// attempt. The request may be nil in non-HTTP contexts.
func NewAuthRejected(project, source, userID, reason, message string, r *http.Request) *Entry {
	e := NewEntry(EntryTypeAuthRejected)
	e.Project = project
	e.Source = source
	e.UserID = userID
	e.Reason = reason
	e.Message = message
	if r != nil {
		e.RequestID = contextkeys.GetRequestID(r.Context())
		e.Method = r.Method
		e.Path = r.URL.Path
		e.RemoteAddr = r.RemoteAddr
	}
	return e
}

// NewRequestError builds the audit entry for an unexpected request fault
func NewRequestError(project string, err error, r *http.Request) *Entry {
	e := NewEntry(EntryTypeRequestError)
	e.Project = project
	if err != nil {
		e.Message = err.Error()
	}
	if r != nil {
		e.RequestID = contextkeys.GetRequestID(r.Context())
		e.Method = r.Method
		e.Path = r.URL.Path
		e.RemoteAddr = r.RemoteAddr
	}
	return e
}

// NewNotificationSent builds the send-log entry for a notification delivery
// attempt
func NewNotificationSent(project, event, channel string, receivers int, success bool, message string) *Entry {
	e := NewEntry(EntryTypeNotificationSent)
	e.Project = project
	e.Success = success
	e.Message = message
	e.Metadata = map[string]interface{}{
		"event":     event,
		"channel":   channel,
		"receivers": receivers,
	}
	return e
}
