package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthLogout      EventType = "auth.logout"

	EventTypeAccountCreate EventType = "account.create"
	EventTypeAccountUpdate EventType = "account.update"
	EventTypeAccountDelete EventType = "account.delete"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
	// EventStatusNoop marks a mutation that matched no row
	EventStatusNoop EventStatus = "noop"
)

// Event is a single audit record
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor. Nil for failed logins of unknown accounts.
	AccountID *int64 `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`

	// Targets of an account mutation
	TargetIDs []int64 `json:"target_ids,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
