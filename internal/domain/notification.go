package domain

import "time"

// Severity of a transient notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a transient message for the mini app, optionally paired
// with a vibration pattern.
type Notification struct {
	ID       string          `json:"id"`
	Message  string          `json:"message,omitempty"`
	Severity Severity        `json:"severity,omitempty"`
	Vibrate  []time.Duration `json:"vibrate,omitempty"`
	At       time.Time       `json:"at"`
}
