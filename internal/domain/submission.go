package domain

import "time"

// SubmissionStatus is the moderation state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Submission is a user-proposed channel listing. Only approved submissions
// are aggregated into the channel list.
type Submission struct {
	ID              string           `json:"id"`
	ChannelName     string           `json:"channelName"`
	TelegramLink    string           `json:"telegramLink"`
	Description     string           `json:"description"`
	Categories      []string         `json:"categories"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	Status          SubmissionStatus `json:"status"`
	SubscriberCount int              `json:"subscriberCount"`
	OwnerContact    string           `json:"ownerContact"`

	SubmittedBy string     `json:"submittedBy,omitempty"`
	ModeratedAt *time.Time `json:"moderatedAt,omitempty"`
}
