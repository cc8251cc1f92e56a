package domain

import "time"

// Reason tags a dispatch outcome. Consumers branch on these values, so
// they are part of the contract.
type Reason string

const (
	ReasonDisabled        Reason = "disabled"
	ReasonNotFound        Reason = "not_found"
	ReasonAlreadyNotified Reason = "already_notified"
	ReasonPartialFailure  Reason = "partial_failure"
	ReasonStorageError    Reason = "storage_error"
	ReasonTransportError  Reason = "transport_error"
)

// RecipientResult records one delivery attempt to one recipient.
type RecipientResult struct {
	Name      string
	Phone     string
	Success   bool
	Timestamp time.Time
	Error     string
}

// DispatchResult aggregates one dispatch attempt for a lead. Success is
// true exactly when at least one recipient accepted the alert.
type DispatchResult struct {
	Success           bool
	Reason            Reason
	NotificationsSent int
	TotalRecipients   int
	Results           []RecipientResult
	LeadID            string
	Timestamp         time.Time
}

// NotificationStatus is the read-only view of a lead's delivery state.
type NotificationStatus struct {
	LeadID      string
	Exists      bool
	WasNotified bool
	NotifiedAt  *time.Time
	Result      *DispatchResult
}

// DispatchFailure describes a dispatch that reached nobody, kept for
// manual replay.
type DispatchFailure struct {
	LeadID   string
	Stage    string
	Payload  string
	Error    string
	Attempts int
}

// Failure stages.
const (
	StageFanout = "fanout"
	StageCommit = "commit"
)

// ArchivedDispatchFailure is a stored failure with its bookkeeping
// fields filled in by the archive.
type ArchivedDispatchFailure struct {
	ID          string
	LeadID      string
	Stage       string
	Payload     string
	Error       string
	Attempts    int
	Status      string
	CreatedAt   time.Time
	LastTriedAt time.Time
}
