package application

import (
	"context"
	"errors"
	"time"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// ErrLeadNotFound is returned by LeadStore implementations when no
// record matches the given id.
var ErrLeadNotFound = errors.New("lead not found")

// LeadStore is the persistence surface the dispatcher depends on.
// Updates are partial: implementations must never clobber fields they
// were not asked to touch.
type LeadStore interface {
	FindByID(ctx context.Context, id string) (*notifdomain.Lead, error)
	MarkNotified(ctx context.Context, id string, at time.Time, result notifdomain.DispatchResult) error
	ClearNotification(ctx context.Context, id string) error
}

// MessageSender delivers one text message to a transport address. The
// boolean reports transport acceptance, not delivery confirmation.
type MessageSender interface {
	SendText(ctx context.Context, address, text string) (bool, error)
}

// RecipientDirectory lists the staff members to alert.
type RecipientDirectory interface {
	Recipients() []notifdomain.Recipient
}

// FailureArchive keeps dispatches that never reached anyone so they can
// be replayed by hand later.
type FailureArchive interface {
	Record(ctx context.Context, failure notifdomain.DispatchFailure) error
	List(ctx context.Context, limit int) ([]notifdomain.ArchivedDispatchFailure, error)
}

// Settings are the dispatcher's injected runtime switches.
type Settings struct {
	Enabled  bool
	Location *time.Location
}

// Dispatcher is the notification use-case surface. Every operation is
// total: failures come back as tagged results, never as errors or
// panics.
type Dispatcher interface {
	DispatchNewLead(ctx context.Context, leadID string, payload notifdomain.LeadPayload) notifdomain.DispatchResult
	CheckStatus(ctx context.Context, leadID string) notifdomain.NotificationStatus
	ResetStatus(ctx context.Context, leadID string) bool
}
