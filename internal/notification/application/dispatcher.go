package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// dispatcher implements Dispatcher with best-effort duplicate
// suppression: the was_notified check and the commit are two separate
// store operations, so concurrent dispatches for the same lead can
// both send. Callers needing strict exactly-once must serialize per
// lead id themselves.
type dispatcher struct {
	store    LeadStore
	sender   MessageSender
	dir      RecipientDirectory
	failures FailureArchive
	settings Settings
	logger   *log.Logger
}

func NewDispatcher(store LeadStore, sender MessageSender, dir RecipientDirectory, failures FailureArchive, settings Settings, logger *log.Logger) Dispatcher {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &dispatcher{
		store:    store,
		sender:   sender,
		dir:      dir,
		failures: failures,
		settings: settings,
		logger:   logger,
	}
}

// DispatchNewLead delivers the staff alert for one lead at most once.
// The returned result is the only failure channel: the method never
// returns an error and never panics.
func (d *dispatcher) DispatchNewLead(ctx context.Context, leadID string, payload notifdomain.LeadPayload) notifdomain.DispatchResult {
	now := time.Now().UTC()
	result := notifdomain.DispatchResult{LeadID: leadID, Timestamp: now}

	if !d.settings.Enabled {
		d.logger.Printf("lead %s: dispatch skipped, notifications disabled", leadID)
		result.Reason = notifdomain.ReasonDisabled
		return result
	}

	lead, err := d.store.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			result.Reason = notifdomain.ReasonNotFound
			return result
		}
		d.logger.Printf("lead %s: lookup failed: %v", leadID, err)
		result.Reason = notifdomain.ReasonStorageError
		return result
	}
	if lead.WasNotified {
		result.Reason = notifdomain.ReasonAlreadyNotified
		return result
	}

	answers := payload.Answers
	if len(answers) == 0 {
		answers = lead.Answers
	}
	details := notifdomain.ExtractDetails(answers)
	text := notifdomain.FormatAlert(leadID, details, now.In(d.settings.Location))

	recipients := d.dir.Recipients()
	result.TotalRecipients = len(recipients)

	var failures []string
	for _, recipient := range recipients {
		address, err := notifdomain.NormalizeWhatsAppAddress(recipient.Phone)
		if err != nil {
			d.logger.Printf("lead %s: skipping recipient %s: %v", leadID, recipient.Name, err)
			continue
		}
		attempt := notifdomain.RecipientResult{
			Name:      recipient.Name,
			Phone:     recipient.Phone,
			Timestamp: time.Now().UTC(),
		}
		accepted, err := d.sender.SendText(ctx, address, text)
		switch {
		case err != nil:
			attempt.Error = err.Error()
		case !accepted:
			attempt.Error = "transport rejected the message"
		default:
			attempt.Success = true
		}
		if attempt.Success {
			result.NotificationsSent++
		} else {
			d.logger.Printf("lead %s: alert to %s failed: %s", leadID, recipient.Name, attempt.Error)
			failures = append(failures, fmt.Sprintf("%s: %s", recipient.Name, attempt.Error))
		}
		result.Results = append(result.Results, attempt)
	}

	result.Success = result.NotificationsSent > 0
	switch {
	case result.Success && len(failures) > 0:
		result.Reason = notifdomain.ReasonPartialFailure
	case !result.Success && result.TotalRecipients > 0:
		result.Reason = notifdomain.ReasonTransportError
	}

	if !result.Success {
		if result.TotalRecipients > 0 {
			d.archive(ctx, notifdomain.DispatchFailure{
				LeadID:   leadID,
				Stage:    notifdomain.StageFanout,
				Payload:  text,
				Error:    strings.Join(failures, "; "),
				Attempts: len(result.Results),
			})
		}
		return result
	}

	if err := d.store.MarkNotified(ctx, leadID, now, result); err != nil {
		// The alert went out; bookkeeping loss is accepted and the
		// result stays successful.
		d.logger.Printf("lead %s: notified flag update failed: %v", leadID, err)
		result.Reason = notifdomain.ReasonStorageError
		d.archive(ctx, notifdomain.DispatchFailure{
			LeadID:   leadID,
			Stage:    notifdomain.StageCommit,
			Payload:  text,
			Error:    err.Error(),
			Attempts: len(result.Results),
		})
	}
	return result
}

// CheckStatus is a pure read; store errors degrade to a non-existent
// view and are logged.
func (d *dispatcher) CheckStatus(ctx context.Context, leadID string) notifdomain.NotificationStatus {
	status := notifdomain.NotificationStatus{LeadID: leadID}
	lead, err := d.store.FindByID(ctx, leadID)
	if err != nil {
		if !errors.Is(err, ErrLeadNotFound) {
			d.logger.Printf("lead %s: status lookup failed: %v", leadID, err)
		}
		return status
	}
	status.Exists = true
	status.WasNotified = lead.WasNotified
	status.NotifiedAt = lead.NotifiedAt
	status.Result = lead.NotificationResult
	return status
}

// ResetStatus clears the delivery bookkeeping so the next dispatch
// sends again. False means the lead is missing or the store failed.
func (d *dispatcher) ResetStatus(ctx context.Context, leadID string) bool {
	if err := d.store.ClearNotification(ctx, leadID); err != nil {
		d.logger.Printf("lead %s: notification reset failed: %v", leadID, err)
		return false
	}
	d.logger.Printf("lead %s: notification status reset", leadID)
	return true
}

func (d *dispatcher) archive(ctx context.Context, failure notifdomain.DispatchFailure) {
	if d.failures == nil {
		return
	}
	if err := d.failures.Record(ctx, failure); err != nil {
		d.logger.Printf("lead %s: failure archive write failed: %v", failure.LeadID, err)
	}
}
