package application

import (
	"context"

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// LeadWriter persists newly captured leads and assigns their id.
type LeadWriter interface {
	Create(ctx context.Context, lead *intakedomain.Lead) error
}

// Orchestrator is the external conversation engine driving the intake.
type Orchestrator interface {
	ProcessMessage(ctx context.Context, msg intakedomain.InboundMessage) (*intakedomain.OrchestratorReply, error)
}

// LeadNotifier triggers the staff alert once a lead exists. The
// notification dispatcher satisfies this directly.
type LeadNotifier interface {
	DispatchNewLead(ctx context.Context, leadID string, payload notifdomain.LeadPayload) notifdomain.DispatchResult
}

// Reply is what goes back to the channel that delivered a message.
type Reply struct {
	Text         string
	Type         string
	MessageCount int
	SessionID    string
	LeadID       string
	Dispatch     *notifdomain.DispatchResult
}

// SubmitLeadCommand carries a direct intake submission.
type SubmitLeadCommand struct {
	Answers   []intakedomain.Answer
	SessionID string
	Source    string
}

// IntakeService drives inbound relay and direct lead submission.
type IntakeService interface {
	HandleInbound(ctx context.Context, msg intakedomain.InboundMessage) (*Reply, error)
	SubmitLead(ctx context.Context, cmd SubmitLeadCommand) (*intakedomain.Lead, notifdomain.DispatchResult, error)
}
