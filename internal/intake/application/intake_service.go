package application

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// FallbackReply covers orchestrator answers that came back empty. HTTP
// handlers reuse it when the orchestrator is unreachable so the person
// chatting still gets an answer.
const FallbackReply = "Sorry, I could not process your message right now. Please try again in a moment."

// intakeService implements IntakeService.
type intakeService struct {
	writer   LeadWriter
	orch     Orchestrator
	notifier LeadNotifier
	logger   *log.Logger
}

func NewIntakeService(writer LeadWriter, orch Orchestrator, notifier LeadNotifier, logger *log.Logger) IntakeService {
	return &intakeService{
		writer:   writer,
		orch:     orch,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleInbound relays one message to the orchestrator and, when the
// reply closes an intake, dispatches the staff alert before returning.
func (s *intakeService) HandleInbound(ctx context.Context, msg intakedomain.InboundMessage) (*Reply, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if msg.SessionID == "" {
		msg.SessionID = defaultSessionID(msg)
	}

	answer, err := s.orch.ProcessMessage(ctx, msg)
	if err != nil {
		s.logger.Printf("session %s: orchestrator call failed: %v", msg.SessionID, err)
		return nil, err
	}

	reply := &Reply{
		Text:         answer.Text,
		Type:         answer.Type,
		MessageCount: answer.MessageCount,
		SessionID:    msg.SessionID,
	}
	if reply.Text == "" {
		reply.Text = FallbackReply
		reply.Type = "fallback"
	}

	if answer.LeadID != "" {
		result := s.notifier.DispatchNewLead(ctx, answer.LeadID, notifdomain.LeadPayload{
			Answers: toNotificationAnswers(answer.LeadAnswers),
		})
		reply.LeadID = answer.LeadID
		reply.Dispatch = &result
		if !result.Success {
			s.logger.Printf("lead %s: staff alert after intake failed: reason=%s", answer.LeadID, result.Reason)
		}
	}
	return reply, nil
}

// SubmitLead persists a directly submitted intake and dispatches the
// staff alert synchronously. The dispatch outcome is returned alongside
// the created lead so callers can inline it.
func (s *intakeService) SubmitLead(ctx context.Context, cmd SubmitLeadCommand) (*intakedomain.Lead, notifdomain.DispatchResult, error) {
	answers := sanitizeAnswers(cmd.Answers)
	if len(answers) == 0 {
		return nil, notifdomain.DispatchResult{}, fmt.Errorf("at least one answer is required")
	}

	source := cmd.Source
	if source == "" {
		source = intakedomain.SourceWeb
	}
	lead := &intakedomain.Lead{
		Answers:   answers,
		Source:    source,
		SessionID: cmd.SessionID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.writer.Create(ctx, lead); err != nil {
		return nil, notifdomain.DispatchResult{}, fmt.Errorf("create lead: %w", err)
	}

	result := s.notifier.DispatchNewLead(ctx, lead.ID, notifdomain.LeadPayload{
		Answers: toNotificationAnswers(lead.Answers),
	})
	return lead, result, nil
}

func defaultSessionID(msg intakedomain.InboundMessage) string {
	if msg.Platform == intakedomain.PlatformWhatsApp && msg.From != "" {
		return "whatsapp_" + msg.PhoneNumber()
	}
	return fmt.Sprintf("web_%d", time.Now().UnixMilli())
}

func sanitizeAnswers(answers []intakedomain.Answer) []intakedomain.Answer {
	out := make([]intakedomain.Answer, 0, len(answers))
	for _, answer := range answers {
		answer.Answer = strings.TrimSpace(answer.Answer)
		if answer.Answer == "" {
			continue
		}
		out = append(out, answer)
	}
	return out
}

func toNotificationAnswers(answers []intakedomain.Answer) []notifdomain.Answer {
	out := make([]notifdomain.Answer, 0, len(answers))
	for _, answer := range answers {
		out = append(out, notifdomain.Answer{ID: answer.ID, Field: answer.Field, Answer: answer.Answer})
	}
	return out
}
