package application

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type fakeWriter struct {
	created []*intakedomain.Lead
	err     error
}

func (f *fakeWriter) Create(ctx context.Context, lead *intakedomain.Lead) error {
	if f.err != nil {
		return f.err
	}
	lead.ID = "lead-42"
	f.created = append(f.created, lead)
	return nil
}

type fakeOrchestrator struct {
	reply    *intakedomain.OrchestratorReply
	err      error
	received []intakedomain.InboundMessage
}

func (f *fakeOrchestrator) ProcessMessage(ctx context.Context, msg intakedomain.InboundMessage) (*intakedomain.OrchestratorReply, error) {
	f.received = append(f.received, msg)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

type fakeNotifier struct {
	result  notifdomain.DispatchResult
	leadIDs []string
}

func (f *fakeNotifier) DispatchNewLead(ctx context.Context, leadID string, payload notifdomain.LeadPayload) notifdomain.DispatchResult {
	f.leadIDs = append(f.leadIDs, leadID)
	result := f.result
	result.LeadID = leadID
	return result
}

func testService(writer *fakeWriter, orch *fakeOrchestrator, notifier *fakeNotifier) IntakeService {
	return NewIntakeService(writer, orch, notifier, log.New(io.Discard, "", 0))
}

func TestHandleInboundRelaysToOrchestrator(t *testing.T) {
	orch := &fakeOrchestrator{reply: &intakedomain.OrchestratorReply{Text: "What is your name?", Type: "question", MessageCount: 1}}
	notifier := &fakeNotifier{}
	svc := testService(&fakeWriter{}, orch, notifier)

	reply, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{
		Platform: intakedomain.PlatformWhatsApp,
		From:     "5511999999999@s.whatsapp.net",
		Text:     "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "What is your name?" || reply.Type != "question" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(orch.received) != 1 {
		t.Fatalf("expected one orchestrator call, got %d", len(orch.received))
	}
	if got := orch.received[0].SessionID; got != "whatsapp_5511999999999" {
		t.Fatalf("unexpected default session id: %q", got)
	}
	if len(notifier.leadIDs) != 0 {
		t.Fatalf("no dispatch expected without a completed lead")
	}
}

func TestHandleInboundKeepsExplicitSessionID(t *testing.T) {
	orch := &fakeOrchestrator{reply: &intakedomain.OrchestratorReply{Text: "ok"}}
	svc := testService(&fakeWriter{}, orch, &fakeNotifier{})

	if _, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{
		Platform:  intakedomain.PlatformWhatsApp,
		SessionID: "custom-7",
		From:      "5511999999999@s.whatsapp.net",
		Text:      "hi",
	}); err != nil {
		t.Fatal(err)
	}
	if got := orch.received[0].SessionID; got != "custom-7" {
		t.Fatalf("session id was replaced: %q", got)
	}
}

func TestHandleInboundEmptyReplyFallsBack(t *testing.T) {
	orch := &fakeOrchestrator{reply: &intakedomain.OrchestratorReply{}}
	svc := testService(&fakeWriter{}, orch, &fakeNotifier{})

	reply, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{
		Platform: intakedomain.PlatformWeb,
		Text:     "hello",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != "fallback" || !strings.Contains(reply.Text, "try again") {
		t.Fatalf("unexpected fallback reply: %+v", reply)
	}
}

func TestHandleInboundDispatchesCompletedLead(t *testing.T) {
	orch := &fakeOrchestrator{reply: &intakedomain.OrchestratorReply{
		Text:   "Thanks, our team will reach out.",
		Type:   "lead_completed",
		LeadID: "lead-42",
		LeadAnswers: []intakedomain.Answer{
			{ID: 1, Answer: "Ana"},
		},
	}}
	notifier := &fakeNotifier{result: notifdomain.DispatchResult{Success: true, NotificationsSent: 2, TotalRecipients: 2}}
	svc := testService(&fakeWriter{}, orch, notifier)

	reply, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{
		Platform: intakedomain.PlatformWhatsApp,
		From:     "5511999999999@s.whatsapp.net",
		Text:     "yes",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.LeadID != "lead-42" || reply.Dispatch == nil || !reply.Dispatch.Success {
		t.Fatalf("dispatch outcome missing from reply: %+v", reply)
	}
	if len(notifier.leadIDs) != 1 || notifier.leadIDs[0] != "lead-42" {
		t.Fatalf("unexpected dispatch calls: %v", notifier.leadIDs)
	}
}

func TestHandleInboundOrchestratorError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("connection refused")}
	svc := testService(&fakeWriter{}, orch, &fakeNotifier{})

	if _, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{
		Platform: intakedomain.PlatformWhatsApp,
		From:     "5511999999999@s.whatsapp.net",
		Text:     "hello",
	}); err == nil {
		t.Fatalf("expected the orchestrator error to surface")
	}
}

func TestHandleInboundRejectsEmptyText(t *testing.T) {
	svc := testService(&fakeWriter{}, &fakeOrchestrator{}, &fakeNotifier{})
	if _, err := svc.HandleInbound(context.Background(), intakedomain.InboundMessage{Text: "   "}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSubmitLeadCreatesAndDispatches(t *testing.T) {
	writer := &fakeWriter{}
	notifier := &fakeNotifier{result: notifdomain.DispatchResult{Success: true, NotificationsSent: 1, TotalRecipients: 1}}
	svc := testService(writer, &fakeOrchestrator{}, notifier)

	lead, result, err := svc.SubmitLead(context.Background(), SubmitLeadCommand{
		Answers: []intakedomain.Answer{
			{ID: 1, Answer: " Ana "},
			{ID: 2, Answer: ""},
			{ID: 4, Answer: "11999999999"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if lead.ID != "lead-42" || lead.Source != intakedomain.SourceWeb {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if len(lead.Answers) != 2 || lead.Answers[0].Answer != "Ana" {
		t.Fatalf("answers were not sanitized: %+v", lead.Answers)
	}
	if !result.Success || result.LeadID != "lead-42" {
		t.Fatalf("unexpected dispatch result: %+v", result)
	}
	if len(notifier.leadIDs) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(notifier.leadIDs))
	}
}

func TestSubmitLeadRejectsEmptyAnswers(t *testing.T) {
	svc := testService(&fakeWriter{}, &fakeOrchestrator{}, &fakeNotifier{})
	if _, _, err := svc.SubmitLead(context.Background(), SubmitLeadCommand{
		Answers: []intakedomain.Answer{{ID: 1, Answer: "  "}},
	}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSubmitLeadWriterFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("insert failed")}
	notifier := &fakeNotifier{}
	svc := testService(writer, &fakeOrchestrator{}, notifier)

	if _, _, err := svc.SubmitLead(context.Background(), SubmitLeadCommand{
		Answers: []intakedomain.Answer{{ID: 1, Answer: "Ana"}},
	}); err == nil {
		t.Fatalf("expected writer error to surface")
	}
	if len(notifier.leadIDs) != 0 {
		t.Fatalf("no dispatch expected when the lead was not created")
	}
}
