package public

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veredix/lead-relay/internal/infrastructure/whatsapp"
	intakeapp "github.com/veredix/lead-relay/internal/intake/application"
	intakedomain "github.com/veredix/lead-relay/internal/intake/domain"
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type fakeIntake struct {
	reply        *intakeapp.Reply
	inboundErr   error
	inbound      []intakedomain.InboundMessage
	submitLead   *intakedomain.Lead
	submitResult notifdomain.DispatchResult
	submitErr    error
	submitted    []intakeapp.SubmitLeadCommand
}

func (f *fakeIntake) HandleInbound(ctx context.Context, msg intakedomain.InboundMessage) (*intakeapp.Reply, error) {
	f.inbound = append(f.inbound, msg)
	if f.inboundErr != nil {
		return nil, f.inboundErr
	}
	reply := *f.reply
	if reply.SessionID == "" {
		reply.SessionID = msg.SessionID
	}
	return &reply, nil
}

func (f *fakeIntake) SubmitLead(ctx context.Context, cmd intakeapp.SubmitLeadCommand) (*intakedomain.Lead, notifdomain.DispatchResult, error) {
	f.submitted = append(f.submitted, cmd)
	if f.submitErr != nil {
		return nil, notifdomain.DispatchResult{}, f.submitErr
	}
	return f.submitLead, f.submitResult, nil
}

type fakeDispatcher struct {
	status notifdomain.NotificationStatus
	result notifdomain.DispatchResult
	reset  bool
}

func (f *fakeDispatcher) DispatchNewLead(ctx context.Context, leadID string, payload notifdomain.LeadPayload) notifdomain.DispatchResult {
	return f.result
}

func (f *fakeDispatcher) CheckStatus(ctx context.Context, leadID string) notifdomain.NotificationStatus {
	return f.status
}

func (f *fakeDispatcher) ResetStatus(ctx context.Context, leadID string) bool {
	return f.reset
}

type fakeStatusReporter struct {
	status whatsapp.Status
}

func (f *fakeStatusReporter) Status(ctx context.Context) whatsapp.Status {
	return f.status
}

type handlerDeps struct {
	intake     *fakeIntake
	dispatcher *fakeDispatcher
	transport  *fakeStatusReporter
	secret     []byte
}

func newTestRouter(deps handlerDeps) *chi.Mux {
	if deps.intake == nil {
		deps.intake = &fakeIntake{reply: &intakeapp.Reply{Text: "ok"}}
	}
	if deps.dispatcher == nil {
		deps.dispatcher = &fakeDispatcher{}
	}
	if deps.transport == nil {
		deps.transport = &fakeStatusReporter{status: whatsapp.Status{Service: "gateway", Connected: true}}
	}
	handler := NewHandler(Config{
		Logger:        log.New(io.Discard, "", 0),
		Intake:        deps.intake,
		Dispatcher:    deps.dispatcher,
		Transport:     deps.transport,
		WebhookSecret: deps.secret,
	})
	router := chi.NewRouter()
	handler.Register(router)
	return router
}

func sampleDispatchResult(leadID string) notifdomain.DispatchResult {
	return notifdomain.DispatchResult{
		Success:           true,
		NotificationsSent: 1,
		TotalRecipients:   2,
		Reason:            notifdomain.ReasonPartialFailure,
		Results: []notifdomain.RecipientResult{
			{Name: "Marcos", Phone: "5511911112222@s.whatsapp.net", Success: true, Timestamp: time.Now().UTC()},
			{Name: "Paula", Phone: "5511933334444@s.whatsapp.net", Success: false, Timestamp: time.Now().UTC(), Error: "timeout"},
		},
		LeadID:    leadID,
		Timestamp: time.Now().UTC(),
	}
}
