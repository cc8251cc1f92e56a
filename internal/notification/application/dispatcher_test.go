package application

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

type fakeLeadStore struct {
	leads     map[string]*notifdomain.Lead
	findCalls int
	findErr   error
	markErr   error
	clearErr  error
}

func newFakeLeadStore(leads ...*notifdomain.Lead) *fakeLeadStore {
	store := &fakeLeadStore{leads: make(map[string]*notifdomain.Lead)}
	for _, lead := range leads {
		store.leads[lead.ID] = lead
	}
	return store
}

func (f *fakeLeadStore) FindByID(ctx context.Context, id string) (*notifdomain.Lead, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	lead, ok := f.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	clone := *lead
	return &clone, nil
}

func (f *fakeLeadStore) MarkNotified(ctx context.Context, id string, at time.Time, result notifdomain.DispatchResult) error {
	if f.markErr != nil {
		return f.markErr
	}
	lead, ok := f.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.WasNotified = true
	lead.NotifiedAt = &at
	stored := result
	lead.NotificationResult = &stored
	return nil
}

func (f *fakeLeadStore) ClearNotification(ctx context.Context, id string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	lead, ok := f.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.WasNotified = false
	lead.NotifiedAt = nil
	lead.NotificationResult = nil
	return nil
}

type sentMessage struct {
	address string
	text    string
}

type fakeSender struct {
	failFor   map[string]error
	rejectFor map[string]bool
	sent      []sentMessage
}

func (f *fakeSender) SendText(ctx context.Context, address, text string) (bool, error) {
	if err, ok := f.failFor[address]; ok {
		return false, err
	}
	if f.rejectFor[address] {
		return false, nil
	}
	f.sent = append(f.sent, sentMessage{address: address, text: text})
	return true, nil
}

type fakeArchive struct {
	records []notifdomain.DispatchFailure
	err     error
}

func (f *fakeArchive) Record(ctx context.Context, failure notifdomain.DispatchFailure) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, failure)
	return nil
}

func (f *fakeArchive) List(ctx context.Context, limit int) ([]notifdomain.ArchivedDispatchFailure, error) {
	return nil, nil
}

var testRecipients = []notifdomain.Recipient{
	{Name: "Marcos", Phone: "11911112222"},
	{Name: "Paula", Phone: "11933334444"},
}

const (
	marcosAddress = "5511911112222@s.whatsapp.net"
	paulaAddress  = "5511933334444@s.whatsapp.net"
)

func testLead(id string) *notifdomain.Lead {
	return &notifdomain.Lead{
		ID: id,
		Answers: []notifdomain.Answer{
			{ID: 1, Answer: "Ana"},
			{ID: 2, Answer: "Criminal"},
			{ID: 3, Answer: "Dispute"},
			{ID: 4, Answer: "11999999999"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func testDispatcher(store LeadStore, sender MessageSender, archive FailureArchive, enabled bool, recipients []notifdomain.Recipient) Dispatcher {
	logger := log.New(io.Discard, "", 0)
	return NewDispatcher(store, sender, NewStaticDirectory(recipients), archive, Settings{Enabled: enabled}, logger)
}

func TestDispatchDisabledNeverReadsStore(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, false, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Reason != notifdomain.ReasonDisabled {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if store.findCalls != 0 {
		t.Fatalf("store must not be read when disabled, got %d reads", store.findCalls)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no sends expected, got %d", len(sender.sent))
	}
}

func TestDispatchUnknownLead(t *testing.T) {
	d := testDispatcher(newFakeLeadStore(), &fakeSender{}, &fakeArchive{}, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "missing", notifdomain.LeadPayload{})
	if result.Success || result.Reason != notifdomain.ReasonNotFound {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDispatchStoreReadFailure(t *testing.T) {
	store := newFakeLeadStore()
	store.findErr = errors.New("connection reset")
	d := testDispatcher(store, &fakeSender{}, &fakeArchive{}, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.Success || result.Reason != notifdomain.ReasonStorageError {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDispatchAlreadyNotifiedSendsNothing(t *testing.T) {
	lead := testLead("lead-1")
	lead.WasNotified = true
	store := newFakeLeadStore(lead)
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Reason != notifdomain.ReasonAlreadyNotified {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no sends expected for an already notified lead, got %d", len(sender.sent))
	}
}

func TestDispatchAllRecipientsFail(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{failFor: map[string]error{
		marcosAddress: errors.New("timeout"),
		paulaAddress:  errors.New("timeout"),
	}}
	archive := &fakeArchive{}
	d := testDispatcher(store, sender, archive, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.NotificationsSent != 0 || result.TotalRecipients != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.Reason != notifdomain.ReasonTransportError {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if store.leads["lead-1"].WasNotified {
		t.Fatalf("lead must stay unnotified when every send fails")
	}
	if len(archive.records) != 1 || archive.records[0].Stage != notifdomain.StageFanout {
		t.Fatalf("expected one fanout failure record, got %+v", archive.records)
	}
	if !strings.Contains(archive.records[0].Error, "Marcos: timeout") {
		t.Fatalf("archived error should name the recipient: %q", archive.records[0].Error)
	}
}

func TestDispatchPartialSuccessMarksLead(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{failFor: map[string]error{paulaAddress: errors.New("unreachable")}}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{Answers: testLead("lead-1").Answers})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.NotificationsSent != 1 || result.TotalRecipients != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.Reason != notifdomain.ReasonPartialFailure {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected a result per attempted recipient, got %d", len(result.Results))
	}

	lead := store.leads["lead-1"]
	if !lead.WasNotified || lead.NotifiedAt == nil || lead.NotificationResult == nil {
		t.Fatalf("lead bookkeeping missing after successful dispatch: %+v", lead)
	}

	status := d.CheckStatus(context.Background(), "lead-1")
	if !status.Exists || !status.WasNotified || status.NotifiedAt == nil {
		t.Fatalf("status does not reflect the dispatch: %+v", status)
	}
}

func TestDispatchAllSucceedHasNoReason(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if !result.Success || result.Reason != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.NotificationsSent != 2 {
		t.Fatalf("expected two sends, got %d", result.NotificationsSent)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected two transport calls, got %d", len(sender.sent))
	}
}

func TestDispatchAlertContent(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients[:1])

	d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if len(sender.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.sent))
	}
	text := sender.sent[0].text
	for _, want := range []string{"Ana", "Criminal", "Dispute", "11999999999", "lead-1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("alert missing %q:\n%s", want, text)
		}
	}
	if sender.sent[0].address != marcosAddress {
		t.Fatalf("unexpected address: %q", sender.sent[0].address)
	}
}

func TestDispatchTruncatesLongSituation(t *testing.T) {
	lead := testLead("lead-1")
	lead.Answers[2] = notifdomain.Answer{ID: 3, Answer: strings.Repeat("s", 250)}
	store := newFakeLeadStore(lead)
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients[:1])

	d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	text := sender.sent[0].text
	if strings.Contains(text, strings.Repeat("s", 251)) {
		t.Fatalf("situation was not truncated")
	}
	if !strings.Contains(text, strings.Repeat("s", 200)+"...") {
		t.Fatalf("expected truncated situation with ellipsis marker")
	}
}

func TestDispatchUsesStoredAnswersWhenPayloadEmpty(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{}
	d := testDispatcher(store, sender, &fakeArchive{}, true, testRecipients[:1])

	d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if !strings.Contains(sender.sent[0].text, "Ana") {
		t.Fatalf("stored answers were not used for the alert")
	}
}

func TestDispatchSkipsUnparseableRecipientPhone(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	sender := &fakeSender{}
	recipients := append([]notifdomain.Recipient{{Name: "Broken", Phone: "n/a"}}, testRecipients[:1]...)
	d := testDispatcher(store, sender, &fakeArchive{}, true, recipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.TotalRecipients != 2 {
		t.Fatalf("skipped recipients still count towards the total, got %d", result.TotalRecipients)
	}
	if len(result.Results) != 1 {
		t.Fatalf("skipped recipients must not produce attempt results, got %+v", result.Results)
	}
	if result.NotificationsSent != 1 || !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDispatchCommitFailureStaysSuccessful(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	store.markErr = errors.New("write concern failed")
	sender := &fakeSender{}
	archive := &fakeArchive{}
	d := testDispatcher(store, sender, archive, true, testRecipients)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if !result.Success {
		t.Fatalf("bookkeeping failure must not fail the dispatch: %+v", result)
	}
	if result.Reason != notifdomain.ReasonStorageError {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if len(archive.records) != 1 || archive.records[0].Stage != notifdomain.StageCommit {
		t.Fatalf("expected one commit failure record, got %+v", archive.records)
	}
}

func TestDispatchNoRecipientsConfigured(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	archive := &fakeArchive{}
	d := testDispatcher(store, &fakeSender{}, archive, true, nil)

	result := d.DispatchNewLead(context.Background(), "lead-1", notifdomain.LeadPayload{})
	if result.Success || result.TotalRecipients != 0 || result.Reason != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(archive.records) != 0 {
		t.Fatalf("nothing to archive without recipients, got %+v", archive.records)
	}
}

func TestResetThenCheck(t *testing.T) {
	lead := testLead("lead-1")
	lead.WasNotified = true
	at := time.Now().UTC()
	lead.NotifiedAt = &at
	lead.NotificationResult = &notifdomain.DispatchResult{Success: true, LeadID: "lead-1"}
	store := newFakeLeadStore(lead)
	d := testDispatcher(store, &fakeSender{}, &fakeArchive{}, true, testRecipients)

	if !d.ResetStatus(context.Background(), "lead-1") {
		t.Fatalf("reset should succeed")
	}
	status := d.CheckStatus(context.Background(), "lead-1")
	if !status.Exists || status.WasNotified || status.NotifiedAt != nil || status.Result != nil {
		t.Fatalf("reset did not clear the status: %+v", status)
	}
}

func TestResetUnknownLeadReturnsFalse(t *testing.T) {
	d := testDispatcher(newFakeLeadStore(), &fakeSender{}, &fakeArchive{}, true, testRecipients)
	if d.ResetStatus(context.Background(), "missing") {
		t.Fatalf("reset of a missing lead must return false")
	}
}

func TestResetStoreErrorReturnsFalse(t *testing.T) {
	store := newFakeLeadStore(testLead("lead-1"))
	store.clearErr = errors.New("socket closed")
	d := testDispatcher(store, &fakeSender{}, &fakeArchive{}, true, testRecipients)
	if d.ResetStatus(context.Background(), "lead-1") {
		t.Fatalf("reset must return false on storage errors")
	}
}

func TestCheckStatusUnknownLead(t *testing.T) {
	d := testDispatcher(newFakeLeadStore(), &fakeSender{}, &fakeArchive{}, true, testRecipients)
	status := d.CheckStatus(context.Background(), "missing")
	if status.Exists || status.WasNotified {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestCheckStatusStoreError(t *testing.T) {
	store := newFakeLeadStore()
	store.findErr = errors.New("connection reset")
	d := testDispatcher(store, &fakeSender{}, &fakeArchive{}, true, testRecipients)
	status := d.CheckStatus(context.Background(), "lead-1")
	if status.Exists {
		t.Fatalf("store errors must degrade to a non-existent view: %+v", status)
	}
}
