package domain

import "strings"

// Platforms a message can arrive on.
const (
	PlatformWhatsApp = "whatsapp"
	PlatformWeb      = "web"
)

const whatsappSuffix = "@s.whatsapp.net"

// InboundMessage is one user message relayed to the orchestrator.
type InboundMessage struct {
	Platform  string
	SessionID string
	From      string
	MessageID string
	Text      string
}

// PhoneNumber strips the transport suffix off the sender address.
func (m InboundMessage) PhoneNumber() string {
	return strings.TrimSuffix(m.From, whatsappSuffix)
}

// OrchestratorReply is the orchestrator's answer for one inbound
// message. LeadID is set when the conversation just completed an
// intake; LeadAnswers then carries the captured answers.
type OrchestratorReply struct {
	Text         string
	Type         string
	MessageCount int
	LeadID       string
	LeadAnswers  []Answer
}
