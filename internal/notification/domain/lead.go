package domain

import (
	"strings"
	"time"
)

// Answer is one captured question/answer pair of an intake conversation.
// Field carries the explicit schema name when the producer sets one; the
// integer ID keeps the legacy positional convention alive for payloads
// that predate named fields.
type Answer struct {
	ID     int
	Field  string
	Answer string
}

// Lead is the intake record the dispatcher reads and annotates.
type Lead struct {
	ID                 string
	Answers            []Answer
	WasNotified        bool
	NotifiedAt         *time.Time
	NotificationResult *DispatchResult
	Source             string
	SessionID          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LeadPayload is the answer set a caller hands to the dispatcher.
type LeadPayload struct {
	Answers []Answer
}

// Field names recognized by the explicit answer schema.
const (
	FieldName      = "name"
	FieldArea      = "area"
	FieldSituation = "situation"
	FieldPhone     = "phone"
)

// Placeholders used in alerts when an answer is missing.
const (
	PlaceholderName      = "not identified"
	PlaceholderArea      = "not informed"
	PlaceholderSituation = "not informed"
	PlaceholderPhone     = "not informed"
)

// Details holds the alert-relevant fields extracted from a lead's answers.
type Details struct {
	Name      string
	Phone     string
	Area      string
	Situation string
}

// ExtractDetails derives the alert fields from an answer sequence. Named
// fields win; unnamed answers fall back to the positional convention
// (id 1 name, id 2 area, id 3 situation, id 4 and up phone when the
// answer looks numeric). Later answers overwrite earlier ones, and
// missing fields degrade to placeholders instead of failing.
func ExtractDetails(answers []Answer) Details {
	details := Details{
		Name:      PlaceholderName,
		Phone:     PlaceholderPhone,
		Area:      PlaceholderArea,
		Situation: PlaceholderSituation,
	}
	for _, answer := range answers {
		value := strings.TrimSpace(answer.Answer)
		if value == "" {
			continue
		}
		switch answer.Field {
		case FieldName:
			details.Name = value
			continue
		case FieldArea:
			details.Area = value
			continue
		case FieldSituation:
			details.Situation = value
			continue
		case FieldPhone:
			details.Phone = value
			continue
		}
		switch {
		case answer.ID == 1:
			details.Name = value
		case answer.ID == 2:
			details.Area = value
		case answer.ID == 3:
			details.Situation = value
		case answer.ID >= 4 && looksNumeric(value):
			details.Phone = value
		}
	}
	return details
}

// looksNumeric reports whether a string is a phone-shaped number once
// common separators are stripped.
func looksNumeric(value string) bool {
	seen := false
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			seen = true
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' || r == '.':
		default:
			return false
		}
	}
	return seen
}
