package domain

import "time"

// Answer is one captured question/answer pair.
type Answer struct {
	ID     int
	Field  string
	Answer string
}

// Lead is a freshly captured intake record. The ID is assigned by the
// store on creation.
type Lead struct {
	ID        string
	Answers   []Answer
	Source    string
	SessionID string
	CreatedAt time.Time
}

// Sources a lead can come from.
const (
	SourceWhatsApp = "whatsapp"
	SourceWeb      = "web"
	SourceSeed     = "seed"
)
