package application

import (
	notifdomain "github.com/veredix/lead-relay/internal/notification/domain"
)

// staticDirectory serves the fixed recipient list from configuration.
type staticDirectory struct {
	recipients []notifdomain.Recipient
}

func NewStaticDirectory(recipients []notifdomain.Recipient) RecipientDirectory {
	return &staticDirectory{recipients: recipients}
}

func (d *staticDirectory) Recipients() []notifdomain.Recipient {
	out := make([]notifdomain.Recipient, len(d.recipients))
	copy(out, d.recipients)
	return out
}
