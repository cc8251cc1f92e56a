package domain

import (
	"fmt"
	"strings"
)

// Recipient is a staff member configured to receive lead alerts.
type Recipient struct {
	Name  string
	Phone string
}

const whatsappSuffix = "@s.whatsapp.net"

// NormalizeWhatsAppAddress converts a Brazilian phone number into the
// JID-style address the transports accept. Ten-digit numbers gain the
// country code and the mobile ninth digit, eleven-digit numbers gain
// the country code, and numbers already carrying the 55 prefix pass
// through untouched.
func NormalizeWhatsAppAddress(phone string) (string, error) {
	digits := onlyDigits(phone)
	switch {
	case len(digits) == 10:
		digits = "55" + digits[:2] + "9" + digits[2:]
	case len(digits) == 11:
		digits = "55" + digits
	case (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, "55"):
	default:
		return "", fmt.Errorf("phone %q is not a valid brazilian number", phone)
	}
	return digits + whatsappSuffix, nil
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
