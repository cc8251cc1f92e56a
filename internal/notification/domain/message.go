package domain

import (
	"fmt"
	"time"
)

// situationLimit caps the free-text situation inside an alert.
const situationLimit = 200

// TruncateSituation shortens a situation text to the alert limit,
// appending an ellipsis marker only when something was cut. Counting is
// rune-wise so multi-byte text is never split.
func TruncateSituation(text string) string {
	runes := []rune(text)
	if len(runes) <= situationLimit {
		return text
	}
	return string(runes[:situationLimit]) + "..."
}

// FormatAlert renders the staff alert for one lead. The timestamp is
// expected in the display timezone already.
func FormatAlert(leadID string, details Details, at time.Time) string {
	return fmt.Sprintf(`🚨 *New lead received!*

👤 *Name:* %s
📞 *Phone:* %s
⚖️ *Area:* %s
📝 *Situation:* %s

🆔 *Lead ID:* %s
⏰ *Received at:* %s at %s

_Automated alert from the intake assistant._`,
		details.Name,
		details.Phone,
		details.Area,
		TruncateSituation(details.Situation),
		leadID,
		at.Format("02/01/2006"),
		at.Format("15:04"),
	)
}
