package common

const (
	// MaxRequestBody limits JSON request bodies for webhook/lead/admin endpoints.
	MaxRequestBody = 1 << 20
	// MaxInboundTextRunes caps a single relayed message before it reaches the orchestrator.
	MaxInboundTextRunes = 4096
	// MaxLeadAnswers caps how many answers a direct lead submission may carry.
	MaxLeadAnswers = 50
)
