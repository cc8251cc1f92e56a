// Package whatsapp holds the message transports the dispatcher fans
// out through: an HTTP bridge gateway and an in-process whatsmeow
// client. Both expose the same SendText/Status surface so the server
// can swap them by configuration.
package whatsapp

import "context"

// Status reports the health of the active transport.
type Status struct {
	Service   string `json:"service"`
	Connected bool   `json:"connected"`
	LoggedIn  bool   `json:"loggedIn,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// StatusReporter exposes transport liveness to the HTTP status endpoints.
type StatusReporter interface {
	Status(ctx context.Context) Status
}
