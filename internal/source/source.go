// Package source reads metastore notifications from the outside world and
// hands them to the host.
package source

import (
	"context"

	"gluesync/internal/event"
)

// Submitter accepts decoded events and blocks until they are applied.
// host.Host implements it.
type Submitter interface {
	Submit(ctx context.Context, ev event.Event) error
}

// Stats summarizes a finite replay.
type Stats struct {
	// Applied events were dispatched without error.
	Applied int `json:"applied"`
	// Failed events were dispatched and the sync engine returned an error.
	Failed int `json:"failed"`
	// Invalid records could not be decoded into a notification.
	Invalid int `json:"invalid"`
}
