package upload

import (
	"time"

	"qrdrop/internal/modules/realtime"
	"qrdrop/internal/modules/session"
)

// Registry is the slice of the session registry ingest needs.
type Registry interface {
	Get(id string) (*session.Session, error)
	ResolvePin(pin string) (string, error)
	AppendFile(id string, rec session.FileRecord) error
}

// Publisher pushes events to a session's joined clients.
type Publisher interface {
	Publish(sessionID string, event *realtime.Event)
}

// Expirer arms the deletion timer for an accepted file.
type Expirer interface {
	Schedule(sessionID, storageHandle string, delay time.Duration)
}
