package types

import "time"

const (
	EventStage  = "stage"
	EventDone   = "done"
	EventFailed = "failed"
	EventPing   = "ping"
	EventPong   = "pong"
)

// IngestEvent reports the progress of one upload to websocket subscribers.
type IngestEvent struct {
	Type       string    `json:"type"`
	UploadID   string    `json:"uploadId,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	OwnerID    string    `json:"ownerId,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Chunks     int       `json:"chunks,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

type WebsocketRequest struct {
	Type string `json:"type"`
}
