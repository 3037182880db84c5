package types

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type UploadResponse struct {
	DocumentID string    `json:"documentId"`
	Filename   string    `json:"filename"`
	Sections   []Section `json:"sections"`
	Chunks     []Chunk   `json:"chunks"`
	Stats      Stats     `json:"stats"`
	Preview    string    `json:"preview,omitempty"`
	Indexed    bool      `json:"indexed"`
}

type IngestSummary struct {
	File       string `json:"file"`
	DocumentID string `json:"document_id,omitempty"`
	Sections   int    `json:"sections"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}
