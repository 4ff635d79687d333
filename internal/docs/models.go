package docs

import "time"

// Document is the API view of one stored object.
type Document struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
}

// Object is what the object store reports about a stored key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// UploadRequest
// Payload of POST /documents; FileContent is base64.
type UploadRequest struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
	ContentType string `json:"contentType"`
}

type UploadResult struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

type DeleteResult struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

type SyncResult struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// ValidationError marks a client mistake in a document request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
