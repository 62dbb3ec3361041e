package models

// InputKind selects how a submitted payload is encoded on the wire.
type InputKind string

const (
	InputText  InputKind = "text"
	InputImage InputKind = "image"
	InputAudio InputKind = "audio"
)

// Valid reports whether k names a known input kind.
func (k InputKind) Valid() bool {
	switch k {
	case InputText, InputImage, InputAudio:
		return true
	}
	return false
}

// NeedsFile reports whether submits of this kind require an uploaded file.
func (k InputKind) NeedsFile() bool {
	return k == InputImage || k == InputAudio
}

// ModelInfo describes one selectable backend model from the catalog.
type ModelInfo struct {
	ID    string
	Title string
	Desc  string
}

// FormState captures one submit's worth of user input. It is built fresh
// per request and passed by value; nothing about it outlives the submit.
type FormState struct {
	WebhookURL string
	Models     []string
	Kind       InputKind
	Prompt     string
	FileName   string
	FileBytes  []byte
}

// OutboundRequest is a fully encoded webhook payload ready to send once.
type OutboundRequest struct {
	ContentType string
	Body        []byte
	Multipart   bool
}

// ResultRecord is the uniform display unit produced from any reply shape.
// Response is always a display string, even when the reply carried
// structured JSON in its place.
type ResultRecord struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	LatencyMs int64  `json:"latencyMs"`
}

// RunResult is the outcome of one successful submit.
type RunResult struct {
	RequestID string         `json:"requestId"`
	ElapsedMs int64          `json:"elapsedMs"`
	Results   []ResultRecord `json:"results"`
}
