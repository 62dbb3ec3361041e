package translator

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"modelrelay/internal/models"
)

const contentTypeJSON = "application/json"

// jsonPayload mirrors the webhook's JSON contract. The prompt field is
// overloaded: it carries the user's text for text submits and a base64
// data URL for image submits; the receiving workflow keys off inputType.
type jsonPayload struct {
	Prompt     string   `json:"prompt"`
	Models     []string `json:"models"`
	InputType  string   `json:"inputType"`
	PromptText string   `json:"prompt_text,omitempty"`
}

// Encode converts one submit into the single outbound webhook request.
//
// The field naming follows the webhook's fixed wire contract, not local
// taste: the binary audio part is named "prompt", and a textual prompt on
// a binary submit is written under both "prompt" and "prompt_text" because
// downstream nodes read either name. Callers must enforce the file
// precondition for image and audio kinds before calling.
func Encode(state models.FormState) (models.OutboundRequest, error) {
	switch state.Kind {
	case models.InputImage:
		return encodeJSON(jsonPayload{
			Prompt:     DataURL(state.FileBytes, state.FileName),
			Models:     state.Models,
			InputType:  string(state.Kind),
			PromptText: state.Prompt,
		})
	case models.InputAudio:
		return encodeMultipart(state)
	default:
		return encodeJSON(jsonPayload{
			Prompt:    state.Prompt,
			Models:    state.Models,
			InputType: string(state.Kind),
		})
	}
}

func encodeJSON(payload jsonPayload) (models.OutboundRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.OutboundRequest{}, fmt.Errorf("marshal webhook payload: %w", err)
	}
	return models.OutboundRequest{
		ContentType: contentTypeJSON,
		Body:        body,
	}, nil
}

func encodeMultipart(state models.FormState) (models.OutboundRequest, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("prompt", state.FileName)
	if err != nil {
		return models.OutboundRequest{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(state.FileBytes); err != nil {
		return models.OutboundRequest{}, fmt.Errorf("write file part: %w", err)
	}

	modelsJSON, err := json.Marshal(state.Models)
	if err != nil {
		return models.OutboundRequest{}, fmt.Errorf("marshal models field: %w", err)
	}
	if err := writer.WriteField("models", string(modelsJSON)); err != nil {
		return models.OutboundRequest{}, fmt.Errorf("write models field: %w", err)
	}
	if err := writer.WriteField("inputType", string(state.Kind)); err != nil {
		return models.OutboundRequest{}, fmt.Errorf("write inputType field: %w", err)
	}

	if state.Prompt != "" {
		// Double-write: some receiving nodes read body.prompt, others
		// read body.prompt_text.
		if err := writer.WriteField("prompt", state.Prompt); err != nil {
			return models.OutboundRequest{}, fmt.Errorf("write prompt field: %w", err)
		}
		if err := writer.WriteField("prompt_text", state.Prompt); err != nil {
			return models.OutboundRequest{}, fmt.Errorf("write prompt_text field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return models.OutboundRequest{}, fmt.Errorf("finalise multipart body: %w", err)
	}

	return models.OutboundRequest{
		ContentType: writer.FormDataContentType(),
		Body:        buf.Bytes(),
		Multipart:   true,
	}, nil
}

// DataURL embeds image bytes as a data:<mime>;base64,<payload> string,
// inferring the MIME type from the filename extension. The extension match
// is case-insensitive and unknown or absent extensions fall back to
// image/png.
func DataURL(data []byte, filename string) string {
	mime := "image/png"
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg":
		mime = "image/jpeg"
	case "gif":
		mime = "image/gif"
	case "webp":
		mime = "image/webp"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
