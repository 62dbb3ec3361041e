package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"modelrelay/internal/models"
	"modelrelay/internal/translator"
	"modelrelay/internal/webhook"
)

// ErrMissingFile indicates an image or audio submit arrived without an
// upload. It is a caller-level precondition: no webhook call is made.
var ErrMissingFile = errors.New("no file uploaded for the selected input type")

// pageData feeds the form template. It is rebuilt fully per render; the
// prior results are replaced, never accumulated.
type pageData struct {
	WebhookURL string
	Catalog    []models.ModelInfo
	Selected   map[string]bool
	ModelsLine string
	Kind       models.InputKind
	Prompt     string
	FileName   string
	Defaulted  bool

	Status      string // "", "success" or "error"
	StatusLine  string
	ErrorDetail string
	Result      *models.RunResult
}

func (s *Server) handleIndex(c echo.Context) error {
	state := models.FormState{
		WebhookURL: s.cfg.Webhook.URL,
		Models:     s.cfg.DefaultSelection(),
		Kind:       models.InputText,
	}
	return c.Render(http.StatusOK, "index.html", s.page(state, false))
}

func (s *Server) handleRun(c echo.Context) error {
	state, defaulted, err := s.formState(c)
	if err != nil {
		return requestError{Status: http.StatusBadRequest, Kind: "invalid_request", Message: err.Error()}
	}

	page := s.page(state, defaulted)

	result, err := s.run(c, state)
	if err != nil {
		page.Status = "error"
		page.StatusLine, page.ErrorDetail = describeRunError(state.Kind, err)
		return c.Render(http.StatusOK, "index.html", page)
	}

	page.Status = "success"
	page.StatusLine = fmt.Sprintf("Success — %.2fs", float64(result.ElapsedMs)/1000)
	page.Result = &result
	return c.Render(http.StatusOK, "index.html", page)
}

func (s *Server) handleAPIRun(c echo.Context) error {
	state, _, err := s.formState(c)
	if err != nil {
		return requestError{Status: http.StatusBadRequest, Kind: "invalid_request", Message: err.Error()}
	}

	result, err := s.run(c, state)
	if err != nil {
		return apiRunError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// run drives one submit through the encode -> send -> normalize pipeline.
// Every failure is terminal for this submit; nothing is retried.
func (s *Server) run(c echo.Context, state models.FormState) (models.RunResult, error) {
	requestID := uuid.NewString()
	kind := string(state.Kind)

	if state.Kind.NeedsFile() && len(state.FileBytes) == 0 {
		submitsTotal.WithLabelValues(kind, "missing_file").Inc()
		return models.RunResult{RequestID: requestID}, ErrMissingFile
	}

	req, err := translator.Encode(state)
	if err != nil {
		submitsTotal.WithLabelValues(kind, "encode_error").Inc()
		return models.RunResult{RequestID: requestID}, err
	}

	slog.Info("forwarding submit",
		"request_id", requestID,
		"input_type", kind,
		"models", strings.Join(state.Models, ","),
		"multipart", req.Multipart,
		"webhook", state.WebhookURL,
	)

	reply, err := s.client.Send(c.Request().Context(), state.WebhookURL, req)
	if err != nil {
		submitsTotal.WithLabelValues(kind, "transport_error").Inc()
		slog.Error("webhook call failed", "request_id", requestID, "err", err)
		return models.RunResult{RequestID: requestID}, err
	}

	webhookDuration.WithLabelValues(kind).Observe(reply.Elapsed.Seconds())

	if !reply.OK() {
		submitsTotal.WithLabelValues(kind, "upstream_status").Inc()
		slog.Error("webhook returned error status",
			"request_id", requestID,
			"status", reply.StatusCode,
			"elapsed_ms", reply.Elapsed.Milliseconds(),
		)
		return models.RunResult{RequestID: requestID}, &webhook.StatusError{
			StatusCode: reply.StatusCode,
			Body:       string(reply.Body),
		}
	}

	submitsTotal.WithLabelValues(kind, "ok").Inc()
	records := translator.Normalize(reply.Body)
	slog.Info("submit complete",
		"request_id", requestID,
		"status", reply.StatusCode,
		"records", len(records),
		"elapsed_ms", reply.Elapsed.Milliseconds(),
	)

	return models.RunResult{
		RequestID: requestID,
		ElapsedMs: reply.Elapsed.Milliseconds(),
		Results:   records,
	}, nil
}

// formState builds an immutable FormState from the submitted form. The
// second return reports whether the model selection fell back to the
// configured default.
func (s *Server) formState(c echo.Context) (models.FormState, bool, error) {
	kind := models.InputKind(c.FormValue("input_type"))
	if kind == "" {
		kind = models.InputText
	}
	if !kind.Valid() {
		return models.FormState{}, false, fmt.Errorf("unknown input type %q", kind)
	}

	params, err := c.FormParams()
	if err != nil {
		return models.FormState{}, false, fmt.Errorf("parse form: %w", err)
	}

	state := models.FormState{
		WebhookURL: strings.TrimSpace(c.FormValue("webhook")),
		Models:     append([]string(nil), params["models"]...),
		Kind:       kind,
		Prompt:     c.FormValue("prompt"),
	}
	if state.WebhookURL == "" {
		state.WebhookURL = s.cfg.Webhook.URL
	}

	defaulted := false
	if len(state.Models) == 0 {
		state.Models = s.cfg.DefaultSelection()
		defaulted = true
	}

	if fh, err := c.FormFile("file"); err == nil && fh != nil && fh.Filename != "" && fh.Size > 0 {
		src, err := fh.Open()
		if err != nil {
			return models.FormState{}, false, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return models.FormState{}, false, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		state.FileName = fh.Filename
		state.FileBytes = data
	}

	return state, defaulted, nil
}

func (s *Server) page(state models.FormState, defaulted bool) pageData {
	selected := make(map[string]bool, len(state.Models))
	for _, id := range state.Models {
		selected[id] = true
	}
	return pageData{
		WebhookURL: state.WebhookURL,
		Catalog:    s.cfg.Catalog(),
		Selected:   selected,
		ModelsLine: strings.Join(state.Models, ", "),
		Kind:       state.Kind,
		Prompt:     state.Prompt,
		FileName:   state.FileName,
		Defaulted:  defaulted,
	}
}

func describeRunError(kind models.InputKind, err error) (line, detail string) {
	var statusErr *webhook.StatusError
	var transportErr *webhook.TransportError

	switch {
	case errors.Is(err, ErrMissingFile):
		switch kind {
		case models.InputAudio:
			return "No file", "No audio file uploaded — please upload an audio file for Whisper."
		default:
			return "No file", "No image uploaded — please upload an image or change input type to text."
		}
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error %d", statusErr.StatusCode), statusErr.Body
	case errors.As(err, &transportErr):
		return "Request failed", transportErr.Error()
	}
	return "Request failed", err.Error()
}

func apiRunError(err error) error {
	var statusErr *webhook.StatusError
	var transportErr *webhook.TransportError

	switch {
	case errors.Is(err, ErrMissingFile):
		return requestError{Status: http.StatusBadRequest, Kind: "missing_file", Message: err.Error()}
	case errors.As(err, &statusErr):
		// The raw upstream body is surfaced verbatim, never normalized.
		return requestError{Status: http.StatusBadGateway, Kind: "upstream_status", Message: statusErr.Body}
	case errors.As(err, &transportErr):
		return requestError{Status: http.StatusBadGateway, Kind: "transport_error", Message: transportErr.Error()}
	}
	return requestError{Status: http.StatusInternalServerError, Kind: "internal_error", Message: "internal server error"}
}
