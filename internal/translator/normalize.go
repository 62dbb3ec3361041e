package translator

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"modelrelay/internal/models"
)

// Normalize reshapes an arbitrary webhook reply body into displayable
// records. The reply shape is not contractually fixed, so a closed check
// sequence is evaluated in priority order:
//
//  1. body is not JSON            -> one record carrying the raw text
//  2. reply is not an object      -> one record carrying the stringified value
//  3. responses is an array       -> one record per element
//  4. responses is an object      -> one record per key, in document order
//  5. anything else               -> one record with the pretty-printed reply
//
// Normalize never fails and always returns at least one record.
func Normalize(body []byte) []models.ResultRecord {
	if !gjson.ValidBytes(body) {
		return []models.ResultRecord{{
			Model:    "result",
			Response: strings.TrimSpace(string(body)),
		}}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return []models.ResultRecord{{
			Model:    "result",
			Response: scalarText(root),
		}}
	}

	responses := root.Get("responses")
	switch {
	case responses.IsArray():
		return fromArray(responses)
	case responses.IsObject():
		return fromMap(responses)
	default:
		return []models.ResultRecord{{
			Model:    "result",
			Response: prettyJSON(root.Raw),
		}}
	}
}

// fromArray trusts the reply to be shaped correctly already and carries
// each element over, coercing structured response values to text.
func fromArray(responses gjson.Result) []models.ResultRecord {
	var records []models.ResultRecord
	responses.ForEach(func(_, item gjson.Result) bool {
		model := item.Get("model").String()
		if model == "" {
			model = "unknown"
		}
		records = append(records, models.ResultRecord{
			Model:     model,
			Response:  valueText(item.Get("response")),
			LatencyMs: item.Get("latencyMs").Int(),
		})
		return true
	})
	if len(records) == 0 {
		return []models.ResultRecord{}
	}
	return records
}

// fromMap turns a model-id -> result mapping into records, preserving the
// document order of the keys.
func fromMap(responses gjson.Result) []models.ResultRecord {
	var records []models.ResultRecord
	responses.ForEach(func(key, entry gjson.Result) bool {
		if !entry.IsObject() {
			records = append(records, models.ResultRecord{
				Model:    key.String(),
				Response: scalarText(entry),
			})
			return true
		}
		records = append(records, models.ResultRecord{
			Model:     key.String(),
			Response:  entryText(entry),
			LatencyMs: entryLatency(entry),
		})
		return true
	})
	return records
}

// entryText picks the first non-empty of the entry's response and text
// fields, falling back to the entry's own JSON.
func entryText(entry gjson.Result) string {
	if resp := entry.Get("response"); resp.Exists() && resp.String() != "" {
		return valueText(resp)
	}
	if text := entry.Get("text"); text.Exists() && text.String() != "" {
		return valueText(text)
	}
	return prettyJSON(entry.Raw)
}

func entryLatency(entry gjson.Result) int64 {
	if v := entry.Get("latencyMs"); v.Exists() {
		return v.Int()
	}
	if v := entry.Get("latency_ms"); v.Exists() {
		return v.Int()
	}
	return 0
}

// valueText coerces any JSON value to display text: strings verbatim,
// everything else as formatted JSON.
func valueText(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	if v.IsObject() || v.IsArray() {
		return prettyJSON(v.Raw)
	}
	return v.Raw
}

func scalarText(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	return strings.TrimSpace(v.Raw)
}

func prettyJSON(raw string) string {
	return strings.TrimSpace(string(pretty.Pretty([]byte(raw))))
}
