package service

import (
	"encoding/json"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

// User-facing extraction failure messages. The raw model output is appended
// by core.UserMessage.
const (
	MsgJSONNotFound     = "❌ Failed to locate JSON in response"
	MsgJSONParseFailed  = "❌ Failed to parse extracted JSON"
	MsgUnexpectedFormat = "❌ The model returned an unexpected format"
)

// ExtractJSON recovers one JSON value of the given shape from model output.
// open/close are the delimiters of the wanted shape: '[' ']' for arrays,
// '{' '}' for objects.
//
// The whole output is parsed first. If that fails, the span from the first
// open delimiter to the last close delimiter is parsed. Nothing else is
// attempted.
func ExtractJSON(output string, open, close byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(output)
	if json.Valid([]byte(trimmed)) {
		if len(trimmed) == 0 || trimmed[0] != open {
			return nil, core.ErrExtraction(core.CodeUnexpectedFormat, MsgUnexpectedFormat, output)
		}
		return json.RawMessage(trimmed), nil
	}

	start := strings.IndexByte(output, open)
	end := strings.LastIndexByte(output, close)
	if start == -1 || end == -1 || end < start {
		return nil, core.ErrExtraction(core.CodeJSONNotFound, MsgJSONNotFound, output)
	}

	span := output[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, core.ErrExtraction(core.CodeJSONParseFailed, MsgJSONParseFailed, output)
	}
	return json.RawMessage(span), nil
}

// DecodeArray recovers a JSON array from model output and decodes each
// element into T. An element that does not fit T is an unexpected format.
func DecodeArray[T any](output string) ([]T, error) {
	raw, err := ExtractJSON(output, '[', ']')
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, core.ErrExtraction(core.CodeUnexpectedFormat, MsgUnexpectedFormat, output).WithCause(err)
	}
	return items, nil
}

// DecodeObject recovers a JSON object from model output into v.
func DecodeObject(output string, v any) error {
	raw, err := ExtractJSON(output, '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return core.ErrExtraction(core.CodeUnexpectedFormat, MsgUnexpectedFormat, output).WithCause(err)
	}
	return nil
}
