package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/imannovv/gravitee-audit/internal/pkg/metrics"
)

// DecodePatch turns a stored patch (JSON text or an already decoded list)
// into display operations. Any failure yields nil for the whole patch.
func DecodePatch(raw any) (ops []model.PatchOperation) {
	if raw == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("patch decode panicked", "panic", r)
			ops = nil
		}
		if ops == nil {
			metrics.PatchDecodes.WithLabelValues("invalid").Inc()
		} else {
			metrics.PatchDecodes.WithLabelValues("ok").Inc()
		}
	}()

	parsed := raw
	if text, ok := raw.(string); ok {
		v, err := decodeJSON(text)
		if err != nil {
			logger.Warn("patch is not valid JSON", "error", err)
			return nil
		}
		parsed = v
	}

	list, ok := parsed.([]any)
	if !ok {
		return nil
	}

	ops = make([]model.PatchOperation, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			logger.Warn("patch entry is not an object", "index", i)
			return nil
		}
		op := model.PatchOperation{
			Operation: textField(entry, "op"),
			Path:      textField(entry, "path"),
			From:      textField(entry, "from"),
		}
		if v, present := entry["value"]; present {
			op.Value = model.PatchValue{Present: true, Value: decodeNested(v)}
		}
		ops = append(ops, op)
	}
	return ops
}

func textField(entry map[string]any, key string) string {
	switch v := entry[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// decodeNested unwraps doubly encoded values; undecodable text is kept verbatim.
func decodeNested(v any) any {
	text, ok := v.(string)
	if !ok || !(strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[")) {
		return v
	}
	decoded, err := decodeJSON(text)
	if err != nil {
		return text
	}
	return decoded
}

// decodeJSON keeps numbers as json.Number so large ids survive the round trip.
func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
