package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/tidwall/gjson"
)

// bind decodes body into T so JSON type mismatches are rejected.
// Missing fields are accepted.
func bind[T any](body json.RawMessage) (T, error) {
	var v T
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return v, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return v, nil
}

// validate is bind for callers that keep the raw document.
func validate[T any](body json.RawMessage) error {
	_, err := bind[T](body)
	return err
}

// setFields overwrites top-level keys of doc.
func setFields(doc json.RawMessage, kv map[string]any) (json.RawMessage, error) {
	var f map[string]json.RawMessage
	if err := json.Unmarshal(doc, &f); err != nil || f == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}
	for k, v := range kv {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		f[k] = b
	}
	return json.Marshal(f)
}

// normalizeStage rewrites a known stage alias to its canonical name.
// Unknown values are left for the caller to see.
func normalizeStage(doc json.RawMessage) (json.RawMessage, error) {
	v := gjson.GetBytes(doc, "stage")
	if v.Type != gjson.String {
		return doc, nil
	}
	st, err := model.ParseStage(v.Str)
	if err != nil || string(st) == v.Str {
		return doc, nil //nolint:nilerr // unknown stages are stored as given
	}
	return setFields(doc, map[string]any{"stage": st})
}

func idOf(doc json.RawMessage) int64 {
	return gjson.GetBytes(doc, model.FieldID).Int()
}

func decodeAs[T any](doc json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, fmt.Errorf("decode stored document: %w", err)
	}
	return v, nil
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9._-]*)`) //nolint:gochecknoglobals // compiled once

// mentions returns the distinct @handles in content, in order of appearance.
func mentions(content string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		h := strings.TrimRight(m[1], ".-_")
		if h != "" && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}
