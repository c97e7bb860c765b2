package api

import (
	"bytes"
	"encoding/json"
)

// IDParams is the parameter object of the methods addressing a single post
type IDParams struct {
	ID string `json:"id"`
}

// bindParams decodes params into v. Both a parameter object and a
// single-element positional array holding that object are accepted.
func bindParams(params json.RawMessage, v interface{}) error {
	raw := bytes.TrimSpace(params)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return InvalidParams("missing params")
	}

	if raw[0] == '[' {
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return InvalidParams("invalid params: %v", err)
		}
		if len(positional) != 1 {
			return InvalidParams("expected 1 positional param, got %d", len(positional))
		}
		raw = positional[0]
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return InvalidParams("invalid params: %v", err)
	}
	return nil
}

// bindID decodes an id parameter. A bare string is accepted in positional form.
func bindID(params json.RawMessage) (string, error) {
	raw := bytes.TrimSpace(params)
	if len(raw) > 0 && raw[0] == '[' {
		var positional []string
		if err := json.Unmarshal(raw, &positional); err == nil {
			if len(positional) != 1 || positional[0] == "" {
				return "", InvalidParams("id is required")
			}
			return positional[0], nil
		}
	}

	var p IDParams
	if err := bindParams(params, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", InvalidParams("id is required")
	}
	return p.ID, nil
}
