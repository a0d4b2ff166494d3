package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("(?s)```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("(?s)```\\s*$")
)

// ExtractJSON pulls the outermost JSON object out of a model response that
// may be wrapped in markdown fences or surrounded by chatter.
func ExtractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	response = fenceOpen.ReplaceAllString(response, "")
	response = fenceClose.ReplaceAllString(response, "")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no valid JSON object found in response")
	}

	jsonStr := response[start : end+1]

	var js json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &js); err != nil {
		return "", fmt.Errorf("extracted text is not valid JSON: %w", err)
	}
	return jsonStr, nil
}

// DecodeJSON extracts and unmarshals a JSON object from response into v.
func DecodeJSON(response string, v any) error {
	raw, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode llm json: %w", err)
	}
	return nil
}
