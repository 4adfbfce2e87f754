package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrUnparseable means the completion could not be read as JSON at all.
	ErrUnparseable = errors.New("agent: completion is not valid JSON")
	// ErrNotArray means the completion was valid JSON but not an action array.
	ErrNotArray = errors.New("agent: completion is not an action array")
	// ErrEmptyCompletion means the model returned no text.
	ErrEmptyCompletion = errors.New("agent: empty completion")
)

// Models wrap JSON in markdown fences despite being told not to. Stripping the
// fences is a normalisation step ahead of parsing, not part of the contract.
var fencePattern = regexp.MustCompile("```json\n?|\n?```")

func stripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// parseActions turns a raw completion into the ordered action list. Elements
// that do not decode as action objects become unrecognised actions rather than
// failing the batch; the whole batch fails only when the top level is wrong.
func parseActions(text string) ([]Action, error) {
	cleaned := stripFences(text)
	if !json.Valid([]byte(cleaned)) {
		return nil, ErrUnparseable
	}
	// A top-level null unmarshals into a nil slice without error, so it would
	// otherwise pass as an empty batch.
	if cleaned == "null" {
		return nil, ErrNotArray
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, ErrNotArray
	}
	actions := make([]Action, 0, len(items))
	for _, item := range items {
		var action Action
		if err := json.Unmarshal(item, &action); err != nil {
			actions = append(actions, Action{})
			continue
		}
		actions = append(actions, action)
	}
	return actions, nil
}
