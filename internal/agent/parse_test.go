package agent

import (
	"errors"
	"strings"
	"testing"

	_ "github.com/accesshub/accesshub/testing"
)

func TestParseActionsPlainArray(t *testing.T) {
	actions, err := parseActions(`[{"type":"CREATE_ROLE","name":"editor","description":"Can edit"}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].Type != ActionCreateRole || actions[0].Name != "editor" {
		t.Fatalf("unexpected action: %+v", actions[0])
	}
}

func TestParseActionsStripsFences(t *testing.T) {
	fenced := "```json\n[{\"type\":\"CREATE_PERMISSION\",\"name\":\"docs:edit\"}]\n```"
	actions, err := parseActions(fenced)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 1 || actions[0].Type != ActionCreatePermission {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestParseActionsInvalidJSON(t *testing.T) {
	if _, err := parseActions("I could not understand that command."); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestParseActionsNotArray(t *testing.T) {
	if _, err := parseActions(`{"type":"CREATE_ROLE","name":"editor"}`); !errors.Is(err, ErrNotArray) {
		t.Fatalf("expected ErrNotArray, got %v", err)
	}
}

func TestParseActionsNullCompletion(t *testing.T) {
	for _, text := range []string{"null", "```json\nnull\n```", "  null  "} {
		if _, err := parseActions(text); !errors.Is(err, ErrNotArray) {
			t.Fatalf("expected ErrNotArray for %q, got %v", text, err)
		}
	}
}

func TestParseActionsEmptyArray(t *testing.T) {
	actions, err := parseActions("[]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %d", len(actions))
	}
}

func TestParseActionsNonObjectElement(t *testing.T) {
	actions, err := parseActions(`[{"type":"CREATE_ROLE","name":"editor"}, "junk", 42]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	if actions[1].Type != "" || actions[2].Type != "" {
		t.Fatalf("expected junk elements to decode as unrecognised actions: %+v", actions)
	}
}

func TestBuildPromptEmbedsDirectory(t *testing.T) {
	prompt := buildPrompt([]string{"admin", "editor"}, []string{"docs:edit"}, "add a viewer role")
	for _, want := range []string{"admin, editor", "docs:edit", `Command: "add a viewer role"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
