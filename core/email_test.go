package core_test

import (
	"strings"
	"testing"

	"github.com/getdrafty/drafty-go-sdk/core"
)

func TestParseClassification(t *testing.T) {
	cases := []struct {
		input   string
		want    core.Classification
		wantErr bool
	}{
		{"ignore", core.ClassifyIgnore, false},
		{"notify", core.ClassifyNotify, false},
		{"respond", core.ClassifyRespond, false},
		{"  Respond ", core.ClassifyRespond, false},
		{"IGNORE", core.ClassifyIgnore, false},
		{"archive", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := core.ParseClassification(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClassification(%q): expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClassification(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClassification(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestEmailRender(t *testing.T) {
	email := core.Email{
		From:    "jim@corp.example",
		To:      "me@corp.example",
		Subject: "Sync next week?",
		Body:    "Could we find 30 minutes?",
	}

	rendered := email.Render()
	want := "From: jim@corp.example\nTo: me@corp.example\nSubject: Sync next week?\n\nCould we find 30 minutes?"
	if rendered != want {
		t.Errorf("Render() = %q, want %q", rendered, want)
	}
}

func TestEmailSearchText(t *testing.T) {
	email := core.Email{
		From:    "jim@corp.example",
		Subject: "Sync",
		Body:    "Talk roadmap",
	}

	text := email.SearchText()
	for _, part := range []string{email.From, email.Subject, email.Body} {
		if !strings.Contains(text, part) {
			t.Errorf("SearchText() = %q, missing %q", text, part)
		}
	}

	empty := core.Email{}
	if empty.SearchText() != "" {
		t.Errorf("SearchText() on empty email = %q, want empty", empty.SearchText())
	}
}
