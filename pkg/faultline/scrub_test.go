package faultline

import (
	"strings"
	"testing"
)

func TestScrubMessage_RedactsSecrets(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	tests := []struct {
		name    string
		message string
	}{
		{"api key", "request failed: api_key=abc123def456"},
		{"openai key", "auth with sk-proj-abcdefghijklmnopqrstuvwxyz123456"},
		{"password", "login failed for password: hunter2"},
		{"email", "user john.doe@example.com not found"},
		{"jwt", "token eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scrubbed := s.ScrubMessage(tt.message)
			if !strings.Contains(scrubbed, "[REDACTED]") {
				t.Errorf("ScrubMessage(%q) = %q, nothing redacted", tt.message, scrubbed)
			}
		})
	}
}

func TestScrubMessage_LeavesCleanTextAlone(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	message := "connection refused to upstream service"
	if got := s.ScrubMessage(message); got != message {
		t.Errorf("Clean message modified: %q", got)
	}
}

func TestScrubMessage_Truncates(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.MaxMessageSize = 32
	s := NewScrubber(cfg)

	got := s.ScrubMessage(strings.Repeat("a", 100))
	if len(got) != 32 {
		t.Errorf("Truncated length = %d, want 32", len(got))
	}
	if !strings.HasSuffix(got, "...[TRUNCATED]") {
		t.Errorf("Missing truncation marker: %q", got)
	}
}

func TestScrubEvent_SensitiveKeysRedacted(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	event := NewEvent()
	event.Tags = map[string]string{
		"auth_token": "tok_123",
		"region":     "eu-west-1",
	}
	event.Extra = map[string]any{
		"api_key":  "abc",
		"attempts": 3,
	}

	s.ScrubEvent(event)

	if event.Tags["auth_token"] != "[REDACTED]" {
		t.Errorf("Sensitive tag survived: %q", event.Tags["auth_token"])
	}
	if event.Tags["region"] != "eu-west-1" {
		t.Errorf("Clean tag modified: %q", event.Tags["region"])
	}
	if event.Extra["api_key"] != "[REDACTED]" {
		t.Errorf("Sensitive extra survived: %v", event.Extra["api_key"])
	}
	if event.Extra["attempts"] != 3 {
		t.Errorf("Clean extra modified: %v", event.Extra["attempts"])
	}
}

func TestScrubEvent_ExceptionsAndFramePaths(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	event := NewEvent()
	event.Exceptions = []Exception{{
		Type:  "error",
		Value: "could not read secret=topsecret from vault",
		Stacktrace: &Stacktrace{Frames: []Frame{
			{Function: "app::run", Filename: "/home/jdoe/src/app/main.rs"},
		}},
	}}

	s.ScrubEvent(event)

	if strings.Contains(event.Exceptions[0].Value, "topsecret") {
		t.Errorf("Exception value not scrubbed: %q", event.Exceptions[0].Value)
	}
	if strings.Contains(event.Exceptions[0].Stacktrace.Frames[0].Filename, "jdoe") {
		t.Errorf("Frame path not normalized: %q", event.Exceptions[0].Stacktrace.Frames[0].Filename)
	}
}

func TestScrubEvent_ExtraKeyPatterns(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.SensitiveKeyPatterns = []string{"internal_id"}
	s := NewScrubber(cfg)

	event := NewEvent()
	event.Extra = map[string]any{"customer_internal_id": "abc-42"}

	s.ScrubEvent(event)

	if event.Extra["customer_internal_id"] != "[REDACTED]" {
		t.Errorf("Configured pattern not applied: %v", event.Extra["customer_internal_id"])
	}
}

func TestScrubber_BeforeSendIntegration(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())
	client, transport := newTestClient(t, ClientOptions{BeforeSend: s.BeforeSend})

	event := NewEvent()
	event.Message = "login failed, password: hunter2"
	client.CaptureEvent(event, nil)

	sent := transport.getEvents()[0]
	if strings.Contains(sent.Message, "hunter2") {
		t.Errorf("BeforeSend did not scrub the message: %q", sent.Message)
	}
}
