package models

import "testing"

func TestEventMessagePrefersValidatedCopy(t *testing.T) {
	e := Event{RawMessage: `{"id":"evt_1","source":"delivery"}`}
	if e.Message() != e.RawMessage {
		t.Fatalf("expected raw message before validation")
	}

	e.ValidatedMessage = `{"id":"evt_1","source":"canonical"}`
	if e.Message() != e.ValidatedMessage {
		t.Fatalf("expected validated message after validation")
	}
}
