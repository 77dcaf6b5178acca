package stripesync

import "testing"

func TestRemoteObjectID_ExpandableReference(t *testing.T) {
	doc := RemoteObject{
		"plain":    "cus_123",
		"expanded": map[string]interface{}{"id": "cus_456", "object": "customer"},
		"number":   float64(7),
	}

	if got := doc.ID("plain"); got != "cus_123" {
		t.Fatalf("ID(plain) = %q", got)
	}
	if got := doc.ID("expanded"); got != "cus_456" {
		t.Fatalf("ID(expanded) = %q", got)
	}
	if got := doc.ID("number"); got != "" {
		t.Fatalf("ID(number) = %q, want empty", got)
	}
	if got := doc.ID("missing"); got != "" {
		t.Fatalf("ID(missing) = %q, want empty", got)
	}
}

func TestRemoteObjectTime(t *testing.T) {
	doc := RemoteObject{"at": float64(1700000000), "zero": float64(0)}

	at := doc.Time("at")
	if at == nil || at.Unix() != 1700000000 {
		t.Fatalf("Time(at) = %v", at)
	}
	if doc.Time("zero") != nil {
		t.Fatalf("expected zero timestamp to map to nil")
	}
	if doc.Time("missing") != nil {
		t.Fatalf("expected missing timestamp to map to nil")
	}
}

func TestEventObject(t *testing.T) {
	event := RemoteObject{
		"id":   "evt_1",
		"data": map[string]interface{}{"object": map[string]interface{}{"id": "cus_1"}},
	}
	obj := EventObject(event)
	if obj == nil || obj.Str("id") != "cus_1" {
		t.Fatalf("EventObject = %v", obj)
	}
	if EventObject(RemoteObject{"id": "evt_2"}) != nil {
		t.Fatalf("expected nil object for event without data")
	}
}
