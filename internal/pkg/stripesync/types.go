package stripesync

import (
	"encoding/json"
	"time"
)

// RemoteObject is a Stripe API object as a plain key-value document, either
// decoded from a webhook payload or returned by the API client.
type RemoteObject map[string]interface{}

// Str returns the string value at key, or "" when absent or not a string.
func (o RemoteObject) Str(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

// ID returns the identifier at key. Expandable references arrive either as
// a bare id string or as a nested object carrying an "id" field.
func (o RemoteObject) ID(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case map[string]interface{}:
		if id, ok := v["id"].(string); ok {
			return id
		}
	}
	return ""
}

// Bool returns the boolean at key, or false when absent.
func (o RemoteObject) Bool(key string) bool {
	v, _ := o[key].(bool)
	return v
}

// Int returns the integer at key. JSON numbers decode as float64, so both
// representations are accepted.
func (o RemoteObject) Int(key string) int64 {
	switch v := o[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// IntPtr returns the integer at key, or nil when the field is absent or null.
func (o RemoteObject) IntPtr(key string) *int64 {
	if _, ok := o[key]; !ok {
		return nil
	}
	if o[key] == nil {
		return nil
	}
	n := o.Int(key)
	return &n
}

// Float returns the number at key, or 0.
func (o RemoteObject) Float(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// FloatPtr returns the number at key, or nil when absent or null.
func (o RemoteObject) FloatPtr(key string) *float64 {
	if v, ok := o[key]; !ok || v == nil {
		return nil
	}
	f := o.Float(key)
	return &f
}

// Time converts the epoch timestamp at key to UTC, or nil for absent,
// null or zero values.
func (o RemoteObject) Time(key string) *time.Time {
	secs := o.Int(key)
	if secs == 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

// Sub returns the nested object at key, or nil.
func (o RemoteObject) Sub(key string) RemoteObject {
	if v, ok := o[key].(map[string]interface{}); ok {
		return RemoteObject(v)
	}
	return nil
}

// JSON re-encodes the value at key for storage in a json column. Absent and
// null values come back as "".
func (o RemoteObject) JSON(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// EventObject extracts the data.object document of a webhook event payload.
func EventObject(event RemoteObject) RemoteObject {
	data := event.Sub("data")
	if data == nil {
		return nil
	}
	return data.Sub("object")
}

// ParseDocument decodes a raw JSON payload into a RemoteObject.
func ParseDocument(raw []byte) (RemoteObject, error) {
	var doc RemoteObject
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
