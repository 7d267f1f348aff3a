package tools

import (
	"encoding/json"
	"fmt"
)

// Result is the structured acknowledgment a tool invocation sends back
// down the channel. Fields carries per-tool echoed values and is
// flattened into the same JSON object on marshal.
type Result struct {
	Success  bool
	Error    string
	Recorded string
	Message  string
	Fields   map[string]any
}

// MarshalJSON flattens the fixed fields and the echoed fields into a
// single object, the shape the remote agent is prompted against.
func (r Result) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(r.Fields)+4)
	for key, value := range r.Fields {
		payload[key] = value
	}
	payload["success"] = r.Success
	if r.Error != "" {
		payload["error"] = r.Error
	}
	if r.Recorded != "" {
		payload["recorded"] = r.Recorded
	}
	if r.Message != "" {
		payload["message"] = r.Message
	}
	return json.Marshal(payload)
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

func success(recorded, message string) Result {
	return Result{Success: true, Recorded: recorded, Message: message}
}

func (r Result) withField(key string, value any) Result {
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	r.Fields[key] = value
	return r
}
