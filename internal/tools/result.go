package tools

import (
	"encoding/json"
	"errors"

	"github.com/mousetail/mousetail/internal/collection"
	"github.com/mousetail/mousetail/internal/errcode"
)

// Result is the envelope every tool returns. On success Data holds the
// tool's fields; on failure Error and Code are set and Data holds optional
// diagnostics such as available_decks.
type Result struct {
	Success bool
	Error   string
	Code    errcode.Code
	Data    map[string]any
}

// OK returns a success envelope.
func OK(data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Success: true, Data: data}
}

// Fail returns a failure envelope for err. A field-not-found error also
// reports the note type's field names.
func Fail(err error) Result {
	r := Result{Error: err.Error(), Code: errcode.CodeOf(err), Data: map[string]any{}}
	var fnf *collection.FieldNotFoundError
	if errors.As(err, &fnf) {
		r.Data["available_fields"] = fnf.Available
	}
	return r
}

// With returns r with one more data field.
func (r Result) With(key string, value any) Result {
	data := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		data[k] = v
	}
	data[key] = value
	r.Data = data
	return r
}

// Get returns a data field.
func (r Result) Get(key string) any {
	return r.Data[key]
}

// MarshalJSON flattens the envelope: success, then error and code on
// failure, then the data fields.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+3)
	for k, v := range r.Data {
		out[k] = v
	}
	out["success"] = r.Success
	if !r.Success {
		out["error"] = r.Error
		out["code"] = r.Code
	}
	return json.Marshal(out)
}
