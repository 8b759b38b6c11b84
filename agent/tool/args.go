package tool

import (
	"encoding/json"
	"strings"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// argReader accumulates the names of missing or mistyped fields while a
// handler pulls its arguments, so one INVALID_ARGUMENTS error can name all
// offending fields at once.
type argReader struct {
	args map[string]any
	bad  []string
}

func newArgReader(args map[string]any) *argReader {
	return &argReader{args: args}
}

func (r *argReader) String(name string) string {
	raw, ok := r.args[name]
	if !ok {
		r.bad = append(r.bad, name)
		return ""
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		r.bad = append(r.bad, name)
		return ""
	}
	return strings.TrimSpace(s)
}

// Int accepts the numeric shapes JSON decoding produces.
func (r *argReader) Int(name string) int {
	raw, ok := r.args[name]
	if !ok {
		r.bad = append(r.bad, name)
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			r.bad = append(r.bad, name)
			return 0
		}
		return int(n)
	default:
		r.bad = append(r.bad, name)
		return 0
	}
}

func (r *argReader) StringSlice(name string) []string {
	raw, ok := r.args[name]
	if !ok {
		r.bad = append(r.bad, name)
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				r.bad = append(r.bad, name)
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		r.bad = append(r.bad, name)
		return nil
	}
}

// Err returns the accumulated INVALID_ARGUMENTS error, or nil if every
// requested field decoded cleanly.
func (r *argReader) Err() *contractx.Error {
	if len(r.bad) == 0 {
		return nil
	}
	return contractx.NewErrorWithDetails(contractx.KindInvalidArguments,
		map[string]any{"fields": r.bad},
		"missing or malformed arguments")
}
