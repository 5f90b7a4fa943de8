// Package template implements the two-pass substitution applied to a step's
// processor configuration (C3): a literal replace pass and a text/template
// pass. The literal `{key}` replace (SubstituteVariables) runs once at
// instantiation time; the literal `{$input}`/`{$workspace}` replace
// (SubstituteRunContext) and the text/template pass (Render) run at
// step-execution time.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Binding is a single `{key}` substitution applied at instantiation time.
type Binding struct {
	Key   string
	Value string
}

// SubstituteVariables walks processor, replacing every `{key}` occurrence
// found in string leaves with the matching binding's value. It recurses into
// arrays and objects; non-string scalars are left untouched.
func SubstituteVariables(processor json.RawMessage, bindings []Binding) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(processor, &v); err != nil {
		return nil, fmt.Errorf("decoding processor for substitution: %w", err)
	}

	replaceValue(&v, func(s string) string {
		for _, b := range bindings {
			s = strings.ReplaceAll(s, "{"+b.Key+"}", b.Value)
		}
		return s
	})

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding processor after substitution: %w", err)
	}
	return out, nil
}

// SubstituteRunContext replaces the `{$input}` and `{$workspace}` tokens
// found in string leaves of processor with the previous step's output and
// the job's workspace path.
func SubstituteRunContext(processor json.RawMessage, input, workspace string) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(processor, &v); err != nil {
		return nil, fmt.Errorf("decoding processor for substitution: %w", err)
	}

	replaceValue(&v, func(s string) string {
		s = strings.ReplaceAll(s, "{$input}", input)
		s = strings.ReplaceAll(s, "{$workspace}", workspace)
		return s
	})

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding processor after substitution: %w", err)
	}
	return out, nil
}

func replaceValue(v *interface{}, f func(string) string) {
	switch val := (*v).(type) {
	case []interface{}:
		for i := range val {
			replaceValue(&val[i], f)
		}
	case map[string]interface{}:
		for k := range val {
			item := val[k]
			replaceValue(&item, f)
			val[k] = item
		}
	case string:
		*v = f(val)
	}
}
