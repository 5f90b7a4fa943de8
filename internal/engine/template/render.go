package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Dataset is the set of values a step's processor config can reference at
// run time, as `{{ .var.<key> }}`, `{{ index .sys "previous step output" }}`,
// `{{ index .sys "workspace path" }}` and, when enabled, `{{ .global.<key> }}`.
//
// "previous step output" and "workspace path" are not valid Go template
// field names (they contain spaces), so sys is looked up with the `index`
// function rather than dotted field access.
type Dataset struct {
	Var    map[string]string
	Sys    map[string]string
	Global map[string]string
}

func (d Dataset) toMap() map[string]interface{} {
	return map[string]interface{}{
		"var":    stringMapToAny(d.Var),
		"sys":    stringMapToAny(d.Sys),
		"global": stringMapToAny(d.Global),
	}
}

func stringMapToAny(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Render runs the text/template engine, with sprig's function map, over
// every string leaf of processor. A reference to a key absent from dataset
// fails the render (missingkey=error), surfacing as a step failure.
func Render(processor json.RawMessage, dataset Dataset) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(processor, &v); err != nil {
		return nil, fmt.Errorf("decoding processor for render: %w", err)
	}

	data := dataset.toMap()
	var renderErr error
	replaceValue(&v, func(s string) string {
		if renderErr != nil {
			return s
		}
		rendered, err := renderString(s, data)
		if err != nil {
			renderErr = err
			return s
		}
		return rendered
	})
	if renderErr != nil {
		return nil, renderErr
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding processor after render: %w", err)
	}
	return out, nil
}

func renderString(s string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New("step").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(s)
	if err != nil {
		return "", fmt.Errorf("template error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template error: %w", err)
	}
	return buf.String(), nil
}
