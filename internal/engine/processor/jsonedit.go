package processor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/itchyny/gojq"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// JsonEdit runs a jq-style program against a JSON document.
type JsonEdit struct {
	JSON         string `json:"json"`
	Program      string `json:"program"`
	PrettyOutput bool   `json:"pretty_output"`
}

// Error kinds specific to JsonEdit.
const (
	KindProgram = "Program"
	KindJSON    = "Json"
)

func (p *JsonEdit) Name() string { return "JSON Edit" }

// Validate checks that Program compiles as a jq query and JSON parses.
func (p *JsonEdit) Validate() error {
	if _, err := gojq.Parse(p.Program); err != nil {
		return wrapError(KindProgram, err, "program error: %s", err)
	}
	var v interface{}
	if err := json.Unmarshal([]byte(p.JSON), &v); err != nil {
		return wrapError(KindJSON, err, "json error: %s", err)
	}
	return nil
}

// Run evaluates Program against JSON. Each produced value that is not JSON
// null contributes one line to the output: unquoted for strings, stringified
// (pretty-printed if PrettyOutput) otherwise. Lines are joined with "\n" and
// the whole result is trimmed of leading/trailing whitespace (I6).
func (p *JsonEdit) Run(_ context.Context, _ *engctx.Context) (*string, error) {
	query, err := gojq.Parse(p.Program)
	if err != nil {
		return nil, wrapError(KindProgram, err, "program error: %s", err)
	}

	var input interface{}
	if err := json.Unmarshal([]byte(p.JSON), &input); err != nil {
		return nil, wrapError(KindJSON, err, "json error: %s", err)
	}

	iter := query.Run(input)
	var lines []string

	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, otherError(err)
		}
		if v == nil {
			continue
		}

		lines = append(lines, p.stringify(v))
	}

	joined := strings.TrimSpace(strings.Join(lines, "\n"))
	return textOrNil(joined), nil
}

func (p *JsonEdit) stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}

	var b []byte
	if p.PrettyOutput {
		b, _ = json.MarshalIndent(v, "", "  ")
	} else {
		b, _ = json.Marshal(v)
	}
	return string(b)
}
