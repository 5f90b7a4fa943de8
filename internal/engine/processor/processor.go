// Package processor implements the processor registry (C1): a closed,
// serializable tagged union of built-in processor kinds, each with its own
// validate/run contract.
package processor

import (
	"context"
	"encoding/json"
	"fmt"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// Processor is the contract every built-in kind satisfies.
//
// Run returns the step's textual output. A nil pointer means "no output",
// which becomes an empty string for the next step's
// `sys.previous step output` reference.
type Processor interface {
	Name() string
	Validate() error
	Run(ctx context.Context, ectx *engctx.Context) (*string, error)
}

// Step wraps a decoded Processor alongside the externally tagged kind name
// it was read from, so it can be re-encoded in the same `{"Kind": {...}}`
// wire shape.
type Step struct {
	Kind      string
	Processor Processor
}

// UnmarshalJSON decodes the externally tagged `{"Kind": {fields...}}` wire
// format described in spec.md §6 into the concrete processor kind.
func (s *Step) UnmarshalJSON(data []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding processor envelope: %w", err)
	}
	if len(envelope) != 1 {
		return fmt.Errorf("processor envelope must have exactly one key, got %d", len(envelope))
	}

	for kind, raw := range envelope {
		p, err := decode(kind, raw)
		if err != nil {
			return err
		}
		s.Kind = kind
		s.Processor = p
		return nil
	}
	return fmt.Errorf("unreachable: empty processor envelope")
}

// MarshalJSON re-encodes the processor in its externally tagged wire shape.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Processor{s.Kind: s.Processor})
}

func decode(kind string, raw json.RawMessage) (Processor, error) {
	switch kind {
	case "GitClone":
		var p GitClone
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding GitClone: %w", err)
		}
		return &p, nil
	case "HttpRequest":
		var p HttpRequest
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding HttpRequest: %w", err)
		}
		return &p, nil
	case "JsonEdit":
		var p JsonEdit
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding JsonEdit: %w", err)
		}
		return &p, nil
	case "PrintOutput":
		var p PrintOutput
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding PrintOutput: %w", err)
		}
		return &p, nil
	case "RedisCommand":
		var p RedisCommand
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding RedisCommand: %w", err)
		}
		return &p, nil
	case "ShellCommand":
		var p ShellCommand
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding ShellCommand: %w", err)
		}
		return &p, nil
	case "SqlQuery":
		var p SqlQuery
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding SqlQuery: %w", err)
		}
		return &p, nil
	case "StringRegex":
		var p StringRegex
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding StringRegex: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown processor kind %q", kind)
	}
}

// normalPathComponents validates invariant I5: every component of path must
// be a plain name — no "..", no root, no drive/prefix.
func normalPathComponents(path string) error {
	return validateNormalPath(path)
}
