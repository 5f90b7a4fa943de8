package processor

import (
	"context"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// PrintOutput returns its configured Output verbatim. It is infallible:
// Validate and Run never return an error.
type PrintOutput struct {
	Output string `json:"output"`
}

func (p *PrintOutput) Name() string { return "Print Output" }

func (p *PrintOutput) Validate() error { return nil }

// Run returns Output, or nil if Output is empty.
func (p *PrintOutput) Run(_ context.Context, _ *engctx.Context) (*string, error) {
	return textOrNil(p.Output), nil
}
