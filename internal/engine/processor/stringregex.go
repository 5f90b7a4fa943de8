package processor

import (
	"context"
	"regexp"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// StringRegex matches Input against Regex, optionally rewriting it with
// Replace, or failing if it does not match.
type StringRegex struct {
	Input         string  `json:"input"`
	Regex         string  `json:"regex"`
	MismatchError *string `json:"mismatch_error,omitempty"`
	Replace       *string `json:"replace,omitempty"`
}

// Error kinds specific to StringRegex.
const (
	KindSyntax = "Syntax"
	KindMatch  = "Match"
)

func (p *StringRegex) Name() string { return "String Regex" }

// Validate checks that Regex compiles.
func (p *StringRegex) Validate() error {
	if _, err := regexp.Compile(p.Regex); err != nil {
		return wrapError(KindSyntax, err, "regex error: %s", err)
	}
	return nil
}

// Run matches Input against Regex. If it matches and Replace is nil, Run
// returns nil output. If it matches and Replace is set, Run returns the
// result of substituting capture groups (using Go's regexp "$1" syntax), or nil
// if the substitution is empty. If it does not match, Run fails with
// MismatchError, or a generic message if unset.
func (p *StringRegex) Run(_ context.Context, _ *engctx.Context) (*string, error) {
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return nil, wrapError(KindSyntax, err, "regex error: %s", err)
	}

	if !re.MatchString(p.Input) {
		if p.MismatchError != nil {
			return nil, newError(KindMatch, "%s", *p.MismatchError)
		}
		return nil, newError(KindMatch, "match error: %q does not match pattern: %s", p.Input, p.Regex)
	}

	if p.Replace == nil {
		return nil, nil
	}

	out := re.ReplaceAllString(p.Input, *p.Replace)
	return textOrNil(out), nil
}
