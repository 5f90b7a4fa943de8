package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRegex_Validate(t *testing.T) {
	p := &StringRegex{Regex: "("}
	var procErr *Error
	require.ErrorAs(t, p.Validate(), &procErr)
	assert.Equal(t, KindSyntax, procErr.Kind)

	p = &StringRegex{Regex: "^ab+c$"}
	require.NoError(t, p.Validate())
}

func TestStringRegex_Run(t *testing.T) {
	replace := "$2/$1"

	tests := []struct {
		name      string
		input     string
		regex     string
		replace   *string
		mismatch  *string
		wantOut   *string
		wantErr   bool
		wantKind  string
	}{
		{
			name:    "match no replace",
			input:   "v1.2.3",
			regex:   `^v\d+\.\d+\.\d+$`,
			wantOut: nil,
		},
		{
			name:    "match with replace",
			input:   "2024-06",
			regex:   `^(\d+)-(\d+)$`,
			replace: &replace,
			wantOut: strPtr("06/2024"),
		},
		{
			name:     "mismatch default error",
			input:    "nope",
			regex:    `^\d+$`,
			wantErr:  true,
			wantKind: KindMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &StringRegex{Input: tt.input, Regex: tt.regex, Replace: tt.replace, MismatchError: tt.mismatch}
			got, err := p.Run(t.Context(), nil)
			if tt.wantErr {
				require.Error(t, err)
				var procErr *Error
				require.ErrorAs(t, err, &procErr)
				assert.Equal(t, tt.wantKind, procErr.Kind)
				return
			}
			require.NoError(t, err)
			if tt.wantOut == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.wantOut, *got)
			}
		})
	}
}

func TestStringRegex_Run_CustomMismatchError(t *testing.T) {
	msg := "version string looks wrong"
	p := &StringRegex{Input: "nope", Regex: `^\d+$`, MismatchError: &msg}

	_, err := p.Run(t.Context(), nil)
	require.Error(t, err)
	assert.Equal(t, msg, err.Error())
}
