package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintOutput_Run(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   *string
	}{
		{name: "non-empty", output: "hello", want: strPtr("hello")},
		{name: "empty", output: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PrintOutput{Output: tt.output}
			require.NoError(t, p.Validate())

			got, err := p.Run(t.Context(), nil)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
