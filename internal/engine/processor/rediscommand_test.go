package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCommand_Validate(t *testing.T) {
	p := &RedisCommand{URL: "redis://localhost:6379", Command: "GET"}
	require.NoError(t, p.Validate())

	p = &RedisCommand{URL: "not a url", Command: "GET"}
	err := p.Validate()
	require.Error(t, err)
	var procErr *Error
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, KindURL, procErr.Kind)
}

func TestStringifyReply(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{name: "valid utf8 string", in: "hello", want: "hello"},
		{name: "int64", in: int64(7), want: "7"},
		{name: "nested slice", in: []interface{}{"a", int64(1)}, want: "[a, 1]"},
		{name: "invalid utf8 bytes", in: []byte{0xff, 0xfe}, want: `"\xff\xfe"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringifyReply(tt.in))
		})
	}
}
