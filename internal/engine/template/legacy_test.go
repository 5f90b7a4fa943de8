package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteVariables(t *testing.T) {
	raw := json.RawMessage(`{"output":"hello {name}, run {n}","headers":[{"name":"X-User","value":"{name}"}]}`)

	out, err := SubstituteVariables(raw, []Binding{
		{Key: "name", Value: "ada"},
		{Key: "n", Value: "1"},
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "hello ada, run 1", decoded["output"])

	headers := decoded["headers"].([]interface{})
	header := headers[0].(map[string]interface{})
	assert.Equal(t, "ada", header["value"])
}

func TestSubstituteRunContext(t *testing.T) {
	raw := json.RawMessage(`{"path":"{$workspace}/out.txt","body":"previous said: {$input}"}`)

	out, err := SubstituteRunContext(raw, "ok", "/tmp/job-1")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "/tmp/job-1/out.txt", decoded["path"])
	assert.Equal(t, "previous said: ok", decoded["body"])
}
