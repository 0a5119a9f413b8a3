package eval

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONReporter_WritesOneDocument(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf)
	r.Report(SuiteResult{Name: "smoke", Total: 2, Passed: 2})

	var decoded SuiteResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "smoke", decoded.Name)
	assert.Equal(t, 2, decoded.Passed)
}

func TestNewReporter_SelectsByKind(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONReporter{}, NewReporter("json", &buf))
	assert.IsType(t, &PrometheusReporter{}, NewReporter("prometheus", &buf))
	assert.IsType(t, &ConsoleReporter{}, NewReporter("console", &buf))
	assert.IsType(t, &ConsoleReporter{}, NewReporter("unknown", &buf))
}
