package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceEnvVars(t *testing.T) {
	t.Setenv("PTZPROXY_TEST_PASS", "secret123")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "set variable",
			input:    "password: ${PTZPROXY_TEST_PASS}",
			expected: "password: secret123",
		},
		{
			name:     "unset variable with default",
			input:    "host: ${PTZPROXY_TEST_MISSING:127.0.0.1}",
			expected: "host: 127.0.0.1",
		},
		{
			name:     "unset variable without default",
			input:    "host: ${PTZPROXY_TEST_MISSING}",
			expected: "host: ${PTZPROXY_TEST_MISSING}",
		},
		{
			name:     "no variables",
			input:    "listen: :2020",
			expected: "listen: :2020",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplaceEnvVars(tt.input))
		})
	}
}
