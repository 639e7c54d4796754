package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConfString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "two levels",
			input:    "log.level=trace",
			expected: "{log: {level: trace}}",
		},
		{
			name:     "three levels",
			input:    "cameras.front.listen=:2020",
			expected: "{cameras: {front: {listen: :2020}}}",
		},
		{
			name:     "no equals",
			input:    "ptzproxy.yaml",
			expected: "",
		},
		{
			name:     "single level",
			input:    "level=trace",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(parseConfString(tt.input)))
		})
	}
}
