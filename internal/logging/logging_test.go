package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{raw: "", want: zerolog.InfoLevel, wantOK: false},
		{raw: "DEBUG", want: zerolog.DebugLevel, wantOK: true},
		{raw: " warning ", want: zerolog.WarnLevel, wantOK: true},
		{raw: "off", want: zerolog.Disabled, wantOK: true},
		{raw: "verbose", want: zerolog.InfoLevel, wantOK: false},
	}

	for _, tc := range tests {
		got, ok := ParseLevel(tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.wantOK, ok, tc.raw)
	}
}

func TestNewWritesStructuredFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info", NoColor: true})

	logger.Debug().Msg("hidden")
	logger.Info().Str("node", "abc...1234").Str("ip", "no-proxy").Msg("ping success")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "ping success")
	assert.Contains(t, out, "node=abc...1234")
	assert.Contains(t, out, "ip=no-proxy")
}
