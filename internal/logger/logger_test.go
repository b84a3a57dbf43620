package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, NewLogger("codequiz", in).Logger.GetLevel(), in)
	}
}

func TestNewLogger_JSONFields(t *testing.T) {
	entry := NewLogger("codequiz", "info")
	var buf bytes.Buffer
	entry.Logger.SetOutput(&buf)

	entry.WithField("component", "store").Info("store bootstrapped")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "codequiz", line["service"])
	assert.Equal(t, "store", line["component"])
	assert.Equal(t, "store bootstrapped", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "timestamp")
}
