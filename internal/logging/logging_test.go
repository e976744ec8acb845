package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	log, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.Level)
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewJSONDebug(t *testing.T) {
	log, err := New("DEBUG", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("loud", "text")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}
