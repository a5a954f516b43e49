package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "custom")
	assert.Equal(t, "custom", GetEnvString("TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", GetEnvString("TEST_STRING_UNSET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_UNSET", 7))

	t.Setenv("TEST_INT_BAD", "forty-two")
	assert.Equal(t, 7, GetEnvInt("TEST_INT_BAD", 7))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true}, {"t", true}, {"true", true}, {"True", true},
		{"0", false}, {"f", false}, {"false", false}, {"FALSE", false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.value)
		assert.Equal(t, tt.want, GetEnvBool("TEST_BOOL", !tt.want), "value %q", tt.value)
	}

	t.Setenv("TEST_BOOL", "yes")
	assert.True(t, GetEnvBool("TEST_BOOL", true))
	assert.False(t, GetEnvBool("TEST_BOOL_UNSET", false))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DURATION_UNSET", time.Minute))

	t.Setenv("TEST_DURATION_BAD", "90 seconds")
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DURATION_BAD", time.Minute))
}

func TestGetEnvStringList(t *testing.T) {
	t.Setenv("TEST_LIST", "a, b ,c,,")
	assert.Equal(t, []string{"a", "b", "c"}, GetEnvStringList("TEST_LIST", nil))

	fallback := []string{"x"}
	assert.Equal(t, fallback, GetEnvStringList("TEST_LIST_UNSET", fallback))

	t.Setenv("TEST_LIST_EMPTY", " , ")
	assert.Equal(t, fallback, GetEnvStringList("TEST_LIST_EMPTY", fallback))
}
