package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()

	// Check that error message contains important info
	assert.NotEmpty(t, msg, "error message should not be empty")

	// Should mention the type
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type 'fake_db'")

	// Should hint about config
	assert.Contains(t, msg, "leapql.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	// Register a mock adapter
	Register("test_adapter_internal", "ansi", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"), "test_adapter_internal should be registered after Register()")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok, "Get(test_adapter_internal) should return true after Register()")
	assert.NotNil(t, factory, "Get(test_adapter_internal) should return non-nil factory")
}

func TestRegister_DialectAndCase(t *testing.T) {
	Register("Test_Adapter_Mixed", "postgres", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_mixed"))
	assert.True(t, IsRegistered("TEST_ADAPTER_MIXED"))
	assert.Contains(t, ListAdapters(), "test_adapter_mixed")

	d, ok := DialectFor("test_adapter_mixed")
	require.True(t, ok)
	assert.Equal(t, "postgres", d)

	_, ok = DialectFor("missing_adapter")
	assert.False(t, ok)
}

func TestNewAdapter_EmptyType(t *testing.T) {
	cfg := Config{
		Type: "",
	}

	_, err := NewAdapter(cfg, nil)
	require.Error(t, err, "NewAdapter with empty type should fail")
	assert.Equal(t, "adapter type not specified", err.Error(), "error message")
}

func TestNewAdapter_Unknown(t *testing.T) {
	Register("test_adapter_known", "ansi", func(_ *slog.Logger) Adapter { return nil })

	_, err := NewAdapter(Config{Type: "unknown_adapter"}, nil)
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "unknown_adapter", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "test_adapter_known")
	assert.Contains(t, ListAdapters(), "test_adapter_known")
	assert.False(t, IsRegistered("unknown_adapter"))
}
