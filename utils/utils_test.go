package utils

import (
	"context"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBytesMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", BytesMD5(nil))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", BytesMD5([]byte("hello")))
}

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	assert.NotEqual(t, a, b)

	_, err := ksuid.Parse(a)
	require.NoError(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger("release"))
	require.NotNil(t, Logger)
	require.NoError(t, InitLogger("debug"))
	Sync()
}

func TestLoggerContext(t *testing.T) {
	assert.Equal(t, Logger, FromContext(context.Background()))

	custom := zap.NewNop().With(zap.String("request_id", "abc"))
	ctx := WithContext(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))
}
