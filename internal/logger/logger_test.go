package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
		wantErr    bool
	}{
		{env: "prod", want: zapcore.InfoLevel},
		{env: "production", level: "warn", want: zapcore.WarnLevel},
		{env: "local", want: zapcore.DebugLevel},
		{env: "test", level: "error", want: zapcore.ErrorLevel},
		{env: "staging", wantErr: true},
		{env: "local", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := New(tt.env, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = With(ctx, zap.String("conversation_id", "c1"))
	FromContext(ctx).Info("routed")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "c1", logs.All()[0].ContextMap()["conversation_id"])
}

func TestFromContext_NopWhenMissing(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("dropped")
	assert.NotPanics(t, func() { With(context.Background(), zap.Int("n", 1)) })
}
