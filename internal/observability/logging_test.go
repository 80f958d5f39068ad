package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithLoggerRoundTrip(t *testing.T) {
	fallback := zap.NewNop()
	stored := zap.NewNop().Named("request")

	ctx := WithLogger(context.Background(), stored)
	assert.Same(t, stored, LoggerFrom(ctx, fallback))
	assert.Same(t, fallback, LoggerFrom(context.Background(), fallback))
}

func TestRedactBody(t *testing.T) {
	body := map[string]any{
		"firstname":      "Claire",
		"ssnNumber":      "290027512345678",
		"medicalHistory": "Asthme léger",
		"symptoms":       []any{"fievre"},
		"nested": map[string]any{
			"token": "abc",
			"plain": "ok",
		},
	}

	out := RedactBody(body, []string{"firstname"})

	assert.Equal(t, "[REDACTED]", out["firstname"], "caller-supplied fields are merged in")
	assert.Equal(t, "[REDACTED]", out["ssnNumber"])
	assert.Equal(t, "[REDACTED]", out["medicalHistory"])
	assert.Equal(t, "[REDACTED]", out["symptoms"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, "[REDACTED]", nested["token"])
	assert.Equal(t, "ok", nested["plain"])

	// The input is left untouched.
	assert.Equal(t, "290027512345678", body["ssnNumber"])

	assert.Nil(t, RedactBody(nil, nil))
}
