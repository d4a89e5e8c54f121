package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogApproveCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := WithRequestID(context.Background(), "req-1")

	al.LogApprove(ctx, "owner@biz.test", "v1", "success", "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["log_type"])
	assert.Equal(t, "approve", entry["action"])
	assert.Equal(t, "v1", entry["resource_id"])
	assert.Equal(t, "owner@biz.test", entry["actor"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestLogUploadResource(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogUpload(context.Background(), "v1", "w9", "failure", "storage")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "v1/w9", entry["resource_id"])
	assert.Equal(t, "vendor", entry["actor"])
	assert.Equal(t, "", entry["request_id"])
}
