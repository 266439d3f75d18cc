package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()

	require.NoError(t, m.Record(ctx, &types.Operation{Method: "swapTokens", Duration: 20 * time.Millisecond}))
	require.NoError(t, m.Record(ctx, &types.Operation{Method: "swapTokens", Err: errors.New("reverted")}))
	require.NoError(t, m.Record(ctx, &types.Operation{Method: "addLiquidity"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("swapTokens", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("swapTokens", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("addLiquidity", "ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestWriteToTextfile(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.Record(context.Background(), &types.Operation{Method: "removeLiquidity"}))

	path := filepath.Join(t.TempDir(), "forwarder.prom")
	require.NoError(t, m.WriteToTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `forwarder_operations_total{method="removeLiquidity",status="ok"} 1`)
}
