package forwarder

import (
	"context"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
)

// Recorder receives every operation once its session is closed.
type Recorder interface {
	Record(ctx context.Context, op *types.Operation) error
}

type RecorderFunc func(ctx context.Context, op *types.Operation) error

func (f RecorderFunc) Record(ctx context.Context, op *types.Operation) error {
	return f(ctx, op)
}
