package forwarder

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
)

type Option func(*Forwarder)

func WithAllowancePolicy(policy AllowancePolicy) Option {
	return func(f *Forwarder) {
		f.allowance = policy
	}
}

// WithRefundUnused returns add-liquidity custody the router did not take.
func WithRefundUnused(refund bool) Option {
	return func(f *Forwarder) {
		f.refundUnused = refund
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(f *Forwarder) {
		f.recorders = append(f.recorders, recorder)
	}
}

func WithLogger(logger log.Logger) Option {
	return func(f *Forwarder) {
		f.log = logger
	}
}

// WithCleanupTimeout bounds rollback and recording. Both run even when the
// caller's context was cancelled.
func WithCleanupTimeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		f.cleanupTimeout = timeout
	}
}
