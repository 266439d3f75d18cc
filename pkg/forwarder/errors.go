package forwarder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrPairNotFound  = errors.New("forwarder: pair does not exist")
	ErrInvalidAmount = errors.New("forwarder: amount must be set and non-negative")
)

// CallError is a failure surfaced by a token, router or factory the
// forwarder called into. The whole operation is rolled back when one occurs.
type CallError struct {
	Op     string
	Target common.Address
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Target.Hex(), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func callError(op string, target common.Address, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{Op: op, Target: target, Err: err}
}
