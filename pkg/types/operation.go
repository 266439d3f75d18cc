package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Operation describes one forwarded call, successful or not.
type Operation struct {
	ID      uuid.UUID
	Method  string
	Caller  common.Address
	Tokens  []common.Address
	Inputs  []*big.Int
	Outputs []*big.Int
	Err     error

	StartedAt time.Time
	Duration  time.Duration
}

func (o *Operation) Failed() bool {
	return o.Err != nil
}

// Status is "ok" or "failed", used as a label and a column value.
func (o *Operation) Status() string {
	if o.Failed() {
		return "failed"
	}
	return "ok"
}
