package forwarder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// AllowancePolicy decides what the router allowance is set to before each call.
type AllowancePolicy int

const (
	// AllowanceAccumulate raises the allowance by the per-call amount on top
	// of whatever the router left unspent by earlier calls.
	AllowanceAccumulate AllowancePolicy = iota
	// AllowanceExact sets the allowance to the per-call amount.
	AllowanceExact
)

func (p AllowancePolicy) String() string {
	switch p {
	case AllowanceAccumulate:
		return "accumulate"
	case AllowanceExact:
		return "exact"
	}
	return fmt.Sprintf("AllowancePolicy(%d)", int(p))
}

func ParseAllowancePolicy(s string) (AllowancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accumulate":
		return AllowanceAccumulate, nil
	case "exact":
		return AllowanceExact, nil
	}
	return 0, fmt.Errorf("unknown allowance policy %q", s)
}

// next returns the allowance to approve given what is still unspent.
func (p AllowancePolicy) next(residual, amount *big.Int) *big.Int {
	if p == AllowanceExact {
		return new(big.Int).Set(amount)
	}
	total := new(big.Int).Add(residual, amount)
	if total.Cmp(math.MaxBig256) > 0 {
		return new(big.Int).Set(math.MaxBig256)
	}
	return total
}

// Minimum amounts handed to the router. Adding liquidity tolerates half of
// each requested amount, adding against native currency tolerates anything,
// removing only requires a non-zero payout. Swaps take the caller's bound.

func AddLiquidityMin(amount *big.Int) *big.Int {
	return new(big.Int).Div(amount, big.NewInt(2))
}

func AddLiquidityETHMin() *big.Int {
	return new(big.Int)
}

func RemoveLiquidityMin() *big.Int {
	return big.NewInt(1)
}
