package memory

import "errors"

// Errors carry the revert reasons of the contracts they stand in for.
var (
	ErrExpired                     = errors.New("UniswapV2Router: EXPIRED")
	ErrInsufficientAAmount         = errors.New("UniswapV2Router: INSUFFICIENT_A_AMOUNT")
	ErrInsufficientBAmount         = errors.New("UniswapV2Router: INSUFFICIENT_B_AMOUNT")
	ErrInsufficientOutputAmount    = errors.New("UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT")
	ErrInvalidPath                 = errors.New("UniswapV2Router: INVALID_PATH")
	ErrExcessiveAmount             = errors.New("UniswapV2Router: EXCESSIVE_A_AMOUNT")
	ErrInsufficientAmount          = errors.New("UniswapV2Library: INSUFFICIENT_AMOUNT")
	ErrInsufficientInputAmount     = errors.New("UniswapV2Library: INSUFFICIENT_INPUT_AMOUNT")
	ErrInsufficientLiquidity       = errors.New("UniswapV2Library: INSUFFICIENT_LIQUIDITY")
	ErrPairNotFound                = errors.New("UniswapV2Library: pair does not exist")
	ErrIdenticalAddresses          = errors.New("UniswapV2: IDENTICAL_ADDRESSES")
	ErrZeroAddress                 = errors.New("UniswapV2: ZERO_ADDRESS")
	ErrPairExists                  = errors.New("UniswapV2: PAIR_EXISTS")
	ErrInsufficientLiquidityMinted = errors.New("UniswapV2: INSUFFICIENT_LIQUIDITY_MINTED")
	ErrInsufficientLiquidityBurned = errors.New("UniswapV2: INSUFFICIENT_LIQUIDITY_BURNED")
	ErrInvalidTo                   = errors.New("UniswapV2: INVALID_TO")
	ErrK                           = errors.New("UniswapV2: K")

	ErrInsufficientBalance   = errors.New("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("ERC20: insufficient allowance")
	ErrNegativeAmount        = errors.New("ERC20: negative amount")
	ErrInsufficientFunds     = errors.New("insufficient funds for transfer")
	ErrNoCode                = errors.New("call to non-contract")
	ErrSessionClosed         = errors.New("session already closed")
)
