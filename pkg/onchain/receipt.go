package onchain

import (
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/binding"
	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// The router's return values never reach a transaction sender, so results
// are rebuilt from the events the pair emitted.

func hasTopic(l *types.Log, topic common.Hash) bool {
	return len(l.Topics) > 0 && l.Topics[0] == topic
}

// ordered maps pair amounts in token0/token1 order onto tokenA/tokenB.
func ordered(tokenA, tokenB common.Address, amount0, amount1 *big.Int) (*big.Int, *big.Int) {
	if _, _, inverse := chain.SortAddress(tokenA, tokenB); inverse {
		return amount1, amount0
	}
	return amount0, amount1
}

func decodeAddLiquidity(b *binding.Binding, logs []*types.Log, tokenA, tokenB, to common.Address) (*dex.AddLiquidityResult, error) {
	var mint *binding.UniV2PairMint
	for _, l := range logs {
		if !hasTopic(l, chain.MintTopic) {
			continue
		}
		pair, err := b.PairContract(l.Address)
		if err != nil {
			return nil, err
		}
		if mint, err = pair.ParseMint(*l); err != nil {
			return nil, err
		}
	}
	if mint == nil {
		return nil, fmt.Errorf("%w: no Mint event for %s/%s", ErrUnexpectedLogs, tokenA.Hex(), tokenB.Hex())
	}

	lp, err := b.TokenContract(mint.Raw.Address)
	if err != nil {
		return nil, err
	}
	var liquidity *big.Int
	for _, l := range logs {
		if l.Address != mint.Raw.Address || !hasTopic(l, chain.TransferTopic) {
			continue
		}
		transfer, err := lp.ParseTransfer(*l)
		if err != nil {
			return nil, err
		}
		if transfer.From == (common.Address{}) && transfer.To == to {
			liquidity = transfer.Value
		}
	}
	if liquidity == nil {
		return nil, fmt.Errorf("%w: no liquidity minted to %s", ErrUnexpectedLogs, to.Hex())
	}

	amountA, amountB := ordered(tokenA, tokenB, mint.Amount0, mint.Amount1)
	return &dex.AddLiquidityResult{AmountA: amountA, AmountB: amountB, Liquidity: liquidity}, nil
}

func decodeRemoveLiquidity(b *binding.Binding, logs []*types.Log, tokenA, tokenB common.Address) (*dex.RemoveLiquidityResult, error) {
	for _, l := range logs {
		if !hasTopic(l, chain.BurnTopic) {
			continue
		}
		pair, err := b.PairContract(l.Address)
		if err != nil {
			return nil, err
		}
		burn, err := pair.ParseBurn(*l)
		if err != nil {
			return nil, err
		}
		amountA, amountB := ordered(tokenA, tokenB, burn.Amount0, burn.Amount1)
		return &dex.RemoveLiquidityResult{AmountA: amountA, AmountB: amountB}, nil
	}
	return nil, fmt.Errorf("%w: no Burn event", ErrUnexpectedLogs)
}

// decodeSwapAmounts rebuilds the router's amounts array: the input followed
// by the output of every hop.
func decodeSwapAmounts(b *binding.Binding, logs []*types.Log, amountIn *big.Int, pathLen int) ([]*big.Int, error) {
	amounts := []*big.Int{amountIn}
	for _, l := range logs {
		if !hasTopic(l, chain.SwapTopic) {
			continue
		}
		pair, err := b.PairContract(l.Address)
		if err != nil {
			return nil, err
		}
		swap, err := pair.ParseSwap(*l)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, new(big.Int).Add(swap.Amount0Out, swap.Amount1Out))
	}
	if len(amounts) != pathLen {
		return nil, fmt.Errorf("%w: %d Swap events for a %d token path", ErrUnexpectedLogs, len(amounts)-1, pathLen)
	}
	return amounts, nil
}

// syncedReserves returns the last Sync event of every pair in logs.
func syncedReserves(b *binding.Binding, logs []*types.Log) (map[common.Address]*binding.UniV2PairSync, error) {
	reserves := make(map[common.Address]*binding.UniV2PairSync)
	for _, l := range logs {
		if !hasTopic(l, chain.SyncTopic) {
			continue
		}
		pair, err := b.PairContract(l.Address)
		if err != nil {
			return nil, err
		}
		sync, err := pair.ParseSync(*l)
		if err != nil {
			return nil, err
		}
		reserves[l.Address] = sync
	}
	return reserves, nil
}
