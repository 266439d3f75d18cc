package memory

import (
	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// createPair deploys the tokenA/tokenB pair the way the factory does,
// including its LP token.
func (m *Memory) createPair(tokenA, tokenB common.Address) (*types.Pair, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalAddresses
	}
	token0, token1, _ := chain.SortAddress(tokenA, tokenB)
	if token0 == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	key := chain.PairKey(token0, token1)
	if _, exists := m.pairs.Pairs[key]; exists {
		return nil, ErrPairExists
	}
	for _, token := range []common.Address{token0, token1} {
		if err := m.requireToken(token); err != nil {
			return nil, err
		}
	}

	pairAddress := chain.PairFor(m.dex.Factory, token0, token1, chain.UniV2InitCodeHash)
	pair := &types.Pair{
		PairAddress:   pairAddress,
		Token0Address: token0,
		Token1Address: token1,
		Reserve0:      common.Big0,
		Reserve1:      common.Big0,
	}
	m.pairs.Pairs[key] = pair
	m.pairs.PairMap[pairAddress] = key
	m.addToken(pairAddress, "Uniswap V2", "UNI-V2", 18)
	m.record(func() {
		delete(m.pairs.Pairs, key)
		delete(m.pairs.PairMap, pairAddress)
		delete(m.tokens.Tokens, pairAddress)
		delete(m.tokens.balances, pairAddress)
		delete(m.tokens.allowances, pairAddress)
		delete(m.tokens.supply, pairAddress)
	})

	m.log.Debug("Pair created", "pair", pairAddress, "token0", token0, "token1", token1)
	return pair, nil
}

func (m *Memory) getPair(tokenA, tokenB common.Address) common.Address {
	pair, exists := m.pairByTokens(tokenA, tokenB)
	if !exists {
		return common.Address{}
	}
	return pair.PairAddress
}
