package chain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// UniswapV2 mainnet pair init code hash.
var UniV2InitCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")

// SortAddress orders two tokens the way a UniswapV2 pair does. The bool reports
// whether the input order was flipped.
func SortAddress(tokenA common.Address, tokenB common.Address) (common.Address, common.Address, bool) {

	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB, false
	} else {
		return tokenB, tokenA, true
	}
}

// PairFor computes the CREATE2 address of the tokenA/tokenB pair deployed by factory.
func PairFor(factory, tokenA, tokenB common.Address, initCodeHash common.Hash) common.Address {
	token0, token1, _ := SortAddress(tokenA, tokenB)
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}

// PairKey is the memory key of a pair: sorted token0 + token1.
func PairKey(tokenA, tokenB common.Address) string {
	token0, token1, _ := SortAddress(tokenA, tokenB)
	return token0.Hex() + token1.Hex()
}
