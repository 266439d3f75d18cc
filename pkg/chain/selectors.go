package chain

import "encoding/hex"

// UniV2Methods maps the 4 byte selector of every router and token call the
// forwarder sends to its name.
var UniV2Methods = map[string]string{
	"e8e33700": "addLiquidity",
	"f305d719": "addLiquidityETH",
	"baa2abde": "removeLiquidity",
	"02751cec": "removeLiquidityETH",
	"38ed1739": "swapExactTokensForTokens",
	"18cbafe5": "swapExactTokensForETH",
	"095ea7b3": "approve",
	"23b872dd": "transferFrom",
	"a9059cbb": "transfer",
}

// MethodName resolves the called method from tx input data.
func MethodName(txInput []byte) string {
	if len(txInput) < 4 {
		return "unknown"
	}
	name, exists := UniV2Methods[hex.EncodeToString(txInput[0:4])]
	if !exists {
		return "unknown"
	}
	return name
}
