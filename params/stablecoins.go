package params

import "github.com/ethereum/go-ethereum/common"

// chainTokenSet holds the token identity lists consulted by the clearing
// engine's usd_amount_traded rule: recognised stable-coins and the chain's
// native wrapped asset (WETH, WXDAI, ...).
type chainTokenSet struct {
	Stablecoins []common.Address
	NativeAsset common.Address
}

// tokenSets is the static chain-id-keyed identity table. Chains absent from
// this map always resolve usd_amount_traded to 0, per the price-oracle open
// question.
var tokenSets = map[uint64]chainTokenSet{
	1: {
		Stablecoins: []common.Address{
			common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), // USDC
			common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), // USDT
			common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), // DAI
		},
		NativeAsset: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), // WETH
	},
	100: {
		Stablecoins: []common.Address{
			common.HexToAddress("0x4ECaBa5870353805a9F068101A40E0f32ed605C6"), // USDT on Gnosis
			common.HexToAddress("0xDDAfbb505ad214D7b80b1f830fcCc89B60fb7A83"), // USDC on Gnosis
		},
		NativeAsset: common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463A97d"), // WXDAI
	},
}

// IsStablecoin reports whether token is a recognised stable-coin on chainID.
func IsStablecoin(chainID uint64, token common.Address) bool {
	for _, addr := range tokenSets[chainID].Stablecoins {
		if addr == token {
			return true
		}
	}
	return false
}

// IsNativeAsset reports whether token is chainID's native wrapped asset.
func IsNativeAsset(chainID uint64, token common.Address) bool {
	set, ok := tokenSets[chainID]
	return ok && set.NativeAsset == token
}
