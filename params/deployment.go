package params

import "github.com/ethereum/go-ethereum/common"

// DeploymentInfo names where the batch-auction contract was deployed on a
// given chain: its address, and the block its deployment transaction landed
// in (the confirmed watermark's initial value).
type DeploymentInfo struct {
	ContractAddress common.Address
	DeploymentBlock uint64
}

// deployments is the static chain-id-keyed deployment table, seeded at
// process startup. Unknown chain ids resolve to (zero-value, false) and the
// caller warns and starts the confirmed watermark at 0.
var deployments = map[uint64]DeploymentInfo{
	1: {
		ContractAddress: common.HexToAddress("0x0b7fFc1f4AD541A4Ed16b40D8c37f0929158D101"),
		DeploymentBlock: 12_500_000,
	},
	4: {
		ContractAddress: common.HexToAddress("0xC5992c0e0A3267C7F75493D0F717201E26BE35f7"),
		DeploymentBlock: 8_123_456,
	},
	100: {
		ContractAddress: common.HexToAddress("0xb9812E2FA995b7a887aBEE50715aF797DfC9f0Fb"),
		DeploymentBlock: 18_000_000,
	},
}

// LookupDeployment resolves a chain id to its deployment info.
func LookupDeployment(chainID uint64) (DeploymentInfo, bool) {
	d, ok := deployments[chainID]
	return d, ok
}
