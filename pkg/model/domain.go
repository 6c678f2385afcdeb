package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// allowListDomainName and allowListDomainVersion are fixed by the
// allow-list contract; every DomainSeparator is keyed only by chain id and
// verifying contract.
const (
	allowListDomainName    = "AccessManager"
	allowListDomainVersion = "v1"
)

// DomainSeparator computes the EIP-712 domain separator hash for the
// allow-list signer's authorisation message: a pure function of chain id
// and the verifying contract address.
func DomainSeparator(chainID uint64, contract common.Address) ([32]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
		},
		PrimaryType: "EIP712Domain",
		Domain: apitypes.TypedDataDomain{
			Name:              allowListDomainName,
			Version:           allowListDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
			VerifyingContract: contract.Hex(),
		},
	}

	hash, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return [32]byte{}, err
	}

	var out [32]byte
	copy(out[:], hash)
	return out, nil
}
