package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/crypto"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/signatures"
)

func main() {
	var (
		privateKeyHex = flag.String("key", "", "allow-list signer's private key, hex (0x-prefixed or bare); generates a fresh key if empty")
		chainID       = flag.Uint64("chain-id", 0, "chain id of the auction")
		contract      = flag.String("contract", "", "allow-list manager contract address")
		user          = flag.String("user", "", "bidder address to authorise")
		auctionID     = flag.Uint64("auction-id", 0, "auction id")
	)
	flag.Parse()

	if *contract == "" || *user == "" || *auctionID == 0 || *chainID == 0 {
		fmt.Fprintln(os.Stderr, "usage: sign-allowlist -chain-id N -contract 0x.. -user 0x.. -auction-id N [-key 0x..]")
		os.Exit(1)
	}
	if !common.IsHexAddress(*contract) || !common.IsHexAddress(*user) {
		fmt.Fprintln(os.Stderr, "contract and user must be 0x-prefixed addresses")
		os.Exit(1)
	}

	signer, err := loadSigner(*privateKeyHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load signer: %v\n", err)
		os.Exit(1)
	}

	contractAddr := common.HexToAddress(*contract)
	userAddr := common.HexToAddress(*user)

	domainSeparator, err := model.DomainSeparator(*chainID, contractAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domain separator: %v\n", err)
		os.Exit(1)
	}

	sig, err := signatures.Sign(domainSeparator, userAddr, *auctionID, signer.PrivateKey())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signer address:   %s\n", signer.Address().Hex())
	fmt.Printf("Auction id:       %d\n", *auctionID)
	fmt.Printf("User address:     %s\n", userAddr.Hex())
	fmt.Printf("Signature:        %s\n", sig.Hex())
}

func loadSigner(hexKey string) (*crypto.Signer, error) {
	if hexKey == "" {
		return crypto.GenerateKey()
	}
	return crypto.FromPrivateKeyHex(hexKey)
}
