package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDomainSeparatorPureFunction(t *testing.T) {
	contract := common.HexToAddress("0xed52D8E202A8Ab1b3e80f9Cdc100C27D1c0cE18D")

	d1, err := DomainSeparator(4, contract)
	if err != nil {
		t.Fatalf("DomainSeparator() error = %v", err)
	}
	d2, err := DomainSeparator(4, contract)
	if err != nil {
		t.Fatalf("DomainSeparator() error = %v", err)
	}
	if d1 != d2 {
		t.Error("DomainSeparator is not deterministic for the same inputs")
	}

	d3, err := DomainSeparator(1, contract)
	if err != nil {
		t.Fatalf("DomainSeparator() error = %v", err)
	}
	if d1 == d3 {
		t.Error("DomainSeparator must differ across chain ids")
	}

	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	d4, err := DomainSeparator(4, other)
	if err != nil {
		t.Fatalf("DomainSeparator() error = %v", err)
	}
	if d1 == d4 {
		t.Error("DomainSeparator must differ across verifying contracts")
	}
}
