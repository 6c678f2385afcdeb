package model

import "github.com/ethereum/go-ethereum/common"

// User records the contract-assigned id for an address. The id is issued on
// first observation and never changes.
type User struct {
	Address common.Address `json:"address"`
	UserID  uint64         `json:"userId"`
}
