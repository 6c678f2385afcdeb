// Package checkpoint persists the confirmed view's watermark and auction
// snapshot to an embedded pebble database so a restarted process can resume
// near the tip instead of replaying every block since the contract's
// deployment. It is a warm-start cache only: the confirmed orderbook.State
// rebuilt from chain events remains the sole source of truth, and a missing
// or corrupt checkpoint just means a colder start, never an error.
package checkpoint

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

// Store wraps a pebble database holding one process's checkpoint.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the pebble database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// keys: w:<8-byte-chainid> -> confirmed watermark (8-byte block number), a:<8-byte-chainid><8-byte-auctionid> -> gob(AuctionDetails)
func kWatermark(chainID uint64) []byte {
	k := make([]byte, 2+8)
	copy(k, "w:")
	binary.BigEndian.PutUint64(k[2:], chainID)
	return k
}

func kAuction(chainID, auctionID uint64) []byte {
	k := make([]byte, 2+8+8)
	copy(k, "a:")
	binary.BigEndian.PutUint64(k[2:10], chainID)
	binary.BigEndian.PutUint64(k[10:], auctionID)
	return k
}

func auctionPrefix(chainID uint64) []byte {
	return kAuction(chainID, 0)[:10]
}

func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Watermark is the confirmed view's last-applied block number, keyed by
// chain id so a process serving multiple chains (see params.LookupDeployment)
// keeps one cursor per chain.
type Watermark struct {
	ChainID uint64
	Block   uint64
}

// SaveWatermark persists the confirmed view's watermark for chainID.
func (s *Store) SaveWatermark(chainID, block uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], block)
	if err := s.db.Set(kWatermark(chainID), buf[:], pebble.Sync); err != nil {
		return fmt.Errorf("checkpoint: save watermark: %w", err)
	}
	return nil
}

// LoadWatermark returns the last persisted confirmed-view block for chainID,
// or ok=false if no checkpoint has been written yet.
func (s *Store) LoadWatermark(chainID uint64) (block uint64, ok bool, err error) {
	val, closer, err := s.db.Get(kWatermark(chainID))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("checkpoint: load watermark: %w", err)
	}
	defer closer.Close()
	return binary.BigEndian.Uint64(val), true, nil
}

// SaveAuction persists the confirmed snapshot of one auction's details.
func (s *Store) SaveAuction(chainID uint64, details model.AuctionDetails) error {
	val, err := encodeGob(details)
	if err != nil {
		return fmt.Errorf("checkpoint: encode auction %d: %w", details.AuctionID, err)
	}
	if err := s.db.Set(kAuction(chainID, details.AuctionID), val, pebble.Sync); err != nil {
		return fmt.Errorf("checkpoint: save auction %d: %w", details.AuctionID, err)
	}
	return nil
}

// LoadAuctions returns every persisted auction snapshot for chainID, in
// ascending auction-id order.
func (s *Store) LoadAuctions(chainID uint64) ([]model.AuctionDetails, error) {
	prefix := auctionPrefix(chainID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: iterate auctions: %w", err)
	}
	defer iter.Close()

	var out []model.AuctionDetails
	for iter.First(); iter.Valid(); iter.Next() {
		var details model.AuctionDetails
		if err := decodeGob(iter.Value(), &details); err != nil {
			continue
		}
		out = append(out, details)
	}
	return out, nil
}
