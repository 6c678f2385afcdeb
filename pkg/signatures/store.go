// Package signatures persists and validates off-chain allow-list
// authorisation signatures for private auctions.
package signatures

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS allow_list_signatures (
	auction_id    bigint NOT NULL,
	user_address  bytea  NOT NULL,
	signature     bytea  NOT NULL,
	PRIMARY KEY (auction_id, user_address)
);
`

const insertSQL = `
INSERT INTO allow_list_signatures (auction_id, user_address, signature)
VALUES ($1, $2, $3)
ON CONFLICT (auction_id, user_address) DO NOTHING
`

const selectByAuctionSQL = `
SELECT user_address, signature FROM allow_list_signatures WHERE auction_id = $1
`

const selectByAuctionAndUserSQL = `
SELECT user_address, signature FROM allow_list_signatures WHERE auction_id = $1 AND user_address = $2
`

// Store is the signature table's database/sql-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open connects to the signature database via lib/pq and ensures the schema exists.
func Open(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("signatures: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("signatures: ping db: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("signatures: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-opened *sql.DB without creating the schema.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping round-trips the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertSignatures idempotently batch-inserts (user, signature) pairs for an
// auction; a row that already exists is silently left unchanged.
func (s *Store) InsertSignatures(ctx context.Context, auctionID uint64, submissions []Submission) error {
	if len(submissions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("signatures: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("signatures: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sub := range submissions {
		sigBytes := sub.Signature.Bytes()
		if _, err := stmt.ExecContext(ctx, int64(auctionID), sub.User.Bytes(), sigBytes[:]); err != nil {
			return fmt.Errorf("signatures: insert (%s): %w", sub.User.Hex(), err)
		}
	}

	return tx.Commit()
}

// GetSignatures streams every stored signature for an auction, optionally
// filtered to a single user.
func (s *Store) GetSignatures(ctx context.Context, auctionID uint64, user *common.Address) ([]Submission, error) {
	var rows *sql.Rows
	var err error
	if user != nil {
		rows, err = s.db.QueryContext(ctx, selectByAuctionAndUserSQL, int64(auctionID), user.Bytes())
	} else {
		rows, err = s.db.QueryContext(ctx, selectByAuctionSQL, int64(auctionID))
	}
	if err != nil {
		return nil, fmt.Errorf("signatures: query: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var addrBytes, sigBytes []byte
		if err := rows.Scan(&addrBytes, &sigBytes); err != nil {
			return nil, fmt.Errorf("signatures: scan: %w", err)
		}
		if len(sigBytes) != 96 {
			return nil, fmt.Errorf("signatures: decode stored signature: want 96 bytes, got %d", len(sigBytes))
		}
		sig, err := model.SignatureFromRSV(sigBytes[32:64], sigBytes[64:96], sigBytes[31])
		if err != nil {
			return nil, fmt.Errorf("signatures: decode stored signature: %w", err)
		}
		out = append(out, Submission{
			User:      common.BytesToAddress(addrBytes),
			Signature: sig,
		})
	}
	return out, rows.Err()
}
