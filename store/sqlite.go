package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ethtx/ethtx-go/model"
)

// SQLiteStore is a database/sql-backed Store using the pure-Go
// modernc.org/sqlite driver (no cgo).
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // one lock serializing every write, across all records: §4.2 "concurrent reads during a write must not observe a torn record"
}

// Open creates/migrates the sqlite database at path and returns a Store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS addresses (
			chain_id TEXT NOT NULL,
			address TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (chain_id, address)
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			code_hash TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signatures (
			hash TEXT NOT NULL,
			args_shape TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (hash, args_shape)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetAddress(chainID, address string) (*model.AddressSemantics, bool, error) {
	row := s.db.QueryRow(`SELECT data FROM addresses WHERE chain_id = ? AND address = ?`, chainID, address)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get address: %w", err)
	}
	var sem model.AddressSemantics
	if err := json.Unmarshal([]byte(raw), &sem); err != nil {
		return nil, false, fmt.Errorf("decode address record: %w", err)
	}
	return &sem, true, nil
}

func (s *SQLiteStore) PutAddress(sem model.AddressSemantics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(sem)
	if err != nil {
		return fmt.Errorf("encode address record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO addresses (chain_id, address, data) VALUES (?, ?, ?)
		 ON CONFLICT(chain_id, address) DO UPDATE SET data = excluded.data`,
		sem.ChainID, sem.Address, string(raw),
	)
	if err != nil {
		return fmt.Errorf("put address: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetContract(codeHash string) (*model.ContractSemantics, bool, error) {
	row := s.db.QueryRow(`SELECT data FROM contracts WHERE code_hash = ?`, codeHash)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get contract: %w", err)
	}
	var sem model.ContractSemantics
	if err := json.Unmarshal([]byte(raw), &sem); err != nil {
		return nil, false, fmt.Errorf("decode contract record: %w", err)
	}
	return &sem, true, nil
}

func (s *SQLiteStore) PutContract(sem model.ContractSemantics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(sem)
	if err != nil {
		return fmt.Errorf("encode contract record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO contracts (code_hash, data) VALUES (?, ?)
		 ON CONFLICT(code_hash) DO UPDATE SET data = excluded.data`,
		sem.CodeHash, string(raw),
	)
	if err != nil {
		return fmt.Errorf("put contract: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSignatures(hash string) ([]model.Signature, error) {
	rows, err := s.db.Query(`SELECT data FROM signatures WHERE hash = ?`, hash)
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}
	defer rows.Close()

	var out []model.Signature
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		var sig model.Signature
		if err := json.Unmarshal([]byte(raw), &sig); err != nil {
			return nil, fmt.Errorf("decode signature record: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertSignature(sig model.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shape := argsShape(sig.Args)
	row := s.db.QueryRow(`SELECT data FROM signatures WHERE hash = ? AND args_shape = ?`, sig.Hash, shape)
	var raw string
	err := row.Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		enc, mErr := json.Marshal(sig)
		if mErr != nil {
			return fmt.Errorf("encode signature: %w", mErr)
		}
		_, err = s.db.Exec(`INSERT INTO signatures (hash, args_shape, data) VALUES (?, ?, ?)`, sig.Hash, shape, string(enc))
		if err != nil {
			return fmt.Errorf("insert signature: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("upsert signature lookup: %w", err)
	}

	var existing model.Signature
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return fmt.Errorf("decode existing signature: %w", err)
	}
	existing.Count++
	if !sig.Guessed {
		existing.Guessed = false
		if existing.Name == "" || looksGeneric(existing.Name) {
			existing.Name = sig.Name
		}
	}
	enc, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode updated signature: %w", err)
	}
	_, err = s.db.Exec(`UPDATE signatures SET data = ? WHERE hash = ? AND args_shape = ?`, string(enc), sig.Hash, shape)
	if err != nil {
		return fmt.Errorf("update signature: %w", err)
	}
	return nil
}

func looksGeneric(name string) bool {
	return name == "" || name == "arg" || name == "unknown"
}

func argsShape(args []model.SignatureArg) string {
	shape := ""
	for _, a := range args {
		shape += a.Type + ","
	}
	return shape
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
