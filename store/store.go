// Package store is the persistent-database collaborator named in spec §6:
// three logical collections (addresses, contracts, signatures), each
// addressable by a stable key, backed by SQLite through database/sql.
package store

import "github.com/ethtx/ethtx-go/model"

// Store is the persistence interface the semantics repository writes
// through to and reads from on a cache miss.
type Store interface {
	GetAddress(chainID, address string) (*model.AddressSemantics, bool, error)
	PutAddress(sem model.AddressSemantics) error

	GetContract(codeHash string) (*model.ContractSemantics, bool, error)
	PutContract(sem model.ContractSemantics) error

	// GetSignatures returns every Signature row sharing hash, across all
	// observed argument shapes.
	GetSignatures(hash string) ([]model.Signature, error)
	// UpsertSignature performs the compare-and-set upsert required by
	// spec §9 Open Questions: match by (hash, exact arg list); on a hit,
	// increment Count and clear Guessed if the incoming entry is verified;
	// on a miss, insert a new row.
	UpsertSignature(sig model.Signature) error

	Close() error
}
