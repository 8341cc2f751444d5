package app

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	dbm "github.com/tendermint/tm-db"

	"surety-node/modules"
)

// Snapshot is the application state committed at one height.
type Snapshot struct {
	Height int64                     `json:"height"`
	State  *modules.State            `json:"state"`
	Nonces map[common.Address]uint64 `json:"nonces"`
}

func (snapshot *Snapshot) Hash() []byte {
	nonces, _ := json.Marshal(snapshot.Nonces)
	hash := sha256.New()
	hash.Write(snapshot.State.Hash())
	hash.Write(nonces)
	return hash.Sum(nil)
}

func copyNonces(nonces map[common.Address]uint64) map[common.Address]uint64 {
	copied := make(map[common.Address]uint64, len(nonces))
	for address, nonce := range nonces {
		copied[address] = nonce
	}
	return copied
}

var lastHeightKey = []byte("lastHeight")

func snapshotKey(height int64) []byte {
	return []byte(fmt.Sprintf("snapshot/%020d", height))
}

// Store keeps committed snapshots in a tm-db database. With retain > 0 only the last retain
// heights are kept.
type Store struct {
	db     dbm.DB
	retain int64
}

func NewStore(db dbm.DB, retain int64) *Store {
	return &Store{db: db, retain: retain}
}

func (store *Store) Save(snapshot *Snapshot) error {
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := store.db.Set(snapshotKey(snapshot.Height), bytes); err != nil {
		return err
	}
	if store.retain > 0 && snapshot.Height > store.retain {
		if err := store.db.Delete(snapshotKey(snapshot.Height - store.retain)); err != nil {
			return err
		}
	}
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], uint64(snapshot.Height))
	return store.db.SetSync(lastHeightKey, height[:])
}

func (store *Store) Load(height int64) (*Snapshot, error) {
	bytes, err := store.db.Get(snapshotKey(height))
	if err != nil {
		return nil, err
	}
	if bytes == nil {
		return nil, fmt.Errorf("%w: no state at height %d", ErrNotFound, height)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(bytes, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.State == nil {
		return nil, fmt.Errorf("snapshot at height %d has no state", height)
	}
	snapshot.State = modules.NewState(snapshot.State)
	if snapshot.Nonces == nil {
		snapshot.Nonces = make(map[common.Address]uint64)
	}
	return &snapshot, nil
}

// LastHeight returns 0 for an empty store.
func (store *Store) LastHeight() (int64, error) {
	bytes, err := store.db.Get(lastHeightKey)
	if err != nil || bytes == nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(bytes)), nil
}

func (store *Store) Close() error { return store.db.Close() }
