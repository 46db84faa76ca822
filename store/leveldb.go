package store

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
)

var (
	slotPrefix   = []byte("s")
	widthMetaKey = []byte("meta:wordwidth")
)

// LevelDBStore is a persistent slot store. Slot a is stored under the key
// "s" ‖ a as 32 big-endian bytes. The word width is recorded in the
// database on first open and checked on every later open.
type LevelDBStore struct {
	db    *leveldb.DB
	width int
}

// OpenLevelDB opens or creates the database at path.
func OpenLevelDB(path string, w int) (*LevelDBStore, error) {
	if err := checkWidth(w); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, errors.Storage("open "+path, err)
	}
	return newLevelDBStore(db, w)
}

// NewMemLevelDB returns a store over an in-memory LevelDB instance.
func NewMemLevelDB(w int) (*LevelDBStore, error) {
	if err := checkWidth(w); err != nil {
		return nil, err
	}
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Storage("open memory db", err)
	}
	return newLevelDBStore(db, w)
}

func newLevelDBStore(db *leveldb.DB, w int) (*LevelDBStore, error) {
	meta, err := db.Get(widthMetaKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(w))
		if err := db.Put(widthMetaKey, buf[:], nil); err != nil {
			db.Close()
			return nil, errors.Storage("record word width", err)
		}
	case err != nil:
		db.Close()
		return nil, errors.Storage("read word width", err)
	case len(meta) != 8 || binary.BigEndian.Uint64(meta) != uint64(w):
		db.Close()
		return nil, errors.New(errors.PhaseStorage, errors.KindInvalidInput).
			Detail("database was created with a different word width").
			Value(meta).
			Build()
	}
	Logger().Debug("leveldb store opened", zap.Int("word_width", w))
	return &LevelDBStore{db: db, width: w}, nil
}

func (s *LevelDBStore) WordWidth() int { return s.width }

func (s *LevelDBStore) StorageClass() unionlayout.StorageClass { return unionlayout.Persistent }

func dbKey(addr *uint256.Int) []byte {
	k := slotKey(addr)
	return append(append(make([]byte, 0, 33), slotPrefix...), k[:]...)
}

func (s *LevelDBStore) ReadSlot(addr *uint256.Int) ([]byte, error) {
	v, err := s.db.Get(dbKey(addr), nil)
	if err == leveldb.ErrNotFound {
		return make([]byte, s.width), nil
	}
	if err != nil {
		return nil, storageErr("read slot", err)
	}
	if len(v) != s.width {
		return nil, errors.InvalidData(errors.PhaseStorage, []string{addr.Hex()}, "stored word has the wrong width")
	}
	return v, nil
}

func (s *LevelDBStore) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(s.width, word); err != nil {
		return err
	}
	var err error
	if isZero(word) {
		err = s.db.Delete(dbKey(addr), nil)
	} else {
		err = s.db.Put(dbKey(addr), word, nil)
	}
	if err != nil {
		return storageErr("write slot", err)
	}
	return nil
}

// Each calls fn for every non-zero slot in key order. Iteration stops at the
// first error fn returns.
func (s *LevelDBStore) Each(fn func(addr *uint256.Int, word []byte) error) error {
	it := s.db.NewIterator(util.BytesPrefix(slotPrefix), nil)
	defer it.Release()

	for it.Next() {
		addr := new(uint256.Int).SetBytes(it.Key()[len(slotPrefix):])
		if err := fn(addr, append([]byte(nil), it.Value()...)); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return storageErr("iterate", err)
	}
	return nil
}

func (s *LevelDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return storageErr("close", err)
	}
	return nil
}

// NewBatch returns a batch written with a single leveldb.Batch on Commit.
func (s *LevelDBStore) NewBatch() unionlayout.SlotBatch {
	return &levelBatch{store: s, batch: new(leveldb.Batch)}
}

type levelBatch struct {
	store *LevelDBStore
	batch *leveldb.Batch
}

func (b *levelBatch) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(b.store.width, word); err != nil {
		return err
	}
	if isZero(word) {
		b.batch.Delete(dbKey(addr))
	} else {
		b.batch.Put(dbKey(addr), word)
	}
	return nil
}

func (b *levelBatch) Commit() error {
	n := b.batch.Len()
	if err := b.store.db.Write(b.batch, nil); err != nil {
		return storageErr("commit batch", err)
	}
	b.batch.Reset()
	Logger().Debug("leveldb batch committed", zap.Int("writes", n))
	return nil
}

func storageErr(op string, err error) error {
	if err == leveldb.ErrClosed {
		return closedErr(op)
	}
	return errors.Storage(op, err)
}
