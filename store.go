package mandelseed

import (
	"encoding/json"
	"strconv"

	"github.com/everFinance/mandelseed/rawdb"
	"github.com/everFinance/mandelseed/schema"
)

// Store keeps the render ledger: the latest capture outcome per token id.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	Db, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{
		KVDb: Db,
	}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

func (s *Store) SaveRenderRecord(rec schema.RenderRecord) error {
	val, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.RenderBucket, strconv.FormatUint(rec.TokenId, 10), val)
}

func (s *Store) LoadRenderRecord(id uint64) (*schema.RenderRecord, error) {
	val, err := s.KVDb.Get(schema.RenderBucket, strconv.FormatUint(id, 10))
	if err != nil {
		return nil, err
	}
	rec := &schema.RenderRecord{}
	err = json.Unmarshal(val, rec)
	return rec, err
}

func (s *Store) IsExistRenderRecord(id uint64) bool {
	return s.KVDb.Exist(schema.RenderBucket, strconv.FormatUint(id, 10))
}

func (s *Store) LoadRenderRecords(status string) ([]schema.RenderRecord, error) {
	keys, err := s.KVDb.GetAllKey(schema.RenderBucket)
	if err != nil {
		return nil, err
	}
	recs := make([]schema.RenderRecord, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			log.Warn("skip malformed render ledger key", "key", key)
			continue
		}
		rec, err := s.LoadRenderRecord(id)
		if err != nil {
			return nil, err
		}
		if status != "" && rec.Status != status {
			continue
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}
