package rawdb

import (
	"github.com/everFinance/mandelseed/common"
)

var log = common.NewLog("rawdb")

type KeyValueDB interface {
	Put(bucket, key string, value interface{}) (err error)

	Get(bucket, key string) (data []byte, err error)

	GetAllKey(bucket string) (keys []string, err error)

	Delete(bucket, key string) (err error)

	Close() (err error)

	Type() string

	Exist(bucket, key string) bool
}
