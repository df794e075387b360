package schema

type KafkaTokenResolved struct {
	TokenId   uint64   `json:"tokenId"`
	Owner     string   `json:"owner"`
	ParentId  uint64   `json:"parentId"`
	Layer     uint64   `json:"layer"`
	Metadata  Metadata `json:"metadata"`
	Timestamp int64    `json:"timestamp"`
}
