package store

// Selection contains the authoritative selection state of a network saved to DB.
type Selection struct {
	Address string `json:"address" bson:"address"` // selected account, "" if none
	Locked  bool   `json:"locked" bson:"locked"`   // keyrings lock state
	Seq     uint64 `json:"seq" bson:"seq"`         // sequence of the last published snapshot
}
