package database

import (
	"time"
)

// Account 账号. Login identity; Banned blocks TryLogin.
type Account struct {
	ID       uint64 `xorm:"pk autoincr 'id'"`
	Name     string `xorm:"varchar(32) unique"`
	Banned   bool
	CreateAt time.Time
}

// Character one playable character owned by an account
type Character struct {
	ID          uint64 `xorm:"pk autoincr 'id'"`
	Name        string `xorm:"varchar(32) unique"`
	AccountName string `xorm:"varchar(32) index"`
}

// FriendRelationship is one direction of a friendship. A pending
// request has Accepted=false, RequestOpen=true and no reciprocal row;
// accepting creates the symmetric row and flips both to accepted.
type FriendRelationship struct {
	ID          uint64 `xorm:"pk autoincr 'id'"`
	CharID      uint32 `xorm:"index"`
	FriendID    uint32 `xorm:"index"`
	Accepted    bool
	RequestOpen bool
}

// FriendViewItem denormalizes both display names onto the relationship
// for read efficiency. Kept consistent with the underlying rows by the
// store.
type FriendViewItem struct {
	ID         uint64 `xorm:"pk autoincr 'id'"`
	CharID     uint32 `xorm:"index"`
	CharName   string `xorm:"varchar(32)"`
	FriendID   uint32
	FriendName string `xorm:"varchar(32)"`
	Accepted   bool
}

// GuildRecord is the persisted guild structure. The row id is never
// used as a cross-realm key; Name is the stable identity so merged
// realms cannot collide (the registry assigns runtime ids).
type GuildRecord struct {
	ID       uint64 `xorm:"pk autoincr 'id'"`
	Name     string `xorm:"varchar(20) unique"`
	Logo     []byte `xorm:"blob"`
	Score    int
	Notice   string `xorm:"varchar(128)"`
	Hostile  string `xorm:"varchar(20)"`
	Alliance string `xorm:"varchar(20)"`
	CreateAt time.Time
}

// GuildMemberRecord links a character to a guild by name.
type GuildMemberRecord struct {
	ID        uint64 `xorm:"pk autoincr 'id'"`
	GuildName string `xorm:"varchar(20) index"`
	CharID    uint32 `xorm:"index"`
	CharName  string `xorm:"varchar(32)"`
	Position  uint8
}

// Letter 信件. Queued player-to-player mail headers; the body lives
// with the sending shard's storage.
type Letter struct {
	ID       uint64 `xorm:"pk autoincr 'id'"`
	Sender   string `xorm:"varchar(32)"`
	Receiver string `xorm:"varchar(32) index"`
	Title    string `xorm:"varchar(64)"`
	SendAt   time.Time
}
