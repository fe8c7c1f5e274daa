package database

// AccountStore account lookups used by login policy
type AccountStore interface {
	IsBanned(account string) (bool, error)
}

// FriendStore owns the friend-relationship rows and their denormalized
// view items. Implementations keep both in step.
type FriendStore interface {
	// CreateRequest adds an open unaccepted relationship and the
	// requester's view item. Returns false when a relationship already
	// exists in either direction.
	CreateRequest(charID uint32, charName string, friendID uint32, friendName string) (bool, error)
	// AcceptRequest flips the pending request to accepted, creates the
	// reciprocal row and the responder's view item. Returns false when
	// no open request exists.
	AcceptRequest(responderID uint32, responderName string, requesterID uint32, requesterName string) (bool, error)
	// DeclineRequest removes the pending request rows. Unknown
	// requests are a no-op.
	DeclineRequest(responderID, requesterID uint32) error
	// Delete removes both directions and both view items.
	Delete(charID, friendID uint32) error
	// Friends all view items of one character
	Friends(charID uint32) ([]FriendViewItem, error)
	// OpenRequestsTo names of characters with a still-open request
	// aimed at charID
	OpenRequestsTo(charID uint32) ([]string, error)
}

// GuildStore persists guild structure by natural key (guild name).
type GuildStore interface {
	GetGuild(name string) (*GuildRecord, error)
	SaveGuild(guild *GuildRecord) error
	UpdateGuild(guild *GuildRecord) error
	DeleteGuild(name string) error
	GetGuilds() ([]GuildRecord, error)

	SaveMember(member *GuildMemberRecord) error
	UpdateMember(member *GuildMemberRecord) error
	DeleteMember(guildName, charName string) error
	MembersOf(guildName string) ([]GuildMemberRecord, error)
}

// LetterStore queues letter headers for offline receivers.
type LetterStore interface {
	Save(letters ...*Letter) error
	UnreadOf(receiver string) ([]Letter, error)
	Delete(id uint64) error
}
