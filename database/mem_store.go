package database

import (
	"strings"
	"sync"
)

// MemAccountStore in-memory account store, used in single mode and in
// tests.
type MemAccountStore struct {
	mu     sync.Mutex
	banned map[string]bool
}

// NewMemAccountStore NewMemAccountStore
func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{banned: make(map[string]bool)}
}

// Ban Ban
func (s *MemAccountStore) Ban(account string) {
	s.mu.Lock()
	s.banned[account] = true
	s.mu.Unlock()
}

// IsBanned IsBanned
func (s *MemAccountStore) IsBanned(account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banned[account], nil
}

type relKey struct {
	charID   uint32
	friendID uint32
}

// MemFriendStore in-memory friend store
type MemFriendStore struct {
	mu    sync.Mutex
	rels  map[relKey]*FriendRelationship
	views map[relKey]*FriendViewItem
}

// NewMemFriendStore NewMemFriendStore
func NewMemFriendStore() *MemFriendStore {
	return &MemFriendStore{
		rels:  make(map[relKey]*FriendRelationship),
		views: make(map[relKey]*FriendViewItem),
	}
}

// CreateRequest CreateRequest
func (s *MemFriendStore) CreateRequest(charID uint32, charName string, friendID uint32, friendName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rels[relKey{charID, friendID}]; ok {
		return false, nil
	}
	if _, ok := s.rels[relKey{friendID, charID}]; ok {
		return false, nil
	}
	s.rels[relKey{charID, friendID}] = &FriendRelationship{CharID: charID, FriendID: friendID, RequestOpen: true}
	s.views[relKey{charID, friendID}] = &FriendViewItem{CharID: charID, CharName: charName, FriendID: friendID, FriendName: friendName}
	return true, nil
}

// AcceptRequest AcceptRequest
func (s *MemFriendStore) AcceptRequest(responderID uint32, responderName string, requesterID uint32, requesterName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.rels[relKey{requesterID, responderID}]
	if !ok || !rel.RequestOpen {
		return false, nil
	}
	rel.Accepted = true
	rel.RequestOpen = false
	s.rels[relKey{responderID, requesterID}] = &FriendRelationship{CharID: responderID, FriendID: requesterID, Accepted: true}
	s.views[relKey{responderID, requesterID}] = &FriendViewItem{CharID: responderID, CharName: responderName, FriendID: requesterID, FriendName: requesterName, Accepted: true}
	if view, ok := s.views[relKey{requesterID, responderID}]; ok {
		view.Accepted = true
	}
	return true, nil
}

// DeclineRequest DeclineRequest
func (s *MemFriendStore) DeclineRequest(responderID, requesterID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.rels[relKey{requesterID, responderID}]
	if !ok || !rel.RequestOpen {
		return nil
	}
	delete(s.rels, relKey{requesterID, responderID})
	delete(s.views, relKey{requesterID, responderID})
	return nil
}

// Delete Delete
func (s *MemFriendStore) Delete(charID, friendID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rels, relKey{charID, friendID})
	delete(s.rels, relKey{friendID, charID})
	delete(s.views, relKey{charID, friendID})
	delete(s.views, relKey{friendID, charID})
	return nil
}

// Friends Friends
func (s *MemFriendStore) Friends(charID uint32) ([]FriendViewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]FriendViewItem, 0)
	for key, view := range s.views {
		if key.charID == charID {
			items = append(items, *view)
		}
	}
	return items, nil
}

// OpenRequestsTo OpenRequestsTo
func (s *MemFriendStore) OpenRequestsTo(charID uint32) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0)
	for key, rel := range s.rels {
		if key.friendID == charID && rel.RequestOpen {
			if view, ok := s.views[key]; ok {
				names = append(names, view.CharName)
			}
		}
	}
	return names, nil
}

// MemGuildStore in-memory guild store
type MemGuildStore struct {
	mu      sync.Mutex
	guilds  map[string]*GuildRecord
	members map[string][]*GuildMemberRecord
}

// NewMemGuildStore NewMemGuildStore
func NewMemGuildStore() *MemGuildStore {
	return &MemGuildStore{
		guilds:  make(map[string]*GuildRecord),
		members: make(map[string][]*GuildMemberRecord),
	}
}

func guildKey(name string) string { return strings.ToLower(name) }

// GetGuild GetGuild
func (s *MemGuildStore) GetGuild(name string) (*GuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild, ok := s.guilds[guildKey(name)]
	if !ok {
		return nil, nil
	}
	copied := *guild
	return &copied, nil
}

// SaveGuild SaveGuild
func (s *MemGuildStore) SaveGuild(guild *GuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *guild
	s.guilds[guildKey(guild.Name)] = &copied
	return nil
}

// UpdateGuild UpdateGuild
func (s *MemGuildStore) UpdateGuild(guild *GuildRecord) error {
	return s.SaveGuild(guild)
}

// DeleteGuild DeleteGuild
func (s *MemGuildStore) DeleteGuild(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, guildKey(name))
	delete(s.members, guildKey(name))
	return nil
}

// GetGuilds GetGuilds
func (s *MemGuildStore) GetGuilds() ([]GuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guilds := make([]GuildRecord, 0, len(s.guilds))
	for _, guild := range s.guilds {
		guilds = append(guilds, *guild)
	}
	return guilds, nil
}

// SaveMember SaveMember
func (s *MemGuildStore) SaveMember(member *GuildMemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *member
	key := guildKey(member.GuildName)
	s.members[key] = append(s.members[key], &copied)
	return nil
}

// UpdateMember UpdateMember
func (s *MemGuildStore) UpdateMember(member *GuildMemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[guildKey(member.GuildName)] {
		if m.CharName == member.CharName {
			m.Position = member.Position
		}
	}
	return nil
}

// DeleteMember DeleteMember
func (s *MemGuildStore) DeleteMember(guildName, charName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := guildKey(guildName)
	members := s.members[key]
	for i, m := range members {
		if m.CharName == charName {
			s.members[key] = append(members[:i], members[i+1:]...)
			break
		}
	}
	return nil
}

// MembersOf MembersOf
func (s *MemGuildStore) MembersOf(guildName string) ([]GuildMemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]GuildMemberRecord, 0)
	for _, m := range s.members[guildKey(guildName)] {
		members = append(members, *m)
	}
	return members, nil
}

// MemLetterStore in-memory letter store
type MemLetterStore struct {
	mu      sync.Mutex
	nextID  uint64
	letters map[uint64]*Letter
}

// NewMemLetterStore NewMemLetterStore
func NewMemLetterStore() *MemLetterStore {
	return &MemLetterStore{letters: make(map[uint64]*Letter)}
}

// Save Save
func (s *MemLetterStore) Save(letters ...*Letter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, letter := range letters {
		s.nextID++
		copied := *letter
		copied.ID = s.nextID
		s.letters[copied.ID] = &copied
	}
	return nil
}

// UnreadOf UnreadOf
func (s *MemLetterStore) UnreadOf(receiver string) ([]Letter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	letters := make([]Letter, 0)
	for _, letter := range s.letters {
		if letter.Receiver == receiver {
			letters = append(letters, *letter)
		}
	}
	return letters, nil
}

// Delete Delete
func (s *MemLetterStore) Delete(id uint64) error {
	s.mu.Lock()
	delete(s.letters, id)
	s.mu.Unlock()
	return nil
}
