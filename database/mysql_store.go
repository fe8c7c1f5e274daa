package database

import (
	"fmt"
	"log"

	// driver init only
	_ "github.com/go-sql-driver/mysql"
	"github.com/go-xorm/xorm"
	"xorm.io/core"
)

// DbAccountStore mysql account store
type DbAccountStore struct {
	engine *xorm.Engine
}

// NewDbAccountStore NewDbAccountStore
func NewDbAccountStore(engine *xorm.Engine) *DbAccountStore {
	if engine != nil {
		if err := engine.Sync2(new(Account), new(Character)); err != nil {
			log.Println(err)
		}
	}
	return &DbAccountStore{engine: engine}
}

// IsBanned IsBanned
func (s *DbAccountStore) IsBanned(account string) (bool, error) {
	if s.engine == nil {
		return false, nil
	}
	acc := Account{}
	has, err := s.engine.Where("name = ?", account).Get(&acc)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	return acc.Banned, nil
}

// DbFriendStore mysql friend store
type DbFriendStore struct {
	engine *xorm.Engine
}

// NewDbFriendStore NewDbFriendStore
func NewDbFriendStore(engine *xorm.Engine) *DbFriendStore {
	if engine != nil {
		if err := engine.Sync2(new(FriendRelationship), new(FriendViewItem)); err != nil {
			log.Println(err)
		}
	}
	return &DbFriendStore{engine: engine}
}

func (s *DbFriendStore) relationship(charID, friendID uint32) (*FriendRelationship, error) {
	rel := FriendRelationship{}
	has, err := s.engine.Where("char_id = ? AND friend_id = ?", charID, friendID).Get(&rel)
	if err != nil || !has {
		return nil, err
	}
	return &rel, nil
}

// CreateRequest CreateRequest
func (s *DbFriendStore) CreateRequest(charID uint32, charName string, friendID uint32, friendName string) (bool, error) {
	for _, pair := range [][2]uint32{{charID, friendID}, {friendID, charID}} {
		rel, err := s.relationship(pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if rel != nil {
			return false, nil
		}
	}
	session := s.engine.NewSession()
	defer session.Close()
	if err := session.Begin(); err != nil {
		return false, err
	}
	if _, err := session.Insert(&FriendRelationship{CharID: charID, FriendID: friendID, RequestOpen: true}); err != nil {
		session.Rollback()
		return false, err
	}
	view := &FriendViewItem{CharID: charID, CharName: charName, FriendID: friendID, FriendName: friendName}
	if _, err := session.Insert(view); err != nil {
		session.Rollback()
		return false, err
	}
	return true, session.Commit()
}

// AcceptRequest AcceptRequest
func (s *DbFriendStore) AcceptRequest(responderID uint32, responderName string, requesterID uint32, requesterName string) (bool, error) {
	rel, err := s.relationship(requesterID, responderID)
	if err != nil {
		return false, err
	}
	if rel == nil || !rel.RequestOpen {
		return false, nil
	}
	session := s.engine.NewSession()
	defer session.Close()
	if err := session.Begin(); err != nil {
		return false, err
	}
	rel.Accepted = true
	rel.RequestOpen = false
	if _, err := session.ID(rel.ID).UseBool().Update(rel); err != nil {
		session.Rollback()
		return false, err
	}
	if _, err := session.Insert(&FriendRelationship{CharID: responderID, FriendID: requesterID, Accepted: true}); err != nil {
		session.Rollback()
		return false, err
	}
	if _, err := session.Insert(&FriendViewItem{CharID: responderID, CharName: responderName, FriendID: requesterID, FriendName: requesterName, Accepted: true}); err != nil {
		session.Rollback()
		return false, err
	}
	if _, err := session.Where("char_id = ? AND friend_id = ?", requesterID, responderID).Cols("accepted").Update(&FriendViewItem{Accepted: true}); err != nil {
		session.Rollback()
		return false, err
	}
	return true, session.Commit()
}

// DeclineRequest DeclineRequest
func (s *DbFriendStore) DeclineRequest(responderID, requesterID uint32) error {
	if _, err := s.engine.Where("char_id = ? AND friend_id = ? AND request_open = ?", requesterID, responderID, true).Delete(&FriendRelationship{}); err != nil {
		return err
	}
	_, err := s.engine.Where("char_id = ? AND friend_id = ?", requesterID, responderID).Delete(&FriendViewItem{})
	return err
}

// Delete Delete
func (s *DbFriendStore) Delete(charID, friendID uint32) error {
	if _, err := s.engine.Where("(char_id = ? AND friend_id = ?) OR (char_id = ? AND friend_id = ?)",
		charID, friendID, friendID, charID).Delete(&FriendRelationship{}); err != nil {
		return err
	}
	_, err := s.engine.Where("(char_id = ? AND friend_id = ?) OR (char_id = ? AND friend_id = ?)",
		charID, friendID, friendID, charID).Delete(&FriendViewItem{})
	return err
}

// Friends Friends
func (s *DbFriendStore) Friends(charID uint32) ([]FriendViewItem, error) {
	items := make([]FriendViewItem, 0)
	err := s.engine.Where("char_id = ?", charID).Find(&items)
	return items, err
}

// OpenRequestsTo OpenRequestsTo
func (s *DbFriendStore) OpenRequestsTo(charID uint32) ([]string, error) {
	rels := make([]FriendRelationship, 0)
	if err := s.engine.Where("friend_id = ? AND request_open = ?", charID, true).Find(&rels); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rels))
	for _, rel := range rels {
		view := FriendViewItem{}
		has, err := s.engine.Where("char_id = ? AND friend_id = ?", rel.CharID, charID).Get(&view)
		if err != nil {
			return nil, err
		}
		if has {
			names = append(names, view.CharName)
		}
	}
	return names, nil
}

// DbGuildStore mysql guild store
type DbGuildStore struct {
	engine *xorm.Engine
}

// NewDbGuildStore NewDbGuildStore
func NewDbGuildStore(engine *xorm.Engine) *DbGuildStore {
	if engine != nil {
		if err := engine.Sync2(new(GuildRecord), new(GuildMemberRecord)); err != nil {
			log.Println(err)
		}
	}
	return &DbGuildStore{engine: engine}
}

// GetGuild GetGuild
func (s *DbGuildStore) GetGuild(name string) (*GuildRecord, error) {
	guild := GuildRecord{}
	has, err := s.engine.Where("name = ?", name).Get(&guild)
	if err != nil || !has {
		return nil, err
	}
	return &guild, nil
}

// SaveGuild SaveGuild
func (s *DbGuildStore) SaveGuild(guild *GuildRecord) error {
	_, err := s.engine.Insert(guild)
	return err
}

// UpdateGuild UpdateGuild
func (s *DbGuildStore) UpdateGuild(guild *GuildRecord) error {
	_, err := s.engine.Where("name = ?", guild.Name).AllCols().Update(guild)
	return err
}

// DeleteGuild DeleteGuild
func (s *DbGuildStore) DeleteGuild(name string) error {
	if _, err := s.engine.Where("name = ?", name).Delete(&GuildRecord{}); err != nil {
		return err
	}
	_, err := s.engine.Where("guild_name = ?", name).Delete(&GuildMemberRecord{})
	return err
}

// GetGuilds GetGuilds
func (s *DbGuildStore) GetGuilds() ([]GuildRecord, error) {
	guilds := make([]GuildRecord, 0)
	err := s.engine.Find(&guilds)
	return guilds, err
}

// SaveMember SaveMember
func (s *DbGuildStore) SaveMember(member *GuildMemberRecord) error {
	_, err := s.engine.Insert(member)
	return err
}

// UpdateMember UpdateMember
func (s *DbGuildStore) UpdateMember(member *GuildMemberRecord) error {
	_, err := s.engine.Where("guild_name = ? AND char_name = ?", member.GuildName, member.CharName).
		Cols("position").Update(member)
	return err
}

// DeleteMember DeleteMember
func (s *DbGuildStore) DeleteMember(guildName, charName string) error {
	_, err := s.engine.Where("guild_name = ? AND char_name = ?", guildName, charName).Delete(&GuildMemberRecord{})
	return err
}

// MembersOf MembersOf
func (s *DbGuildStore) MembersOf(guildName string) ([]GuildMemberRecord, error) {
	members := make([]GuildMemberRecord, 0)
	err := s.engine.Where("guild_name = ?", guildName).Find(&members)
	return members, err
}

// DbLetterStore mysql letter store
type DbLetterStore struct {
	engine *xorm.Engine
}

// NewDbLetterStore NewDbLetterStore
func NewDbLetterStore(engine *xorm.Engine) *DbLetterStore {
	if engine != nil {
		if err := engine.Sync2(new(Letter)); err != nil {
			log.Println(err)
		}
	}
	return &DbLetterStore{engine: engine}
}

// Save Save
func (s *DbLetterStore) Save(letters ...*Letter) error {
	if s.engine == nil || len(letters) == 0 {
		return nil
	}
	_, err := s.engine.Insert(letters)
	return err
}

// UnreadOf UnreadOf
func (s *DbLetterStore) UnreadOf(receiver string) ([]Letter, error) {
	letters := make([]Letter, 0)
	err := s.engine.Where("receiver = ?", receiver).Find(&letters)
	return letters, err
}

// Delete Delete
func (s *DbLetterStore) Delete(id uint64) error {
	_, err := s.engine.ID(id).Delete(&Letter{})
	return err
}

// InitMysqlDb init mysql database
func InitMysqlDb(source string) *xorm.Engine {
	url := fmt.Sprintf("%s?charset=utf8&parseTime=True&loc=Local", source)
	engine, err := xorm.NewEngine("mysql", url)
	if err != nil {
		log.Println(err)
		return nil
	}

	tbMapper := core.NewPrefixMapper(core.SnakeMapper{}, "t_")
	engine.SetTableMapper(tbMapper)
	engine.SetColumnMapper(core.SnakeMapper{})

	return engine
}
