package subscriber

import (
	"sync"

	"github.com/gs-cluster/wire"
)

// Recorder is the in-process Subscriber implementation. It records
// every pushed call, which is what directory tests assert against.
type Recorder struct {
	mu sync.Mutex

	serverID uint32
	// Reachable mimics an unreachable shard when false
	Reachable bool

	Letters       []*wire.MsgLetter
	Requests      []*wire.MsgFriendRequest
	States        []*wire.MsgFriendState
	Rooms         []*wire.MsgChatRoomCreated
	Inits         []*wire.MsgMessengerInit
	GuildMessages []*wire.MsgGuildMessage
	Notices       []*wire.MsgGuildNotice
	Broadcasts    []string
	Kills         []string
	KillReasons   []uint8
}

// NewRecorder NewRecorder
func NewRecorder(serverID uint32) *Recorder {
	return &Recorder{serverID: serverID, Reachable: true}
}

// ServerID ServerID
func (s *Recorder) ServerID() uint32 { return s.serverID }

// DeliverLetter DeliverLetter
func (s *Recorder) DeliverLetter(letter *wire.MsgLetter) {
	s.mu.Lock()
	s.Letters = append(s.Letters, letter)
	s.mu.Unlock()
}

// FriendRequest FriendRequest
func (s *Recorder) FriendRequest(req *wire.MsgFriendRequest) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
}

// FriendOnlineState FriendOnlineState
func (s *Recorder) FriendOnlineState(state *wire.MsgFriendState) {
	s.mu.Lock()
	s.States = append(s.States, state)
	s.mu.Unlock()
}

// ChatRoomCreated ChatRoomCreated
func (s *Recorder) ChatRoomCreated(info *wire.MsgChatRoomCreated) {
	s.mu.Lock()
	s.Rooms = append(s.Rooms, info)
	s.mu.Unlock()
}

// InitializeMessenger InitializeMessenger
func (s *Recorder) InitializeMessenger(init *wire.MsgMessengerInit) {
	s.mu.Lock()
	s.Inits = append(s.Inits, init)
	s.mu.Unlock()
}

// GuildMessage GuildMessage
func (s *Recorder) GuildMessage(msg *wire.MsgGuildMessage) {
	s.mu.Lock()
	s.GuildMessages = append(s.GuildMessages, msg)
	s.mu.Unlock()
}

// GuildNotice GuildNotice
func (s *Recorder) GuildNotice(notice *wire.MsgGuildNotice) {
	s.mu.Lock()
	s.Notices = append(s.Notices, notice)
	s.mu.Unlock()
}

// Broadcast Broadcast
func (s *Recorder) Broadcast(text string) {
	s.mu.Lock()
	s.Broadcasts = append(s.Broadcasts, text)
	s.mu.Unlock()
}

// DisconnectAccount DisconnectAccount
func (s *Recorder) DisconnectAccount(account string, reason uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Reachable {
		return false
	}
	s.Kills = append(s.Kills, account)
	s.KillReasons = append(s.KillReasons, reason)
	return true
}

// StateCount number of recorded online-state notifications
func (s *Recorder) StateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.States)
}
