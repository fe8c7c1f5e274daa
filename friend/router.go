// Package friend owns the friend-relationship graph and the
// online-visibility state of characters, and routes presence, chat
// room and letter notifications to the shard hosting the interested
// friend. Never broadcast: every push is addressed to exactly one
// shard.
package friend

import (
	"bytes"
	"log"
	"sync"
	"time"

	"github.com/gs-cluster/chat"
	"github.com/gs-cluster/database"
	"github.com/gs-cluster/filelog"
	"github.com/gs-cluster/server"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

type presence struct {
	charID   uint32
	name     string
	serverID uint32
	visible  bool
}

// Config router collaborators
type Config struct {
	Store    database.FriendStore
	Letters  database.LetterStore
	Registry *subscriber.Registry
	Broker   *chat.Broker
	// Journal is the optional letter journal; when nil, letters for
	// offline receivers go straight to the store.
	Journal *filelog.FileLog
}

// Router Router
type Router struct {
	config Config

	// the router is the sole writer of the online table
	mu     sync.RWMutex
	online map[uint32]*presence
	names  map[string]uint32
}

// NewRouter NewRouter
func NewRouter(config Config) *Router {
	return &Router{
		config: config,
		online: make(map[uint32]*presence),
		names:  make(map[string]uint32),
	}
}

// stateOf presence as seen by friends: server id or a sentinel
func stateOf(p *presence) uint32 {
	if p == nil {
		return server.IDOffline
	}
	if !p.visible {
		return server.IDInvisible
	}
	return p.serverID
}

func (r *Router) presenceOf(charID uint32) *presence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online[charID]
}

func (r *Router) presenceByName(name string) *presence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.names[name]; ok {
		return r.online[id]
	}
	return nil
}

// FriendRequest creates an open relationship unless one already exists
// in either direction, and prompts the target live when online.
// Returns whether a new request was created; a retry is safe.
func (r *Router) FriendRequest(charID uint32, charName string, friendID uint32, friendName string) bool {
	created, err := r.config.Store.CreateRequest(charID, charName, friendID, friendName)
	if err != nil {
		log.Println("friend request:", err)
		return false
	}
	if !created {
		return false
	}

	if p := r.presenceOf(friendID); p != nil {
		if sub := r.config.Registry.Get(p.serverID); sub != nil {
			sub.FriendRequest(&wire.MsgFriendRequest{
				FromID:   charID,
				FromName: charName,
				ToName:   friendName,
			})
		}
	}
	return true
}

// FriendResponse resolves an open request. Accepting flips both
// symmetric records and cross-notifies online state; declining deletes
// the pending record. Unknown or duplicate responses are ignored.
func (r *Router) FriendResponse(responderID uint32, responderName string, requesterID uint32, requesterName string, accepted bool) {
	if !accepted {
		if err := r.config.Store.DeclineRequest(responderID, requesterID); err != nil {
			log.Println("friend decline:", err)
		}
		return
	}

	ok, err := r.config.Store.AcceptRequest(responderID, responderName, requesterID, requesterName)
	if err != nil {
		log.Println("friend accept:", err)
		return
	}
	if !ok {
		return
	}

	requester := r.presenceOf(requesterID)
	responder := r.presenceOf(responderID)
	if requester != nil {
		if sub := r.config.Registry.Get(requester.serverID); sub != nil {
			sub.FriendOnlineState(&wire.MsgFriendState{
				CharID:   responderID,
				CharName: responderName,
				ToName:   requesterName,
				ServerID: stateOf(responder),
			})
		}
	}
	if responder != nil {
		if sub := r.config.Registry.Get(responder.serverID); sub != nil {
			sub.FriendOnlineState(&wire.MsgFriendState{
				CharID:   requesterID,
				CharName: requesterName,
				ToName:   responderName,
				ServerID: stateOf(requester),
			})
		}
	}
}

// DeleteFriend removes the friendship in both directions. The caller
// is the shard of an online player; an unknown name is a no-op.
func (r *Router) DeleteFriend(charName, friendName string) {
	p := r.presenceByName(charName)
	if p == nil {
		return
	}
	items, err := r.config.Store.Friends(p.charID)
	if err != nil {
		log.Println("delete friend:", err)
		return
	}
	for _, item := range items {
		if item.FriendName == friendName {
			if err := r.config.Store.Delete(p.charID, item.FriendID); err != nil {
				log.Println("delete friend:", err)
			}
			return
		}
	}
}

// PlayerEnteredGame marks the character online, notifies each online
// friend's hosting shard of the new state, and answers the caller with
// the messenger payload plus any letters queued while offline.
func (r *Router) PlayerEnteredGame(serverID, charID uint32, charName string) {
	r.mu.Lock()
	r.online[charID] = &presence{charID: charID, name: charName, serverID: serverID, visible: true}
	r.names[charName] = charID
	r.mu.Unlock()

	items, err := r.config.Store.Friends(charID)
	if err != nil {
		log.Println("enter game:", err)
		items = nil
	}
	r.notifyFriends(items, charID, charName, serverID)

	sub := r.config.Registry.Get(serverID)
	if sub == nil {
		return
	}

	init := &wire.MsgMessengerInit{CharName: charName, Friends: make([]wire.FriendItem, 0, len(items))}
	for _, item := range items {
		accepted := uint8(0)
		if item.Accepted {
			accepted = 1
		}
		init.Friends = append(init.Friends, wire.FriendItem{
			CharID:   item.FriendID,
			Name:     item.FriendName,
			ServerID: stateOf(r.presenceOf(item.FriendID)),
			Accepted: accepted,
		})
	}
	if requests, err := r.config.Store.OpenRequestsTo(charID); err == nil {
		init.Requests = requests
	}
	sub.InitializeMessenger(init)

	r.deliverQueuedLetters(sub, charName)
}

// PlayerLeftGame marks the character offline and notifies online
// friends.
func (r *Router) PlayerLeftGame(charID uint32, charName string) {
	r.mu.Lock()
	delete(r.online, charID)
	delete(r.names, charName)
	r.mu.Unlock()

	items, err := r.config.Store.Friends(charID)
	if err != nil {
		log.Println("leave game:", err)
		return
	}
	r.notifyFriends(items, charID, charName, server.IDOffline)
}

// SetVisibility hides or reveals the character. Friends observe the
// invisible sentinel, not the hosting server.
func (r *Router) SetVisibility(serverID, charID uint32, charName string, visible bool) {
	r.mu.Lock()
	p, ok := r.online[charID]
	if !ok {
		p = &presence{charID: charID, name: charName, serverID: serverID}
		r.online[charID] = p
		r.names[charName] = charID
	}
	p.serverID = serverID
	p.visible = visible
	r.mu.Unlock()

	state := serverID
	if !visible {
		state = server.IDInvisible
	}
	items, err := r.config.Store.Friends(charID)
	if err != nil {
		log.Println("set visibility:", err)
		return
	}
	r.notifyFriends(items, charID, charName, state)
}

// notifyFriends pushes the character's new state to the hosting shard
// of every online, accepted friend. One targeted push per friend.
func (r *Router) notifyFriends(items []database.FriendViewItem, charID uint32, charName string, state uint32) {
	for _, item := range items {
		if !item.Accepted {
			continue
		}
		p := r.presenceOf(item.FriendID)
		if p == nil {
			continue
		}
		sub := r.config.Registry.Get(p.serverID)
		if sub == nil {
			continue
		}
		sub.FriendOnlineState(&wire.MsgFriendState{
			CharID:   charID,
			CharName: charName,
			ToName:   item.FriendName,
			ServerID: state,
		})
	}
}

// CreateChatRoom allocates a room and issues auth info for both
// parties. The friend's info is pushed to their shard when online; the
// caller's info is returned for the initiating shard to relay.
func (r *Router) CreateChatRoom(charID uint32, charName, friendName string) *chat.AuthInfo {
	roomID, ok := r.config.Broker.CreateRoom()
	if !ok {
		return nil
	}
	own := r.config.Broker.RegisterClient(roomID, charName)
	if own == nil {
		return nil
	}
	friendAuth := r.config.Broker.RegisterClient(roomID, friendName)
	if friendAuth == nil {
		return own
	}

	if p := r.presenceByName(friendName); p != nil {
		if sub := r.config.Registry.Get(p.serverID); sub != nil {
			sub.ChatRoomCreated(authMessage(friendAuth))
		}
	}
	return own
}

// InviteToChatRoom issues auth info for an existing room to one more
// friend. False when the friend is offline or the room no longer
// exists.
func (r *Router) InviteToChatRoom(friendName string, roomID uint16) bool {
	p := r.presenceByName(friendName)
	if p == nil {
		return false
	}
	sub := r.config.Registry.Get(p.serverID)
	if sub == nil {
		return false
	}
	auth := r.config.Broker.RegisterClient(roomID, friendName)
	if auth == nil {
		return false
	}
	sub.ChatRoomCreated(authMessage(auth))
	return true
}

func authMessage(auth *chat.AuthInfo) *wire.MsgChatRoomCreated {
	return &wire.MsgChatRoomCreated{
		RoomID:     auth.RoomID,
		Index:      auth.Index,
		ClientName: auth.ClientName,
		Token:      auth.Token,
		Host:       auth.Host,
		ExpireAt:   auth.ExpireAt.Unix(),
	}
}

// ForwardLetter delivers a letter header to the receiver's shard when
// online, otherwise queues it. The journal absorbs store outages so a
// letter is never lost.
func (r *Router) ForwardLetter(letter *wire.MsgLetter) {
	if p := r.presenceByName(letter.Receiver); p != nil {
		if sub := r.config.Registry.Get(p.serverID); sub != nil {
			sub.DeliverLetter(letter)
			return
		}
	}

	if r.config.Journal != nil {
		buf := &bytes.Buffer{}
		if err := letter.Encode(buf); err == nil {
			if err := r.config.Journal.Write(buf.Bytes()); err == nil {
				return
			}
			log.Println("letter journal:", err)
		}
	}
	if err := r.config.Letters.Save(letterEntity(letter)); err != nil {
		log.Println("letter store:", err)
	}
}

func (r *Router) deliverQueuedLetters(sub subscriber.Subscriber, charName string) {
	if r.config.Letters == nil {
		return
	}
	letters, err := r.config.Letters.UnreadOf(charName)
	if err != nil {
		log.Println("queued letters:", err)
		return
	}
	for _, letter := range letters {
		sub.DeliverLetter(&wire.MsgLetter{
			LetterID: letter.ID,
			Sender:   letter.Sender,
			Receiver: letter.Receiver,
			Title:    letter.Title,
			SendAt:   letter.SendAt.Unix(),
		})
		if err := r.config.Letters.Delete(letter.ID); err != nil {
			log.Println("queued letters:", err)
		}
	}
}

func letterEntity(letter *wire.MsgLetter) *database.Letter {
	return &database.Letter{
		Sender:   letter.Sender,
		Receiver: letter.Receiver,
		Title:    letter.Title,
		SendAt:   time.Unix(letter.SendAt, 0),
	}
}

// FlushLetters is the journal subscriber: decode each journaled record
// and batch it into the letter store.
func FlushLetters(store database.LetterStore) func(records []*bytes.Buffer) error {
	return func(records []*bytes.Buffer) error {
		letters := make([]*database.Letter, 0, len(records))
		for _, record := range records {
			msg := &wire.MsgLetter{}
			if err := msg.Decode(record); err != nil {
				log.Println("letter journal decode:", err)
				continue
			}
			letters = append(letters, letterEntity(msg))
		}
		return store.Save(letters...)
	}
}
