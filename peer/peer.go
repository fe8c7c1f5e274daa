package peer

import (
	"bytes"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gs-cluster/wire"
)

const (
	// Time allowed to write a message to the peer.
	defaultWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	defaultPongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	defaultPingPeriod = (defaultPongWait * 8) / 10

	// Maximum message size allowed from peer.
	defaultMaxMessageSize = 2048

	// Outbound queue length before PushMessage drops.
	defaultMessageQueueLen = 64
)

// MessageListeners message listeners
type MessageListeners struct {
	// OnMessage is invoked for every message decoded from the peer.
	OnMessage func(msg *wire.Message) error

	OnDisconnect func() error
}

// Config peer config
type Config struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than pongWait.
	PingPeriod time.Duration
	// Maximum message size allowed from peer.
	MaxMessageSize int
	// MessageQueueLen outbound queue length
	MessageQueueLen int

	Listeners *MessageListeners
}

type outMessage struct {
	message *wire.Message
	done    chan<- struct{}
}

// Peer wraps the websocket connection of one remote process: a shard,
// a chat server, or a game client on the gateway.
type Peer struct {
	ID     string
	config *Config
	conn   *websocket.Conn
	send   chan outMessage

	// send is never closed; Close signals through quit so a concurrent
	// PushMessage cannot hit a closed channel
	quit      chan struct{}
	closeOnce sync.Once

	timeConnected time.Time

	connected int32
}

// NewPeer create a peer, not yet bound to a connection
func NewPeer(id string, config *Config) *Peer {
	if config.WriteWait == 0 {
		config.WriteWait = defaultWriteWait
	}
	if config.PongWait == 0 {
		config.PongWait = defaultPongWait
	}
	if config.PingPeriod == 0 {
		config.PingPeriod = defaultPingPeriod
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = defaultMaxMessageSize
	}
	if config.MessageQueueLen == 0 {
		config.MessageQueueLen = defaultMessageQueueLen
	}
	if config.PingPeriod >= config.PongWait {
		config.PingPeriod = (config.PongWait * 9) / 10
	}
	return &Peer{
		ID:     id,
		config: config,
		send:   make(chan outMessage, config.MessageQueueLen),
		quit:   make(chan struct{}),
	}
}

// SetConnection bind connection, start the read and write pumps
func (p *Peer) SetConnection(conn *websocket.Conn) {
	// Already connected?
	if !atomic.CompareAndSwapInt32(&p.connected, 0, 1) {
		return
	}

	p.conn = conn
	p.timeConnected = time.Now()

	go p.handleRead()
	go p.handleWrite()
}

func (p *Peer) handleRead() {
	defer func() {
		p.config.Listeners.OnDisconnect()
		p.disconnect()
	}()
	p.conn.SetReadLimit(int64(p.config.MaxMessageSize))
	p.conn.SetReadDeadline(time.Now().Add(p.config.PongWait))
	p.conn.SetPongHandler(func(string) error { p.conn.SetReadDeadline(time.Now().Add(p.config.PongWait)); return nil })
	for {
		messageType, frame, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("peer %v read: %v", p.ID, err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		// one frame may batch several messages
		buf := bytes.NewReader(frame)
		for buf.Len() > 0 {
			msg := &wire.Message{}
			if err := msg.Decode(buf); err != nil {
				log.Printf("peer %v decode: %v", p.ID, err)
				return
			}
			if err := p.config.Listeners.OnMessage(msg); err != nil {
				log.Printf("peer %v message: %v", p.ID, err)
			}
		}
	}
}

func (p *Peer) handleWrite() {
	ticker := time.NewTicker(p.config.PingPeriod)
	defer func() {
		ticker.Stop()
		p.disconnect()
	}()
	for {
		select {
		case <-p.quit:
			p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case out := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteWait))

			w, err := p.conn.NextWriter(websocket.BinaryMessage)
			if err != nil {
				return
			}
			writeOut(w, out)

			// Add queued messages to the current websocket frame.
			n := len(p.send)
			for i := 0; i < n; i++ {
				writeOut(w, <-p.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeOut(w io.Writer, out outMessage) {
	if err := out.message.Encode(w); err != nil {
		log.Println("encode:", err)
	}
	if out.done != nil {
		out.done <- struct{}{}
	}
}

// PushMessage queue a message for delivery. Best effort: when the peer
// is gone or its queue is full the message is dropped, the caller is
// never blocked.
func (p *Peer) PushMessage(message *wire.Message, doneChan chan<- struct{}) {
	if atomic.LoadInt32(&p.connected) == 0 {
		if doneChan != nil {
			go func() { doneChan <- struct{}{} }()
		}
		return
	}
	select {
	case p.send <- outMessage{message: message, done: doneChan}:
	default:
		log.Printf("peer %v queue full, message %v dropped", p.ID, message.Header.Command)
		if doneChan != nil {
			go func() { doneChan <- struct{}{} }()
		}
	}
}

// IsConnected reports whether the pumps are running.
func (p *Peer) IsConnected() bool {
	return atomic.LoadInt32(&p.connected) == 1
}

// Close close conn
func (p *Peer) Close() {
	p.closeOnce.Do(func() { close(p.quit) })
}

func (p *Peer) disconnect() {
	if !atomic.CompareAndSwapInt32(&p.connected, 1, 0) {
		return
	}
	p.conn.Close()
}
