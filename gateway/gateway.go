// Package gateway is the public entry point of the cluster. It admits
// game client connections under per-IP and total caps, answers their
// server-list and endpoint queries, and keeps the registry of live
// game shards that the directory services push notifications through.
package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/peer"
	"github.com/gs-cluster/server"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

// Config Config
type Config struct {
	ListenHost string
	ListenPort int
	// Secret signs the digest every connecting process must present.
	Secret string

	// MaxConns total client connections, zero means unlimited
	MaxConns int
	// MaxConnsPerIP concurrent connections per remote IP
	MaxConnsPerIP int
	// MaxQueriesPerConn per-connection ceiling for each query command
	MaxQueriesPerConn int
	// MaxFrameBytes client frames over this size disconnect the client
	MaxFrameBytes int

	// PatchAddr answered to patch/ftp-style queries
	PatchAddr string

	Cache    database.ServerCache
	Registry *subscriber.Registry
}

type shard struct {
	info   database.Server
	peer   *peer.Peer
	remote *subscriber.Remote
}

// Gateway Gateway
type Gateway struct {
	config   *Config
	desc     *server.Descriptor
	cache    database.ServerCache
	subs     *subscriber.Registry
	limiter  *limiter
	upgrader websocket.Upgrader

	mux *http.ServeMux

	mu     sync.Mutex
	shards map[uint32]*shard
}

// NewGateway NewGateway
func NewGateway(id uint32, config *Config) *Gateway {
	if config.MaxConnsPerIP == 0 {
		config.MaxConnsPerIP = 10
	}
	if config.MaxQueriesPerConn == 0 {
		config.MaxQueriesPerConn = 30
	}
	if config.MaxFrameBytes == 0 {
		config.MaxFrameBytes = 1024
	}
	return &Gateway{
		config:  config,
		desc:    server.NewDescriptor(server.ConnectIDOffset+id, server.TypeConnect, "gateway", "connect gateway", config.MaxConns),
		cache:   config.Cache,
		subs:    config.Registry,
		limiter: newLimiter(config.MaxConnsPerIP),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		mux:    http.NewServeMux(),
		shards: make(map[uint32]*shard),
	}
}

// Handle mounts an extra handler on the gateway listener, used for the
// management surface.
func (g *Gateway) Handle(pattern string, handler http.HandlerFunc) {
	g.mux.HandleFunc(pattern, handler)
}

// Run start the http listener. This function must be in a routine.
func (g *Gateway) Run() error {
	g.desc.SetState(server.StateStarting)

	g.mux.HandleFunc("/client", func(w http.ResponseWriter, r *http.Request) {
		g.handleClientWebSocket(w, r)
	})
	g.mux.HandleFunc("/server", func(w http.ResponseWriter, r *http.Request) {
		g.handleServerWebSocket(w, r)
	})
	g.mux.HandleFunc("/q/info", func(w http.ResponseWriter, r *http.Request) {
		g.httpInfoHandler(w, r)
	})
	g.mux.HandleFunc("/q/servers", func(w http.ResponseWriter, r *http.Request) {
		g.httpServersHandler(w, r)
	})

	g.desc.SetState(server.StateStarted)
	addr := fmt.Sprintf("%s:%d", g.config.ListenHost, g.config.ListenPort)
	log.Println("gateway listen on", addr)
	err := http.ListenAndServe(addr, g.mux)
	g.desc.SetState(server.StateStopped)
	return err
}

// Descriptor the gateway's own manageable identity
func (g *Gateway) Descriptor() *server.Descriptor {
	return g.desc
}

// 处理来自游戏客户端的连接
func (g *Gateway) handleClientWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nonce := q.Get("nonce")
	digest := q.Get("digest")
	if nonce == "" || !checkDigest(g.config.Secret, nonce, digest) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ip := remoteIP(r.RemoteAddr)
	if !g.limiter.acquire(ip) {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if !g.desc.AddConn() {
		g.limiter.release(ip)
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.limiter.release(ip)
		g.desc.RemoveConn()
		handleHTTPErr(w, err)
		return
	}

	client := &clientConn{ip: ip, queries: make(map[uint8]int)}
	client.peer = peer.NewPeer(fmt.Sprintf("client@%v", r.RemoteAddr), &peer.Config{
		MaxMessageSize: g.config.MaxFrameBytes,
		Listeners: &peer.MessageListeners{
			OnMessage: func(msg *wire.Message) error {
				resp, err := g.handleQuery(client, msg)
				if err != nil {
					client.peer.Close()
					return err
				}
				client.peer.PushMessage(resp, nil)
				return nil
			},
			OnDisconnect: func() error {
				g.limiter.release(ip)
				g.desc.RemoveConn()
				return nil
			},
		},
	})
	client.peer.SetConnection(conn)
}

// 处理来自游戏服务器节点的连接
func (g *Gateway) handleServerWebSocket(w http.ResponseWriter, r *http.Request) {
	info, err := shardInfo(r)
	if err != nil {
		handleHTTPErr(w, err)
		return
	}
	nonce := r.Header.Get("nonce")
	digest := r.Header.Get("digest")
	if !checkDigest(g.config.Secret, fmt.Sprintf("%v%v", info.ID, nonce), digest) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	var p *peer.Peer
	p = peer.NewPeer(fmt.Sprintf("server%d@%v", info.ID, r.RemoteAddr), &peer.Config{
		Listeners: &peer.MessageListeners{
			OnMessage: func(msg *wire.Message) error {
				return g.handleShardMessage(info.ID, msg)
			},
			OnDisconnect: func() error {
				g.removeShard(info.ID, p)
				return nil
			},
		},
	})
	g.addShard(*info, p)
	p.SetConnection(conn)
	log.Printf("server %d (%s) connected", info.ID, info.Name)
}

func shardInfo(r *http.Request) (*database.Server, error) {
	id, err := strconv.ParseUint(r.Header.Get("server-id"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad server-id: %v", err)
	}
	port, err := strconv.Atoi(r.Header.Get("port"))
	if err != nil {
		return nil, fmt.Errorf("bad port: %v", err)
	}
	maxConns, _ := strconv.Atoi(r.Header.Get("max-conns"))
	host := r.Header.Get("host-addr")
	name := r.Header.Get("name")
	if host == "" || name == "" {
		return nil, fmt.Errorf("missing host or name")
	}
	return &database.Server{
		ID:       uint32(id),
		Name:     name,
		Host:     host,
		Port:     port,
		MaxConns: maxConns,
		BootAt:   time.Now(),
	}, nil
}

// addShard registers a live shard: it becomes reachable for
// notification pushes and advertised to clients.
func (g *Gateway) addShard(info database.Server, p *peer.Peer) {
	remote := subscriber.NewRemote(info.ID, p)

	g.mu.Lock()
	g.shards[info.ID] = &shard{info: info, peer: p, remote: remote}
	g.mu.Unlock()

	g.subs.Register(remote)
	if err := g.cache.SetServer(&info); err != nil {
		log.Println("advertise shard:", err)
	}
}

// removeShard forgets a shard, but only if the disconnecting peer is
// still the registered one; a reconnect may have replaced it.
func (g *Gateway) removeShard(serverID uint32, p *peer.Peer) {
	g.mu.Lock()
	s, ok := g.shards[serverID]
	if !ok || s.peer != p {
		g.mu.Unlock()
		return
	}
	delete(g.shards, serverID)
	g.mu.Unlock()

	g.subs.Unregister(s.remote)
	if err := g.cache.DelServer(serverID); err != nil {
		log.Println("withdraw shard:", err)
	}
	log.Printf("server %d (%s) disconnected", serverID, s.info.Name)
}

// handleShardMessage fields the few messages a shard sends upstream.
func (g *Gateway) handleShardMessage(serverID uint32, msg *wire.Message) error {
	switch body := msg.Body.(type) {
	case *wire.MsgBroadcast:
		g.Broadcast(body.Text)
		return nil
	}
	return fmt.Errorf("server %d sent command %v", serverID, msg.Header.Command)
}

// Broadcast pushes one global text line to every connected shard.
func (g *Gateway) Broadcast(text string) {
	for _, sub := range g.subs.All() {
		sub.Broadcast(text)
	}
}

// UpdateOnline refreshes a shard's advertised player count.
func (g *Gateway) UpdateOnline(serverID uint32, clientNum int) {
	g.mu.Lock()
	s, ok := g.shards[serverID]
	if ok {
		s.info.ClientNum = clientNum
	}
	g.mu.Unlock()
	if !ok {
		return
	}
	info := s.info
	if err := g.cache.SetServer(&info); err != nil {
		log.Println("advertise shard:", err)
	}
}

// 管理端健康信息
func (g *Gateway) httpInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.desc.Snapshot())
}

// 管理端在线服务器列表
func (g *Gateway) httpServersHandler(w http.ResponseWriter, r *http.Request) {
	servers, err := g.cache.GetServers()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(servers)
}

func remoteIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func checkDigest(secret, text, digest string) bool {
	h := md5.New()
	io.WriteString(h, text)
	io.WriteString(h, secret)
	return digest == hex.EncodeToString(h.Sum(nil))
}

// Digest signs text for a connecting process. Shards use it when
// dialing /server, clients when dialing /client.
func Digest(secret, text string) string {
	h := md5.New()
	io.WriteString(h, text)
	io.WriteString(h, secret)
	return hex.EncodeToString(h.Sum(nil))
}

func handleHTTPErr(w http.ResponseWriter, err error) {
	fmt.Fprint(w, err.Error())
	w.WriteHeader(http.StatusBadRequest)
}
