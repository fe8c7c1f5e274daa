package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/peer"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

func newGateway(config *Config) *Gateway {
	if config.Cache == nil {
		config.Cache = database.NewMemServerCache()
	}
	if config.Registry == nil {
		config.Registry = subscriber.NewRegistry()
	}
	return NewGateway(1, config)
}

func newClient(ip string) *clientConn {
	c := &clientConn{ip: ip, queries: make(map[uint8]int)}
	c.peer = peer.NewPeer("test", &peer.Config{Listeners: &peer.MessageListeners{}})
	return c
}

func TestLimiterPerIPCap(t *testing.T) {
	l := newLimiter(2)

	assert.True(t, l.acquire("10.0.0.1"))
	assert.True(t, l.acquire("10.0.0.1"))
	assert.False(t, l.acquire("10.0.0.1"))
	// other addresses are unaffected
	assert.True(t, l.acquire("10.0.0.2"))

	l.release("10.0.0.1")
	assert.True(t, l.acquire("10.0.0.1"))
	assert.Equal(t, 2, l.count("10.0.0.1"))
}

func TestTotalConnectionCap(t *testing.T) {
	g := newGateway(&Config{MaxConns: 2})

	assert.True(t, g.desc.AddConn())
	assert.True(t, g.desc.AddConn())
	assert.False(t, g.desc.AddConn())
	g.desc.RemoveConn()
	assert.True(t, g.desc.AddConn())
}

func TestQueryServerList(t *testing.T) {
	g := newGateway(&Config{})
	g.cache.SetServer(&database.Server{ID: 1, Name: "alpha", Host: "10.0.0.5", Port: 7777, ClientNum: 12, MaxConns: 500})

	req := wire.MakeMessage(wire.MsgTypeQueryServers, &wire.MsgEmpty{})
	req.Header.Seq = 42
	resp, err := g.handleQuery(newClient("1.2.3.4"), req)
	require.NoError(t, err)

	assert.Equal(t, wire.MsgTypeQueryServersResp, resp.Header.Command)
	assert.Equal(t, uint32(42), resp.Header.Seq)
	list := resp.Body.(*wire.MsgQueryServersResp)
	require.Len(t, list.Servers, 1)
	assert.Equal(t, "alpha", list.Servers[0].Name)
	assert.Equal(t, uint16(12), list.Servers[0].Online)
}

func TestQueryServerAddr(t *testing.T) {
	g := newGateway(&Config{})
	g.cache.SetServer(&database.Server{ID: 3, Host: "10.0.0.5", Port: 7777})
	c := newClient("1.2.3.4")

	resp, err := g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryAddr, &wire.MsgQueryAddr{ServerID: 3}))
	require.NoError(t, err)
	body := resp.Body.(*wire.MsgQueryAddrResp)
	assert.Equal(t, uint8(1), body.OK)
	assert.Equal(t, "10.0.0.5", body.Host)
	assert.Equal(t, uint16(7777), body.Port)

	// unknown shard: not found, not an error
	resp, err = g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryAddr, &wire.MsgQueryAddr{ServerID: 99}))
	require.NoError(t, err)
	assert.Zero(t, resp.Body.(*wire.MsgQueryAddrResp).OK)
}

func TestInformationalQueries(t *testing.T) {
	g := newGateway(&Config{PatchAddr: "ftp://patch.example.com"})
	c := newClient("1.2.3.4")

	resp, err := g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryIP, &wire.MsgEmpty{}))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", resp.Body.(*wire.MsgText).Text)

	resp, err = g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryPatch, &wire.MsgEmpty{}))
	require.NoError(t, err)
	assert.Equal(t, "ftp://patch.example.com", resp.Body.(*wire.MsgText).Text)
}

func TestQueryCeilingDropsClient(t *testing.T) {
	g := newGateway(&Config{MaxQueriesPerConn: 3})
	c := newClient("1.2.3.4")

	for i := 0; i < 3; i++ {
		_, err := g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryServers, &wire.MsgEmpty{}))
		require.NoError(t, err)
	}
	_, err := g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryServers, &wire.MsgEmpty{}))
	assert.Error(t, err)

	// the ceiling is per command class
	_, err = g.handleQuery(c, wire.MakeMessage(wire.MsgTypeQueryIP, &wire.MsgEmpty{}))
	assert.NoError(t, err)
}

func TestUnrecognizedCommandDropsClient(t *testing.T) {
	g := newGateway(&Config{})

	_, err := g.handleQuery(newClient("1.2.3.4"), wire.MakeMessage(wire.MsgTypeKill, &wire.MsgKill{}))
	assert.Error(t, err)
}

func TestShardRegistration(t *testing.T) {
	g := newGateway(&Config{})
	p := peer.NewPeer("server3", &peer.Config{Listeners: &peer.MessageListeners{}})

	g.addShard(database.Server{ID: 3, Name: "alpha", Host: "10.0.0.5", Port: 7777}, p)

	// advertised to clients and reachable for pushes
	s, err := g.cache.GetServer(3)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "alpha", s.Name)
	assert.NotNil(t, g.subs.Get(3))

	g.UpdateOnline(3, 55)
	s, _ = g.cache.GetServer(3)
	assert.Equal(t, 55, s.ClientNum)

	g.removeShard(3, p)
	s, err = g.cache.GetServer(3)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, g.subs.Get(3))
}

func TestShardReconnectIsNotClobbered(t *testing.T) {
	g := newGateway(&Config{})
	old := peer.NewPeer("server3-old", &peer.Config{Listeners: &peer.MessageListeners{}})
	fresh := peer.NewPeer("server3-new", &peer.Config{Listeners: &peer.MessageListeners{}})

	g.addShard(database.Server{ID: 3, Name: "alpha"}, old)
	g.addShard(database.Server{ID: 3, Name: "alpha"}, fresh)

	// the stale peer's disconnect must not withdraw the fresh one
	g.removeShard(3, old)
	s, _ := g.cache.GetServer(3)
	assert.NotNil(t, s)
	assert.NotNil(t, g.subs.Get(3))
}

func TestBroadcastReachesAllShards(t *testing.T) {
	g := newGateway(&Config{})
	rec1 := subscriber.NewRecorder(1)
	rec2 := subscriber.NewRecorder(2)
	g.subs.Register(rec1)
	g.subs.Register(rec2)

	g.Broadcast("maintenance at midnight")

	assert.Equal(t, []string{"maintenance at midnight"}, rec1.Broadcasts)
	assert.Equal(t, []string{"maintenance at midnight"}, rec2.Broadcasts)
}

func TestDigest(t *testing.T) {
	secret := "s3cret"
	assert.True(t, checkDigest(secret, "abc", Digest(secret, "abc")))
	assert.False(t, checkDigest(secret, "abc", Digest("other", "abc")))
}
