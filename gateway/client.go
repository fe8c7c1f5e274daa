package gateway

import (
	"fmt"

	"github.com/gs-cluster/peer"
	"github.com/gs-cluster/wire"
)

// clientConn is one admitted game client. Clients only ever issue the
// lightweight query commands; anything else, and any frame the codec
// cannot parse, disconnects them.
type clientConn struct {
	peer *peer.Peer
	ip   string

	// queries per command, bounded to blunt scripted abuse. Only the
	// peer's read pump touches this.
	queries map[uint8]int
}

// handleQuery answers one client query. The returned message mirrors
// the request sequence number; a non-nil error drops the client.
func (g *Gateway) handleQuery(c *clientConn, msg *wire.Message) (*wire.Message, error) {
	c.queries[msg.Header.Command]++
	if max := g.config.MaxQueriesPerConn; max > 0 && c.queries[msg.Header.Command] > max {
		return nil, fmt.Errorf("client %v exceeded query limit for command %v", c.ip, msg.Header.Command)
	}

	var resp *wire.Message
	switch msg.Header.Command {
	case wire.MsgTypeQueryServers:
		resp = wire.MakeMessage(wire.MsgTypeQueryServersResp, g.serverList())
	case wire.MsgTypeQueryAddr:
		query := msg.Body.(*wire.MsgQueryAddr)
		resp = wire.MakeMessage(wire.MsgTypeQueryAddrResp, g.serverAddr(query.ServerID))
	case wire.MsgTypeQueryIP:
		resp = wire.MakeMessage(wire.MsgTypeQueryIPResp, &wire.MsgText{Text: c.ip})
	case wire.MsgTypeQueryPatch:
		resp = wire.MakeMessage(wire.MsgTypeQueryPatchResp, &wire.MsgText{Text: g.config.PatchAddr})
	default:
		return nil, fmt.Errorf("client %v sent command %v", c.ip, msg.Header.Command)
	}
	resp.Header.Seq = msg.Header.Seq
	return resp, nil
}

// serverList builds the advertised shard list from the cluster cache.
func (g *Gateway) serverList() *wire.MsgQueryServersResp {
	resp := &wire.MsgQueryServersResp{Servers: make([]wire.ServerItem, 0)}
	servers, err := g.cache.GetServers()
	if err != nil {
		// degrade to an empty list, the client retries
		return resp
	}
	for i := range servers {
		s := &servers[i]
		resp.Servers = append(resp.Servers, wire.ServerItem{
			ServerID: s.ID,
			Name:     s.Name,
			Online:   uint16(s.ClientNum),
			MaxConns: uint16(s.MaxConns),
		})
	}
	return resp
}

// serverAddr hands off one shard's public endpoint.
func (g *Gateway) serverAddr(serverID uint32) *wire.MsgQueryAddrResp {
	s, err := g.cache.GetServer(serverID)
	if err != nil || s == nil {
		return &wire.MsgQueryAddrResp{}
	}
	return &wire.MsgQueryAddrResp{OK: 1, Host: s.Host, Port: uint16(s.Port)}
}
