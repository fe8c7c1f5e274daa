package database

import "time"

// Server 服务器对象. One advertised game shard: identity plus the
// public endpoint clients are handed off to.
type Server struct {
	ID        uint32
	Name      string
	Host      string
	Port      int
	ClientNum int
	MaxConns  int
	BootAt    time.Time
}

// ServerCache holds the cluster-wide shard registry. In cluster mode
// it is backed by redis so every gateway sees the same list.
type ServerCache interface {
	SetServer(server *Server) error
	GetServer(id uint32) (*Server, error)
	DelServer(id uint32) error
	GetServers() ([]Server, error)
}
