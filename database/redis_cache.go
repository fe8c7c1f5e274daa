package database

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis"
)

const (
	serversRedisKey    = "GS_SERVER_LIST"
	serverRedisPattern = "GS_SERVER_%d"
)

// RedisServerCache shard registry in redis, shared by every gateway in
// the cluster.
type RedisServerCache struct {
	client *redis.Client
}

// NewRedisServerCache NewRedisServerCache
func NewRedisServerCache(client *redis.Client) *RedisServerCache {
	return &RedisServerCache{client: client}
}

// SetServer SetServer
func (c *RedisServerCache) SetServer(server *Server) error {
	buf, _ := json.Marshal(server)
	skey := fmt.Sprintf(serverRedisPattern, server.ID)
	_, err := c.client.HSet(serversRedisKey, skey, buf).Result()
	return err
}

// GetServer GetServer
func (c *RedisServerCache) GetServer(id uint32) (*Server, error) {
	skey := fmt.Sprintf(serverRedisPattern, id)
	res, err := c.client.HGet(serversRedisKey, skey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	server := &Server{}
	if err := json.Unmarshal([]byte(res), server); err != nil {
		return nil, err
	}
	return server, nil
}

// DelServer DelServer
func (c *RedisServerCache) DelServer(id uint32) error {
	skey := fmt.Sprintf(serverRedisPattern, id)
	_, err := c.client.HDel(serversRedisKey, skey).Result()
	return err
}

// GetServers GetServers
func (c *RedisServerCache) GetServers() ([]Server, error) {
	res, err := c.client.HGetAll(serversRedisKey).Result()
	if err != nil {
		return nil, err
	}
	servers := make([]Server, 0, len(res))
	for _, item := range res {
		server := Server{}
		if err := json.Unmarshal([]byte(item), &server); err != nil {
			continue
		}
		servers = append(servers, server)
	}
	return servers, nil
}

// MemServerCache shard registry for single mode and tests.
type MemServerCache struct {
	mu      sync.Mutex
	servers map[uint32]*Server
}

// NewMemServerCache NewMemServerCache
func NewMemServerCache() *MemServerCache {
	return &MemServerCache{servers: make(map[uint32]*Server)}
}

// SetServer SetServer
func (c *MemServerCache) SetServer(server *Server) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *server
	c.servers[server.ID] = &copied
	return nil
}

// GetServer GetServer
func (c *MemServerCache) GetServer(id uint32) (*Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	server, ok := c.servers[id]
	if !ok {
		return nil, nil
	}
	copied := *server
	return &copied, nil
}

// DelServer DelServer
func (c *MemServerCache) DelServer(id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.servers, id)
	return nil
}

// GetServers GetServers
func (c *MemServerCache) GetServers() ([]Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	servers := make([]Server, 0, len(c.servers))
	for _, server := range c.servers {
		servers = append(servers, *server)
	}
	return servers, nil
}

// InitRedis return a redis instance
func InitRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
