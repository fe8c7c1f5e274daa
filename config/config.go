package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ini/ini"
)

const (
	defaultConfigName = "conf.ini"
	defaultLetterName = "letter.log"
)

var (
	configDir         = "./"
	dataDir           = "./data"
	defaultConfigFile = filepath.Join(configDir, defaultConfigName)
)

const (
	// ModeSingle 单机启动模式, in-memory stores only
	ModeSingle = 1
	// ModeCluster 集群模式, mysql + redis backed
	ModeCluster = 2
)

// ServerConfig ServerConfig
type ServerConfig struct {
	ID          uint32 `description:"server id, gateway ids are offset into the connect range"`
	Name        string
	Description string
	Mode        int
	LetterFile  string
}

// GatewayConfig gateway listen and admission limits
type GatewayConfig struct {
	ListenIP          string
	ListenPort        int
	Secret            string
	MaxConns          int
	MaxConnsPerIP     int
	MaxQueriesPerConn int
	MaxFrameBytes     int
	PatchAddr         string
}

// ChatConfig chat room broker
type ChatConfig struct {
	Host          string
	SlotCount     int
	DeadlineSec   int
	TokenTTLSec   int
	MaxRoomAgeSec int
}

// RedisConfig redis config
type RedisConfig struct {
	IP       string
	Port     int
	Password string
	Db       int
}

// MysqlConfig mysql config
type MysqlConfig struct {
	IP       string
	Port     int
	User     string
	Password string
	DbName   string
}

// PeerConfig PeerConfig
type PeerConfig struct {
	MaxMessageSize int
	WriteWait      int
	PongWait       int
	PingPeriod     int
}

// Config 系统配置信息
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Chat    ChatConfig
	Redis   RedisConfig
	Mysql   MysqlConfig
	Peer    PeerConfig
}

// LoadConfig read conf.ini next to the binary
func LoadConfig() (*Config, error) {
	return LoadConfigFile(defaultConfigFile)
}

// LoadConfigFile LoadConfigFile
func LoadConfigFile(file string) (*Config, error) {
	cfg, err := ini.Load(file)
	if err != nil {
		fmt.Printf("Fail to read file: %v", err)
		return nil, err
	}
	var config Config
	if err = cfg.Section("server").MapTo(&config.Server); err != nil {
		return nil, err
	}
	config.Server.LetterFile = filepath.Join(dataDir, defaultLetterName)

	if err = cfg.Section("gateway").MapTo(&config.Gateway); err != nil {
		return nil, err
	}
	if err = cfg.Section("chat").MapTo(&config.Chat); err != nil {
		return nil, err
	}
	if err = cfg.Section("redis").MapTo(&config.Redis); err != nil {
		return nil, err
	}
	if err = cfg.Section("mysql").MapTo(&config.Mysql); err != nil {
		return nil, err
	}
	if err = cfg.Section("peer").MapTo(&config.Peer); err != nil {
		return nil, err
	}

	// datadir
	if _, err := os.Stat(dataDir); err != nil {
		if err = os.MkdirAll(dataDir, os.ModePerm); err != nil {
			fmt.Println(err)
			return nil, err
		}
	}

	return &config, nil
}

// MysqlSource the datasource string, parameters are appended by the
// database layer.
func (c *MysqlConfig) MysqlSource() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.User, c.Password, c.IP, c.Port, c.DbName)
}

// RedisAddr host:port
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}
