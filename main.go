package main

import (
	"log"
	"math"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/gs-cluster/chat"
	"github.com/gs-cluster/config"
	"github.com/gs-cluster/database"
	"github.com/gs-cluster/filelog"
	"github.com/gs-cluster/friend"
	"github.com/gs-cluster/gateway"
	"github.com/gs-cluster/guild"
	"github.com/gs-cluster/login"
	"github.com/gs-cluster/subscriber"

	_ "github.com/go-sql-driver/mysql"
)

type fabric struct {
	directory *login.Directory
	friends   *friend.Router
	guilds    *guild.Registry
	broker    *chat.Broker
	gateway   *gateway.Gateway
	journal   *filelog.FileLog
}

func (f *fabric) close() {
	f.broker.Close()
	if f.journal != nil {
		f.journal.Close()
	}
	os.Exit(0)
}

func handleInterrupt(f *fabric, sc chan os.Signal) {
	<-sc
	f.close()
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	// read config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Panicln(err)
	}

	var accounts database.AccountStore
	var friends database.FriendStore
	var guilds database.GuildStore
	var letters database.LetterStore
	var cache database.ServerCache

	if cfg.Server.Mode == config.ModeCluster {
		engine := database.InitMysqlDb(cfg.Mysql.MysqlSource())
		accounts = database.NewDbAccountStore(engine)
		friends = database.NewDbFriendStore(engine)
		guilds = database.NewDbGuildStore(engine)
		letters = database.NewDbLetterStore(engine)

		redis := database.InitRedis(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.Db)

		t1 := time.Now()
		serverTime, err := redis.Time().Result()
		t2 := time.Now()
		if err != nil {
			log.Panicln(err)
		}
		serverTime = serverTime.Add(t2.Sub(t1))
		if math.Abs(float64(serverTime.Sub(time.Now())/time.Millisecond)) > 500 {
			log.Panicln("system time is incorrect")
		}
		cache = database.NewRedisServerCache(redis)
	} else {
		accounts = database.NewMemAccountStore()
		friends = database.NewMemFriendStore()
		guilds = database.NewMemGuildStore()
		letters = database.NewMemLetterStore()
		cache = database.NewMemServerCache()
	}

	journal, err := filelog.NewFileLog(&filelog.Config{
		File:    cfg.Server.LetterFile,
		SubFunc: friend.FlushLetters(letters),
	})
	if err != nil {
		log.Panicln(err)
	}

	registry := subscriber.NewRegistry()
	broker := chat.NewBroker(chat.Config{
		Host:       cfg.Chat.Host,
		SlotCount:  cfg.Chat.SlotCount,
		Deadline:   time.Duration(cfg.Chat.DeadlineSec) * time.Second,
		TokenTTL:   time.Duration(cfg.Chat.TokenTTLSec) * time.Second,
		MaxRoomAge: time.Duration(cfg.Chat.MaxRoomAgeSec) * time.Second,
	})

	f := &fabric{
		directory: login.NewDirectory(&login.StorePolicy{Accounts: accounts}, registry),
		friends: friend.NewRouter(friend.Config{
			Store:    friends,
			Letters:  letters,
			Registry: registry,
			Broker:   broker,
			Journal:  journal,
		}),
		guilds:  guild.NewRegistry(guild.Config{Store: guilds, Registry: registry}),
		broker:  broker,
		journal: journal,
	}
	f.gateway = gateway.NewGateway(cfg.Server.ID, &gateway.Config{
		ListenHost:        cfg.Gateway.ListenIP,
		ListenPort:        cfg.Gateway.ListenPort,
		Secret:            cfg.Gateway.Secret,
		MaxConns:          cfg.Gateway.MaxConns,
		MaxConnsPerIP:     cfg.Gateway.MaxConnsPerIP,
		MaxQueriesPerConn: cfg.Gateway.MaxQueriesPerConn,
		MaxFrameBytes:     cfg.Gateway.MaxFrameBytes,
		PatchAddr:         cfg.Gateway.PatchAddr,
		Cache:             cache,
		Registry:          registry,
	})
	registerOps(f)

	// listen sys.exit
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt)
	go handleInterrupt(f, sc)

	if err := f.gateway.Run(); err != nil {
		log.Panicln(err)
	}
}
