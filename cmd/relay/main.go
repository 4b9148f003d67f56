package main

import (
	"flag"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/maximeliseyev/construct-messenger/internal/logging"
	"github.com/maximeliseyev/construct-messenger/internal/relay"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	redisAddr := flag.String("redis", "", "redis address for the offline mailbox (e.g. localhost:6379)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if err := logging.Init(*verbose); err != nil {
		panic(err)
	}
	defer logging.Sync()

	var mailbox relay.Mailbox
	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		mailbox = relay.NewRedisMailbox(rdb)
		logging.Info("using redis mailbox", zap.String("addr", *redisAddr))
	} else {
		mailbox = relay.NewMemoryMailbox()
		logging.Info("using in-memory mailbox")
	}

	srv := relay.NewServer(mailbox)
	logging.Info("relay listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		logging.Fatal("relay stopped", zap.Error(err))
	}
}
