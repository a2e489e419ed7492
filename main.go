package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PPClient/global"
	"PPClient/logger"
	"PPClient/service/debughttp"
	"PPClient/service/rest"
	"PPClient/service/session"
	syncsvc "PPClient/service/sync"
	"PPClient/service/transport"
	"PPClient/tools/security"
)

// Demo entrypoint: wires config, REST client, transport channel, store
// and synchronizer, then idles until a signal. The token comes from
// the environment; real applications own their token storage.
func main() {
	defer logger.Sync()

	if len(os.Args) > 1 {
		if err := global.Load(os.Args[1]); err != nil {
			logger.Errorf("load config %s: %v", os.Args[1], err)
			os.Exit(1)
		}
	}
	global.ConfigAll()
	cfg := global.Global

	token := os.Getenv("CHAT_ACCESS_TOKEN")
	ident, err := security.IdentityFromToken(token)
	if err != nil {
		logger.Errorf("resolve identity: %v", err)
		os.Exit(1)
	}

	var ch transport.Channel
	switch cfg.Transport {
	case global.TransportNats:
		ch = transport.NewNatsChannel(cfg.NatsURL, transport.WithNatsTimeout(cfg.ConnectTimeout()))
	default:
		ws := transport.NewWSChannel(cfg.WSURL)
		ws.SetDialTimeout(cfg.ConnectTimeout())
		ch = ws
	}

	api := rest.NewClient(cfg.APIBaseURL, token)
	store := session.NewStore()
	syn := syncsvc.New(cfg, api, ch, store, ident, token)
	defer syn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syn.LoadConversations(ctx)

	if cfg.DebugAddr != "" {
		debughttp.New(syn, cfg.DebugToken).Start(cfg.DebugAddr)
	}

	logger.Infof("chat client up user=%s transport=%s", ident.Username, cfg.Transport)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Infof("shutting down")
}
