package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"kiwa/internal/cart"
	"kiwa/internal/client"
	"kiwa/internal/config"
	"kiwa/internal/http/handlers"
	applog "kiwa/internal/log"
	"kiwa/internal/repos"
	"kiwa/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cartStore(ctx, cfg, db)
	api := client.New(cfg.APIBaseURL, cfg.APITimeout)
	deps := handlers.NewDeps(db, cfg, store, handlers.RemoteAPI(api))

	engine := handlers.NewEngine(cfg.TemplatesDir)
	engine.Reload(true)
	app := handlers.NewApp(cfg, deps, engine)
	go expireSessions(ctx, deps.Auth)
	go evictIdle(ctx, deps, cfg.ResidentIdle)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Printf("[warn] shutdown: %v", err)
		}
	}()

	log.Printf("[api] storefront submits to %s", api.BaseURL())
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// cartStore picks where carts are kept between requests and restarts.
func cartStore(ctx context.Context, cfg config.Config, db *sqlx.DB) cart.Store {
	switch cfg.CartStore {
	case "memory":
		log.Printf("[cart] in-memory store; carts are lost on restart")
		return cart.NewMemoryStore()
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			log.Printf("[warn] redis %s unreachable (%v); falling back to sqlite carts", cfg.RedisAddr, err)
			break
		}
		log.Printf("[cart] redis store at %s ttl=%s", cfg.RedisAddr, cfg.CartTTL)
		return repos.NewRedisCartStore(rdb, cfg.CartTTL)
	}
	carts := repos.NewCartRepo(db)
	if cfg.CartTTL > 0 {
		go purgeCarts(ctx, carts, cfg.CartTTL)
	}
	return carts
}

// purgeCarts drops sqlite carts untouched for longer than ttl.
func purgeCarts(ctx context.Context, carts *repos.CartRepo, ttl time.Duration) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		n, err := carts.Purge(ctx, time.Now().Add(-ttl))
		if err != nil {
			applog.Error(nil, "cart.purge.fail", err, nil)
		} else if n > 0 {
			applog.Info(nil, "cart.purge", map[string]any{"removed": n})
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// expireSessions signs out idle sessions once an hour.
func expireSessions(ctx context.Context, auth *services.AuthService) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if n, err := auth.ExpireIdle(time.Now()); err != nil {
			applog.Error(nil, "session.expire.fail", err, nil)
		} else if n > 0 {
			applog.Info(nil, "session.expire", map[string]any{"signed_out": n})
		}
	}
}

// evictIdle drops carts and checkouts nobody touched for idle from memory.
func evictIdle(ctx context.Context, deps *handlers.Deps, idle time.Duration) {
	every := idle / 2
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		before := time.Now().Add(-idle)
		flows := deps.Checkout.Evict(before)
		carts := deps.Carts.Evict(before)
		if flows+carts > 0 {
			applog.Info(nil, "session.evict", map[string]any{"carts": carts, "checkouts": flows})
		}
	}
}
