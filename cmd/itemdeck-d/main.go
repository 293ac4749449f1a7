package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/REPPL/itemdeck.app-sub011/pkg/api"
	"github.com/REPPL/itemdeck.app-sub011/pkg/collection"
	"github.com/REPPL/itemdeck.app-sub011/pkg/fetch"
	"github.com/REPPL/itemdeck.app-sub011/pkg/store"
	redisstore "github.com/REPPL/itemdeck.app-sub011/pkg/store/redis"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"itemdeck-d"}`)

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	// Optional document caches around the fetch capability.
	var cache fetch.DocumentCache
	var sqliteStore *store.Store
	switch {
	case cfg.CachePath != "":
		sqliteStore, err = store.NewStore(cfg.CachePath)
		if err != nil {
			fmt.Printf(`{"level":"fatal","msg":"failed_to_init_cache","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
		cache = sqliteStore
		fmt.Printf(`{"level":"info","msg":"cache_initialized","backend":"sqlite","path":"%s"}`+"\n", cfg.CachePath)
	case cfg.RedisAddr != "":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		cache = redisstore.NewDocumentCache(rdb, cfg.CacheTTL)
		fmt.Printf(`{"level":"info","msg":"cache_initialized","backend":"redis","addr":"%s"}`+"\n", cfg.RedisAddr)
	}

	open := func(base string) fetch.Fetcher {
		var f fetch.Fetcher
		if isURL(base) {
			f = fetch.NewHTTP(base)
		} else {
			f = fetch.NewLocal(base)
		}
		if cache != nil {
			f = fetch.NewCached(f, cache)
		}
		return f
	}

	manager := collection.NewManager(open)

	// Initial load. A failure is not fatal: the daemon serves health and
	// accepts reloads while reporting the load error.
	ctx := context.Background()
	if col, err := manager.SwitchWait(ctx, cfg.Collection); err != nil {
		fmt.Printf(`{"level":"error","msg":"initial_load_failed","base":"%s","error":"%v"}`+"\n", cfg.Collection, err)
	} else {
		fmt.Printf(`{"level":"info","msg":"collection_loaded","base":"%s","format":"%s","entities":%d,"warnings":%d}`+"\n",
			cfg.Collection, col.Format, col.Graph.Total(), len(col.Warnings))
	}

	server := api.NewServer(cfg.Addr, manager)
	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
	}()
	fmt.Printf(`{"level":"info","msg":"api_listening","addr":"%s"}`+"\n", cfg.Addr)

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf(`{"level":"error","msg":"server_shutdown_failed","error":"%v"}`+"\n", err)
	}
	if sqliteStore != nil {
		if err := sqliteStore.Close(); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_close_cache","error":"%v"}`+"\n", err)
		}
	}
	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}
