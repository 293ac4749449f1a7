package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAddr     = "127.0.0.1:8091"
	defaultCacheTTL = 1 * time.Hour
)

type Config struct {
	Addr       string
	Collection string // base directory or URL of the collection
	CachePath  string // SQLite document cache, empty disables
	RedisAddr  string // Redis document cache, empty disables
	CacheTTL   time.Duration
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	addr := envOrDefault("ITEMDECK_ADDR", defaultAddr)
	base := envOrDefault("ITEMDECK_COLLECTION", cwd)
	cachePath := os.Getenv("ITEMDECK_CACHE_PATH")
	redisAddr := os.Getenv("ITEMDECK_REDIS_ADDR")
	cacheTTL := defaultCacheTTL
	if ttlEnv := os.Getenv("ITEMDECK_CACHE_TTL"); ttlEnv != "" {
		parsed, err := time.ParseDuration(ttlEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ITEMDECK_CACHE_TTL: %w", err)
		}
		cacheTTL = parsed
	}

	flagSet := flag.NewFlagSet("itemdeck-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagCollection := flagSet.String("collection", base, "collection base directory or URL")
	flagCache := flagSet.String("cache", cachePath, "path to SQLite document cache (empty disables)")
	flagRedis := flagSet.String("redis", redisAddr, "Redis address for the document cache (empty disables)")
	flagTTL := flagSet.String("cache-ttl", cacheTTL.String(), "Redis cache entry TTL")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	ttl, err := time.ParseDuration(*flagTTL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	config := Config{
		Addr:       *flagAddr,
		Collection: resolveBase(*flagCollection, cwd),
		CachePath:  *flagCache,
		RedisAddr:  *flagRedis,
		CacheTTL:   ttl,
	}
	if config.CachePath != "" {
		config.CachePath = resolvePath(config.CachePath, cwd)
	}
	return config, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// resolveBase leaves URLs alone and absolutizes filesystem paths.
func resolveBase(base, cwd string) string {
	if isURL(base) {
		return base
	}
	return resolvePath(base, cwd)
}

func resolvePath(path, cwd string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
