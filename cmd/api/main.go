package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"shopcore.dev/internal/auth"
	"shopcore.dev/internal/config"
	"shopcore.dev/internal/httpapi"
	"shopcore.dev/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// no logger yet
		panic(err)
	}

	log, err := obs.NewLogger(obs.LogConfig{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Version: version,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var db *sql.DB
	var store auth.Store
	if cfg.DB.DSN != "" {
		db, err = sql.Open("pgx", cfg.DB.DSN)
		if err != nil {
			log.Fatal("open db", zap.Error(err))
		}
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
		store = auth.NewPGStore(db)
	} else {
		mem := auth.NewMemoryStore()
		hasher := auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}
		if err := auth.SeedDemo(context.Background(), mem, hasher); err != nil {
			log.Fatal("seed demo accounts", zap.Error(err))
		}
		store = mem
		log.Warn("no db.dsn configured, using in-memory store with demo accounts")
	}

	keys := auth.NewKeyStore()
	key, err := initialSigningKey(cfg)
	if err != nil {
		log.Fatal("load signing key", zap.Error(err))
	}
	if err := keys.Rotate(key); err != nil {
		log.Fatal("install signing key", zap.Error(err))
	}

	tokens, err := auth.NewTokenService(keys, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		log.Fatal("token service", zap.Error(err))
	}
	svc, err := auth.NewService(store, keys, tokens,
		auth.WithHasher(auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}),
		auth.WithLogger(log),
	)
	if err != nil {
		log.Fatal("auth service", zap.Error(err))
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc, log)
	api.SetRateLimit(cfg.RateLimit.Burst, cfg.RateLimit.PerSecond)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Info("starting server",
		zap.String("addr", srv.Addr),
		zap.String("issuer", cfg.Auth.Issuer),
		zap.String("kid", key.Kid),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Info("stopped")
}

// initialSigningKey loads configured key material or generates a fresh
// keypair. Generated keys do not survive a restart; point
// auth.private_key_pem or auth.private_key_file at durable material in
// production so issued tokens outlive the process.
func initialSigningKey(cfg *config.Config) (*auth.SigningKey, error) {
	if cfg.Auth.PrivateKeyPEM != "" {
		return auth.LoadSigningKey(cfg.Auth.SigningKid, cfg.Auth.PrivateKeyPEM)
	}
	if cfg.Auth.PrivateKeyFile != "" {
		pem, err := os.ReadFile(cfg.Auth.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		return auth.LoadSigningKey(cfg.Auth.SigningKid, string(pem))
	}
	return auth.GenerateSigningKey()
}
