// Command authledger-server runs the credential lifecycle service as a
// standalone HTTP server.
//
// Configuration comes from an optional YAML file (-config) with
// AUTHLEDGER_* environment variables layered on top. The only required
// setting is the JWT signing secret.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mkarlin94/authledger"
	"github.com/mkarlin94/authledger/federated"
	"github.com/mkarlin94/authledger/httpapi"
	"github.com/mkarlin94/authledger/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(*configPath, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(configPath string, log *logrus.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	engineCfg := authledger.DefaultConfig()
	engineCfg.JWT.PrivateKey = []byte(cfg.JWT.Secret)
	engineCfg.JWT.AccessTTL = cfg.JWT.AccessTTL.Std()
	engineCfg.JWT.RefreshTTL = cfg.JWT.RefreshTTL.Std()
	engineCfg.JWT.Issuer = cfg.JWT.Issuer
	engineCfg.Security.EnableLoginThrottle = cfg.Security.EnableLoginThrottle
	engineCfg.Security.EnableIPThrottle = cfg.Security.EnableIPThrottle
	engineCfg.Security.EnableRefreshThrottle = cfg.Security.EnableRefreshThrottle
	if cfg.Security.MaxLoginAttempts > 0 {
		engineCfg.Security.MaxLoginAttempts = cfg.Security.MaxLoginAttempts
	}
	if cfg.Security.LoginCooldown > 0 {
		engineCfg.Security.LoginCooldownDuration = cfg.Security.LoginCooldown.Std()
	}
	if cfg.Security.MaxRefreshAttempts > 0 {
		engineCfg.Security.MaxRefreshAttempts = cfg.Security.MaxRefreshAttempts
	}
	if cfg.Security.RefreshCooldown > 0 {
		engineCfg.Security.RefreshCooldownDuration = cfg.Security.RefreshCooldown.Std()
	}

	builder := authledger.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithAuditSink(authledger.NewJSONWriterSink(log.Writer()))

	if cfg.OIDC.Enabled() {
		verifier, err := federated.NewOIDC(ctx, federated.Config{
			IssuerURL:    cfg.OIDC.IssuerURL,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
		})
		if err != nil {
			return err
		}
		builder = builder.WithIdentityVerifier(verifier)
		log.WithField("issuer", cfg.OIDC.IssuerURL).Info("federated login enabled")
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(engine, httpapi.Config{
		CookieDomain:     cfg.Cookie.Domain,
		CookieSecure:     cfg.Cookie.Secure,
		RefreshCookieTTL: cfg.JWT.RefreshTTL.Std(),
	}, log)
	router.GET("/healthz", func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
