package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/chat"
	"github.com/tobiadex/chopchat/internal/config"
	"github.com/tobiadex/chopchat/internal/httpx"
	"github.com/tobiadex/chopchat/internal/order"
	"github.com/tobiadex/chopchat/internal/payment"
	"github.com/tobiadex/chopchat/internal/session"
	"github.com/tobiadex/chopchat/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config: ", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("init logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	sessions := session.NewManager(
		session.NewPGRepo(pool),
		user.NewPGRepo(pool),
		cfg.HeartbeatInterval,
		cfg.SessionActiveWindow,
		logger,
	)
	defer sessions.Close()

	orders := order.NewService(order.NewPGRepo(pool), cfg.Tax(), logger)
	gateway := payment.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	payments := payment.NewOrchestrator(gateway, orders, cfg.CallbackURL, logger)
	dispatcher := chat.NewDispatcher(orders, payments, logger)

	router := gin.New()
	router.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.CORS(cfg.CORSOrigin))
	router.POST("/chatbot", chatbotHandler(dispatcher, sessions, logger))
	router.GET("/payment/callback", paymentCallbackHandler(payments, cfg.FrontendURL, logger))
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info("chatbot-service listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
