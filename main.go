package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"EduChat/global"
	"EduChat/logger"
	mid "EduChat/middleware"
	chatservice "EduChat/module/chat/service"
	chatstore "EduChat/module/chat/store"
	userservice "EduChat/module/user/service"
	"EduChat/service/gateway"
	"EduChat/service/mgo"
	"EduChat/service/natsx"
	redisx "EduChat/service/storage/redis"
	jwtlib "EduChat/tools/security"
)

func main() {
	defer logger.Sync()
	global.ConfigAll()
	conf := global.Conf

	if err := redisx.InitRedis(redisx.Config{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	}); err != nil {
		logger.Errorf("[boot] redis init failed: %v", err)
		os.Exit(1)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	mgo.StartAsync(rootCtx, mgo.Config{
		URI:         conf.Mongo.URI,
		Database:    conf.Mongo.Database,
		Username:    conf.Mongo.Username,
		Password:    conf.Mongo.Password,
		MaxPoolSize: conf.Mongo.MaxPoolSize,
	})
	waitCtx, waitCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer waitCancel()
	if err := mgo.WaitReady(waitCtx); err != nil {
		logger.Errorf("[boot] mongo not ready: %v (last: %v)", err, mgo.Err())
		os.Exit(1)
	}
	db := mgo.GetDB()

	userSvc := userservice.NewService(db, jwtlib.DefaultOptions(global.GetJwtSecret()))
	mid.Config(userSvc)

	store := chatstore.NewStore(db, userSvc)

	var relay *natsx.Client
	if len(conf.Nats.Servers) > 0 {
		var err error
		relay, err = natsx.NewClient(natsx.Config{
			Servers: conf.Nats.Servers,
			Name:    "educhat-" + conf.Gateway.NodeID,
		})
		if err != nil {
			logger.Errorf("[boot] nats connect failed: %v", err)
			os.Exit(1)
		}
		defer relay.Close()
	}

	gw := gateway.NewServer(gateway.Config{
		NodeID:        conf.Gateway.NodeID,
		SendQueueSize: conf.Gateway.SendQueueSize,
	}, userSvc, relay)
	if err := gw.Start(); err != nil {
		logger.Errorf("[boot] gateway relay start failed: %v", err)
		os.Exit(1)
	}

	chatHandler := chatservice.NewHandler(store, gw, userSvc)

	engine := gin.New()
	engine.Use(gin.Recovery())
	api := engine.Group("/api")
	chatHandler.RegisterRoutes(api)
	engine.GET("/ws", gw.HandleWS)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "node": conf.Gateway.NodeID})
	})

	srv := &http.Server{Addr: conf.HTTP.Addr, Handler: engine}
	go func() {
		logger.Infof("[boot] listening on %s", conf.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] server error: %v", err)
			rootCancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-rootCtx.Done():
	}

	logger.Info("[boot] shutting down")
	gw.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
