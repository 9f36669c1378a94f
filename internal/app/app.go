package app

import (
	"context"
	"log"
	"tush00nka/coachly_messaging/internal/config"
	"tush00nka/coachly_messaging/internal/handler"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/notify"
	"tush00nka/coachly_messaging/internal/pkg/logger"
	"tush00nka/coachly_messaging/internal/repository"
	"tush00nka/coachly_messaging/internal/service"
	"tush00nka/coachly_messaging/internal/ws"

	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zl.Sync()

	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Message{},
		&model.MessageHide{},
		&model.Attachment{},
	); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	rdb, err := repository.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zl.Fatal("redis connection failed", zap.Error(err))
	}

	storage, err := service.NewS3Storage(cfg)
	if err != nil {
		zl.Fatal("object storage init failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	unreadCache := repository.NewUnreadCacheRepository(rdb)

	userService := service.NewUserService(userRepo)
	messageService := service.NewMessageService(messageRepo, attachmentRepo, userRepo, unreadCache)
	conversationService := service.NewConversationService(messageRepo, userRepo, unreadCache)
	attachmentService := service.NewAttachmentService(storage, attachmentRepo, cfg.S3BucketName, cfg.MaxAttachmentSize)

	hub := ws.NewHub()
	bus := notify.NewRedisBroker(rdb)
	gateway := ws.NewGateway(hub, messageService, bus, zl)

	fanout := notify.NewFanout(rdb, hub, conversationService, zl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := fanout.Run(ctx); err != nil {
			zl.Error("fanout stopped", zap.Error(err))
		}
	}()

	userHandler := handler.NewUserHandler(userService)
	messageHandler := handler.NewMessageHandler(gateway, messageService, conversationService, attachmentService, cfg.MaxAttachmentSize)
	gatewayHandler := handler.NewGatewayHandler(gateway, zl)

	server := NewServer(userHandler, messageHandler, gatewayHandler, zl)
	server.Run(cfg.ServerPort, zl)
}
