package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"shopify_bridge/internal/checkout"
	"shopify_bridge/internal/config"
	"shopify_bridge/internal/journal"
	"shopify_bridge/internal/model"
	"shopify_bridge/internal/queue"
	"shopify_bridge/internal/reconcile"
	"shopify_bridge/internal/router"
	"shopify_bridge/internal/shopify"
	"shopify_bridge/internal/stripeapi"
	redisstore "shopify_bridge/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. SQLite 对账流水，自动建表
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&model.SubmittedOrder{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// 2. Redis 暂存层
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}
	staging := redisstore.NewStore(rdb, cfg.StagingTTL)

	// 3. 外部能力：Shopify Admin 与 Stripe
	shopifyClient := shopify.NewClient(cfg.ShopifyDomain, cfg.ShopifyAdminToken)
	stripeClient := stripeapi.NewClient(cfg.StripeSecretKey)

	// 4. 订单事件 outbox + Kafka relay
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	outbox := queue.NewOutboxWriter(rdb, cfg.OrderEventStream)
	relay := queue.NewRelay(rdb, producer, cfg.OrderEventStream, cfg.OrderEventGroup, cfg.OrderEventConsumer)
	go relay.Run(ctx)

	// 5. 对账流水线与结账服务
	pipeline := reconcile.NewPipeline(staging, shopifyClient, stripeClient, journal.New(db), outbox, cfg.LeaseTTL)
	checkoutSvc := checkout.NewService(stripeClient, shopifyClient, staging, cfg)

	r := gin.Default()
	router.Setup(r, router.Deps{
		Checkout:   checkoutSvc,
		Reconciler: pipeline,
		Staging:    staging,
		Redis:      rdb,
	}, cfg)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
