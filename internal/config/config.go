package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Shopify Admin API
	ShopifyDomain     string
	ShopifyAdminToken string

	// Stripe 密钥与 webhook 验签密钥
	StripeSecretKey     string
	StripeWebhookSecret string

	// 结账会话跳回的站点地址
	SiteBaseURL string

	// 店铺参数：币种、价内税率与税名、电话区号前缀、订单来源与标签
	Currency    string
	TaxRate     float64
	TaxTitle    string
	PhonePrefix string
	SourceName  string
	OrderTags   []string

	// 托管结账开放的支付方式
	PaymentMethodTypes []string

	// 草稿暂存 TTL（与 checkout session 同寿命）与对账租约 TTL
	StagingTTL time.Duration
	LeaseTTL   time.Duration

	// Kafka 集群地址（逗号分隔）与订单事件 Topic
	KafkaBrokers []string
	KafkaTopic   string

	// Redis Stream outbox（提交路径原子入流，Relay 异步转 Kafka）
	OrderEventStream   string
	OrderEventGroup    string
	OrderEventConsumer string

	// 结账接口限流
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "shopify_bridge.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             0,
		ShopifyDomain:       getEnv("SHOPIFY_DOMAIN", ""),
		ShopifyAdminToken:   getEnv("SHOPIFY_ADMIN_TOKEN", ""),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		SiteBaseURL:         getEnv("SITE_BASE_URL", "http://localhost:3000"),
		Currency:            getEnv("SHOP_CURRENCY", "EUR"),
		TaxRate:             0.20,
		TaxTitle:            getEnv("SHOP_TAX_TITLE", "FR TVA"),
		PhonePrefix:         getEnv("SHOP_PHONE_PREFIX", "+33"),
		SourceName:          getEnv("ORDER_SOURCE_NAME", "web_bridge"),
		OrderTags:           splitCSV(getEnv("ORDER_TAGS", "Stripe Bridge,v1")),
		PaymentMethodTypes:  splitCSV(getEnv("PAYMENT_METHOD_TYPES", "card,paypal,klarna")),
		StagingTTL:          20 * time.Hour,
		LeaseTTL:            60 * time.Second,
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "bridge-order-created"),
		OrderEventStream:    getEnv("ORDER_EVENT_STREAM", "bridge:order_events"),
		OrderEventGroup:     getEnv("ORDER_EVENT_GROUP", "bridge-relay-group"),
		OrderEventConsumer:  getEnv("ORDER_EVENT_CONSUMER", "bridge-relay-1"),
		CheckoutRateLimit:   60,
		CheckoutRateWindow:  time.Minute,
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	taxRate, err := getEnvFloat("SHOP_TAX_RATE", cfg.TaxRate)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SHOP_TAX_RATE: %w", err)
	}
	if taxRate < 0 || taxRate >= 1 {
		return AppConfig{}, fmt.Errorf("SHOP_TAX_RATE must be in [0,1)")
	}
	cfg.TaxRate = taxRate

	stagingTTLHour, err := getEnvInt("STAGING_TTL_HOUR", int(cfg.StagingTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid STAGING_TTL_HOUR: %w", err)
	}
	if stagingTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("STAGING_TTL_HOUR must be > 0")
	}
	cfg.StagingTTL = time.Duration(stagingTTLHour) * time.Hour

	leaseTTLSec, err := getEnvInt("RECONCILE_LEASE_SEC", int(cfg.LeaseTTL.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid RECONCILE_LEASE_SEC: %w", err)
	}
	if leaseTTLSec <= 0 {
		return AppConfig{}, fmt.Errorf("RECONCILE_LEASE_SEC must be > 0")
	}
	cfg.LeaseTTL = time.Duration(leaseTTLSec) * time.Second

	rateLimit, err := getEnvInt("CHECKOUT_RATE_LIMIT", cfg.CheckoutRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_LIMIT must be > 0")
	}
	cfg.CheckoutRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("CHECKOUT_RATE_WINDOW_SEC", int(cfg.CheckoutRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_WINDOW_SEC must be > 0")
	}
	cfg.CheckoutRateWindow = time.Duration(rateWindowSec) * time.Second

	if cfg.ShopifyDomain == "" {
		return AppConfig{}, fmt.Errorf("SHOPIFY_DOMAIN must not be empty")
	}
	if cfg.ShopifyAdminToken == "" {
		return AppConfig{}, fmt.Errorf("SHOPIFY_ADMIN_TOKEN must not be empty")
	}
	if cfg.StripeSecretKey == "" {
		return AppConfig{}, fmt.Errorf("STRIPE_SECRET_KEY must not be empty")
	}
	if cfg.StripeWebhookSecret == "" {
		return AppConfig{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET must not be empty")
	}
	if len(cfg.PaymentMethodTypes) == 0 {
		return AppConfig{}, fmt.Errorf("PAYMENT_METHOD_TYPES must not be empty")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.OrderEventStream == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_STREAM must not be empty")
	}
	if cfg.OrderEventGroup == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_GROUP must not be empty")
	}
	if cfg.OrderEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("ORDER_EVENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// getEnvFloat 读取浮点环境变量，若为空则返回默认值。
func getEnvFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
