package router

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"shopify_bridge/internal/checkout"
	"shopify_bridge/internal/config"
	"shopify_bridge/internal/middleware"
	"shopify_bridge/internal/model"
	"shopify_bridge/internal/reconcile"
	"shopify_bridge/internal/stripeapi"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// CheckoutService 结账会话创建能力。
type CheckoutService interface {
	CreateSession(ctx context.Context, req checkout.Request) (checkout.SessionInfo, error)
}

// Reconciler 支付完成事件的对账能力。
type Reconciler interface {
	HandleCompletion(ctx context.Context, session stripeapi.CheckoutSession) (reconcile.Outcome, error)
}

// StagingReader 状态查询用的暂存读取能力。
type StagingReader interface {
	GetStaged(ctx context.Context, sessionID string) (model.StagedValue, bool, error)
}

// Deps 路由依赖。Redis 为 nil 时不挂限流（测试场景）。
type Deps struct {
	Checkout   CheckoutService
	Reconciler Reconciler
	Staging    StagingReader
	Redis      *rd.Client
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, deps Deps, cfg config.AppConfig) {
	r.Use(middleware.CORS())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	api := r.Group("/api/v1")
	if deps.Redis != nil {
		api.POST("/checkout/session",
			middleware.RedisRateLimit(deps.Redis, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow),
			createCheckoutSession(deps.Checkout))
	} else {
		api.POST("/checkout/session", createCheckoutSession(deps.Checkout))
	}
	api.POST("/stripe/webhook", stripeWebhook(deps.Reconciler, cfg.StripeWebhookSecret))
	api.GET("/session/:session_id/order", getOrderStatus(deps.Staging))
}

// createCheckoutSession 开一次托管结账并暂存订单草稿。
func createCheckoutSession(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		info, err := svc.CreateSession(c.Request.Context(), req)
		if err != nil {
			log.Printf("create checkout session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "error creating checkout session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": info})
	}
}

// stripeWebhook 是支付完成事件入口。
// 只有验签失败（4xx）和对账失败（5xx，交给投递方重试）以失败响应；
// 其余情况一律 200，包括无草稿的空操作与重复投递。
func stripeWebhook(rec Reconciler, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "unreadable body"})
			return
		}

		evt, err := stripeapi.VerifyEvent(payload, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			if errors.Is(err, stripeapi.ErrSignatureInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "signature verification failed"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		switch evt.Type {
		case stripeapi.EventCheckoutExpired:
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "session expired, acknowledged"})

		case stripeapi.EventCheckoutCompleted:
			session := evt.Data.Object
			if session.ID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "event without session"})
				return
			}
			outcome, err := rec.HandleCompletion(c.Request.Context(), session)
			if err != nil {
				log.Printf("reconcile session=%s: %v", session.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "webhook processing failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"outcome": outcome}})

		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "event type ignored"})
		}
	}
}

// getOrderStatus 按 session id 查询订单终态。
// 未命中与未完成都是 200 + 提示语（前端轮询场景），只有结果信封给出跳转地址。
func getOrderStatus(staging StagingReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")

		staged, found, err := staging.GetStaged(c.Request.Context(), sessionID)
		if err != nil {
			log.Printf("order status session=%s: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "internal server error"})
			return
		}
		if !found {
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "session_id provided could not be found"})
			return
		}
		if staged.Kind != model.StagedResult {
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "order not yet resolved for this session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
			"order_status_url": staged.Result.OrderStatusURL,
		}})
	}
}
