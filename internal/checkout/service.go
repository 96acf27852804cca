package checkout

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"shopify_bridge/internal/config"
	"shopify_bridge/internal/model"
	"shopify_bridge/internal/shopify"
	"shopify_bridge/internal/stripeapi"
)

// StripeGateway 是创建托管结账会话所需的支付服务商能力。
type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, p stripeapi.SessionParams) (stripeapi.Session, error)
	EnsureCoupon(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// GiftCardFinder 按兑换码查礼品卡。
type GiftCardFinder interface {
	SearchGiftCard(ctx context.Context, code string) (*shopify.GiftCard, error)
}

// DraftStore 暂存订单草稿。
type DraftStore interface {
	PutDraft(ctx context.Context, sessionID string, draft model.OrderDraft) error
}

// Service 结账入口：建草稿 → 开 Stripe 会话 → 按 session id 暂存草稿。
type Service struct {
	stripe    StripeGateway
	giftCards GiftCardFinder
	staging   DraftStore
	cfg       config.AppConfig
}

// NewService 构造结账服务。
func NewService(stripe StripeGateway, giftCards GiftCardFinder, staging DraftStore, cfg config.AppConfig) *Service {
	return &Service{stripe: stripe, giftCards: giftCards, staging: staging, cfg: cfg}
}

// CreateSession 创建一次结账。
// 返回的 session id 就是后续 webhook 对账与状态查询的关联键。
func (s *Service) CreateSession(ctx context.Context, req Request) (SessionInfo, error) {
	req.Customer.Phone = normalizePhone(req.Customer.Phone, s.cfg.PhonePrefix)

	// 礼品卡详情查不到不阻断结账，草稿里少带几个展示字段而已。
	var giftCard *shopify.GiftCard
	if req.Cart.Note != "" {
		gc, err := s.giftCards.SearchGiftCard(ctx, req.Cart.Note)
		if err != nil {
			log.Printf("gift card lookup failed code=%s: %v", req.Cart.Note, err)
		} else {
			giftCard = gc
		}
	}

	draft := BuildDraft(req, giftCard, Options{
		Currency:   s.cfg.Currency,
		TaxRate:    s.cfg.TaxRate,
		TaxTitle:   s.cfg.TaxTitle,
		SourceName: s.cfg.SourceName,
		Tags:       s.cfg.OrderTags,
	})

	params := stripeapi.SessionParams{
		PaymentMethodTypes: s.cfg.PaymentMethodTypes,
		Mode:               "payment",
		SuccessURL:         s.cfg.SiteBaseURL + "/pages/checkout?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          s.cfg.SiteBaseURL + "/pages/checkout?failed=true&session_id={CHECKOUT_SESSION_ID}",
		CustomerEmail:      req.Customer.Email,
		Metadata: map[string]string{
			"total":           strconv.FormatInt(req.Cart.TotalPrice, 10),
			"total_discounts": strconv.FormatInt(req.TotalDiscounts, 10),
		},
	}
	currency := strings.ToLower(draft.Currency)
	for _, item := range req.Cart.Items {
		unit := item.OriginalPrice
		if unit <= 0 {
			unit = item.Price
		}
		params.LineItems = append(params.LineItems, stripeapi.SessionLineItem{
			Name:        item.Title,
			Description: item.Description,
			ImageURL:    item.Image,
			AmountMinor: unit,
			Quantity:    item.Quantity,
			Currency:    currency,
		})
	}

	if req.TotalDiscounts > 0 {
		couponID, err := s.stripe.EnsureCoupon(ctx, req.TotalDiscounts, draft.Currency)
		if err != nil {
			return SessionInfo{}, fmt.Errorf("ensure coupon: %w", err)
		}
		params.CouponID = couponID
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("create checkout session: %w", err)
	}

	// 暂存失败只记日志：会话已经开出去了，宁可后续 webhook 空操作
	// 也不让买家拿不到支付页。
	if err := s.staging.PutDraft(ctx, session.ID, draft); err != nil {
		log.Printf("stage order draft session=%s: %v", session.ID, err)
	}

	return SessionInfo{SessionID: session.ID, URL: session.URL}, nil
}

// normalizePhone 去空白并把本地前导 0 换成国家区号前缀。
func normalizePhone(phone, prefix string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return phone
	}
	if strings.HasPrefix(phone, "0") {
		return prefix + phone[1:]
	}
	return phone
}
