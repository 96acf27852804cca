package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"shopify_bridge/internal/model"
	"shopify_bridge/internal/stripeapi"

	"github.com/google/uuid"
)

// StagingStore 是会话级暂存能力（草稿/结果信封 + 对账租约）。
type StagingStore interface {
	GetStaged(ctx context.Context, sessionID string) (model.StagedValue, bool, error)
	PutResult(ctx context.Context, sessionID string, result model.OrderRecord) error
	AcquireReconcileLease(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error)
	ReleaseReconcileLease(ctx context.Context, sessionID, token string) error
}

// CommerceAPI 是商城平台能力（客户检索 + 订单创建）。
type CommerceAPI interface {
	CustomerSearcher
	CreateOrder(ctx context.Context, draft model.OrderDraft) (model.OrderRecord, error)
}

// PaymentProvider 是支付服务商的详情查询能力。
type PaymentProvider interface {
	RetrievePaymentIntent(ctx context.Context, id string) (stripeapi.PaymentIntent, error)
	RetrievePaymentMethod(ctx context.Context, ref string) (stripeapi.PaymentMethod, error)
}

// Journal 持久化提交流水；重复 session 记账视为成功。
type Journal interface {
	RecordSubmission(ctx context.Context, sessionID string, rec model.OrderRecord) error
}

// Publisher 对外发布订单创建事件。
type Publisher interface {
	PublishOrderCreated(ctx context.Context, sessionID string, rec model.OrderRecord) error
}

// Outcome 是一次完成事件的处理结论。
type Outcome string

const (
	// OutcomeSubmitted 草稿完成补全并提交成功。
	OutcomeSubmitted Outcome = "submitted"
	// OutcomeNoDraft 该会话没有暂存草稿（过期或从未创建），按成功空操作处理。
	OutcomeNoDraft Outcome = "no_draft"
	// OutcomeAlreadySubmitted 暂存值已是结果信封，重复投递直接跳过。
	OutcomeAlreadySubmitted Outcome = "already_submitted"
	// OutcomeBusy 另一次投递持有该会话的对账租约。
	OutcomeBusy Outcome = "busy"
)

// Pipeline 编排一次支付完成事件的对账：
// 读暂存草稿 → 合并结算摘要 → 折扣分摊 → 客户解析 → 提交订单 → 回写结果。
// 状态机：STAGED → ENRICHED → SUBMITTED，各阶段消费旧草稿产出新草稿。
type Pipeline struct {
	staging   StagingStore
	commerce  CommerceAPI
	payments  PaymentProvider
	customers *CustomerResolver
	journal   Journal
	publisher Publisher

	leaseTTL time.Duration
}

// NewPipeline 构造流水线。journal / publisher 可为 nil（不记流水、不发事件）。
func NewPipeline(staging StagingStore, commerce CommerceAPI, payments PaymentProvider, journal Journal, publisher Publisher, leaseTTL time.Duration) *Pipeline {
	return &Pipeline{
		staging:   staging,
		commerce:  commerce,
		payments:  payments,
		customers: NewCustomerResolver(commerce),
		journal:   journal,
		publisher: publisher,
		leaseTTL:  leaseTTL,
	}
}

// HandleCompletion 处理一次（至少一次投递语义下的）支付完成事件。
// 只有签名失败与订单提交失败会以错误上抛，其余情况都降级为成功结论。
func (p *Pipeline) HandleCompletion(ctx context.Context, session stripeapi.CheckoutSession) (Outcome, error) {
	if session.ID == "" {
		return "", fmt.Errorf("completion event without session id")
	}

	// 会话级咨询租约：同一 session 的并发重复投递只放行一个。
	token := uuid.New().String()
	acquired, err := p.staging.AcquireReconcileLease(ctx, session.ID, token, p.leaseTTL)
	if err != nil {
		return "", fmt.Errorf("acquire reconcile lease: %w", err)
	}
	if !acquired {
		return OutcomeBusy, nil
	}
	defer func() {
		if err := p.staging.ReleaseReconcileLease(ctx, session.ID, token); err != nil {
			log.Printf("release reconcile lease session=%s: %v", session.ID, err)
		}
	}()

	staged, found, err := p.staging.GetStaged(ctx, session.ID)
	if err != nil {
		return "", fmt.Errorf("read staged order: %w", err)
	}
	if !found {
		// 草稿过期或从未暂存：确认事件即可，不算失败。
		return OutcomeNoDraft, nil
	}
	if staged.Kind == model.StagedResult {
		// 终态信封：幂等跳过，不再补全、不再提交。
		return OutcomeAlreadySubmitted, nil
	}

	settlement, err := p.buildSettlement(ctx, session)
	if err != nil {
		return "", fmt.Errorf("retrieve payment details: %w", err)
	}

	draft := ApplySettlement(*staged.Draft, settlement)
	draft = AllocateDiscounts(draft)
	draft = p.customers.Resolve(ctx, draft)

	rec, err := p.commerce.CreateOrder(ctx, draft)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}

	// 订单已在上游创建成功，回写/记账/发事件失败都只记日志，绝不触发重投。
	if err := p.staging.PutResult(ctx, session.ID, rec); err != nil {
		log.Printf("store submission result session=%s: %v", session.ID, err)
	}
	if p.journal != nil {
		if err := p.journal.RecordSubmission(ctx, session.ID, rec); err != nil {
			log.Printf("journal submission session=%s: %v", session.ID, err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishOrderCreated(ctx, session.ID, rec); err != nil {
			log.Printf("publish order created session=%s: %v", session.ID, err)
		}
	}
	return OutcomeSubmitted, nil
}

// buildSettlement 汇总会话金额与支付方式详情为结算摘要。
func (p *Pipeline) buildSettlement(ctx context.Context, session stripeapi.CheckoutSession) (Settlement, error) {
	s := Settlement{
		AmountMinor:  session.AmountTotal,
		ClientSecret: session.ClientSecret,
	}
	if session.PaymentIntent == "" {
		return s, nil
	}
	s.PaymentIntentID = session.PaymentIntent

	pi, err := p.payments.RetrievePaymentIntent(ctx, session.PaymentIntent)
	if err != nil {
		return Settlement{}, err
	}
	if pi.PaymentMethod == "" {
		return s, nil
	}
	pm, err := p.payments.RetrievePaymentMethod(ctx, pi.PaymentMethod)
	if err != nil {
		return Settlement{}, err
	}

	var brand, last4, email string
	if pm.Card != nil {
		brand, last4 = pm.Card.Brand, pm.Card.Last4
	}
	if pm.Link != nil {
		email = pm.Link.Email
	}
	m := ParseMethod(pm.Type, brand, last4, email)
	s.Method = &m
	return s, nil
}
