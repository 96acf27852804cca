package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopify_bridge/internal/model"
	"shopify_bridge/internal/shopify"
	"shopify_bridge/internal/stripeapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStaging 测试用 StagingStore 实现
type mockStaging struct {
	staged model.StagedValue
	found  bool
	getErr error

	leaseDenied bool
	leaseErr    error

	putResult *model.OrderRecord
	putErr    error

	getCalled bool
	released  bool
}

func (m *mockStaging) GetStaged(_ context.Context, _ string) (model.StagedValue, bool, error) {
	m.getCalled = true
	return m.staged, m.found, m.getErr
}

func (m *mockStaging) PutResult(_ context.Context, _ string, rec model.OrderRecord) error {
	m.putResult = &rec
	return m.putErr
}

func (m *mockStaging) AcquireReconcileLease(_ context.Context, _, _ string, _ time.Duration) (bool, error) {
	if m.leaseErr != nil {
		return false, m.leaseErr
	}
	return !m.leaseDenied, nil
}

func (m *mockStaging) ReleaseReconcileLease(_ context.Context, _, _ string) error {
	m.released = true
	return nil
}

// mockCommerce 测试用 CommerceAPI 实现
type mockCommerce struct {
	customers []shopify.CustomerRecord
	searchErr error

	created   *model.OrderDraft // 捕获传给 CreateOrder 的草稿
	createRec model.OrderRecord
	createErr error
}

func (m *mockCommerce) SearchCustomers(_ context.Context, _ string) ([]shopify.CustomerRecord, error) {
	return m.customers, m.searchErr
}

func (m *mockCommerce) CreateOrder(_ context.Context, draft model.OrderDraft) (model.OrderRecord, error) {
	m.created = &draft
	return m.createRec, m.createErr
}

// mockPayments 测试用 PaymentProvider 实现
type mockPayments struct {
	intent    stripeapi.PaymentIntent
	intentErr error
	method    stripeapi.PaymentMethod
	methodErr error
}

func (m *mockPayments) RetrievePaymentIntent(_ context.Context, _ string) (stripeapi.PaymentIntent, error) {
	return m.intent, m.intentErr
}

func (m *mockPayments) RetrievePaymentMethod(_ context.Context, _ string) (stripeapi.PaymentMethod, error) {
	return m.method, m.methodErr
}

// mockJournal 测试用 Journal 实现
type mockJournal struct {
	sessionID string
	err       error
}

func (m *mockJournal) RecordSubmission(_ context.Context, sessionID string, _ model.OrderRecord) error {
	m.sessionID = sessionID
	return m.err
}

// mockPublisher 测试用 Publisher 实现
type mockPublisher struct {
	sessionID string
	err       error
}

func (m *mockPublisher) PublishOrderCreated(_ context.Context, sessionID string, _ model.OrderRecord) error {
	m.sessionID = sessionID
	return m.err
}

func cardPayments() *mockPayments {
	pm := stripeapi.PaymentMethod{ID: "pm_1", Type: "card"}
	pm.Card = &struct {
		Brand string `json:"brand"`
		Last4 string `json:"last4"`
	}{Brand: "visa", Last4: "4242"}
	return &mockPayments{
		intent: stripeapi.PaymentIntent{ID: "pi_1", PaymentMethod: "pm_1"},
		method: pm,
	}
}

func exampleDraft() model.OrderDraft {
	return model.OrderDraft{
		Email:      "buyer@example.com",
		TotalPrice: "8.00",
		LineItems: []model.LineItem{
			{FinalLinePrice: 1000, Quantity: 1, Taxable: true, Price: "10.00"},
		},
		Transactions: []model.Transaction{
			{Kind: "sale", Status: "success", Amount: "0.00", Gateway: "stripe"},
		},
		DiscountCodes:       []model.DiscountCode{{Code: "WELCOME", Amount: 200}},
		PaymentGatewayNames: []string{"stripe"},
		Customer:            &model.PartialCustomer{Email: "buyer@example.com"},
	}
}

func newTestPipeline(staging *mockStaging, commerce *mockCommerce, payments PaymentProvider, j *mockJournal, pub *mockPublisher) *Pipeline {
	return NewPipeline(staging, commerce, payments, j, pub, time.Minute)
}

// 端到端：单行 1000 分 + 200 分折扣，卡支付实收 800 分。
func TestHandleCompletion_EndToEnd(t *testing.T) {
	staging := &mockStaging{staged: model.NewStagedDraft(exampleDraft()), found: true}
	commerce := &mockCommerce{createRec: model.OrderRecord{
		ID: 1001, Name: "#1001", OrderStatusURL: "https://shop/orders/1001",
	}}
	j := &mockJournal{}
	pub := &mockPublisher{}
	p := newTestPipeline(staging, commerce, cardPayments(), j, pub)

	outcome, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{
		ID:            "cs_test_1",
		AmountTotal:   800,
		ClientSecret:  "sec_1",
		PaymentIntent: "pi_1",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)

	require.NotNil(t, commerce.created)
	draft := *commerce.created
	require.Len(t, draft.Transactions, 1)
	assert.Equal(t, "8.00", draft.Transactions[0].Amount)
	assert.Equal(t, "stripe", draft.Transactions[0].Gateway)
	assert.Equal(t, "pi_1", draft.Transactions[0].Authorization)
	assert.Equal(t, int64(200), draft.LineItems[0].TotalDiscount)
	assert.Nil(t, draft.DiscountCodes)
	require.Len(t, draft.DiscountApplications, 1)
	assert.Equal(t, "WELCOME", draft.DiscountApplications[0].Code)
	assert.Equal(t, "2.00", draft.TotalDiscounts)

	// 结果信封回写 + 流水 + 事件
	require.NotNil(t, staging.putResult)
	assert.Equal(t, int64(1001), staging.putResult.ID)
	assert.Equal(t, "cs_test_1", j.sessionID)
	assert.Equal(t, "cs_test_1", pub.sessionID)
	assert.True(t, staging.released)
}

// 无暂存草稿：成功空操作，绝不报错。
func TestHandleCompletion_MissingSessionIsNoop(t *testing.T) {
	staging := &mockStaging{found: false}
	commerce := &mockCommerce{}
	p := newTestPipeline(staging, commerce, cardPayments(), nil, nil)

	outcome, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{ID: "cs_unknown"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDraft, outcome)
	assert.Nil(t, commerce.created)
	assert.True(t, staging.released)
}

// 暂存值已是结果信封：重复投递幂等跳过，不再补全、不再提交。
func TestHandleCompletion_AlreadySubmittedSkips(t *testing.T) {
	staging := &mockStaging{
		staged: model.NewStagedResult(model.OrderRecord{ID: 1001}),
		found:  true,
	}
	commerce := &mockCommerce{}
	p := newTestPipeline(staging, commerce, cardPayments(), nil, nil)

	outcome, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{ID: "cs_dup", AmountTotal: 800})

	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySubmitted, outcome)
	assert.Nil(t, commerce.created)
	assert.Nil(t, staging.putResult)
}

// 租约被并发投递占用：按重复投递放行，不碰暂存。
func TestHandleCompletion_LeaseBusy(t *testing.T) {
	staging := &mockStaging{leaseDenied: true, staged: model.NewStagedDraft(exampleDraft()), found: true}
	commerce := &mockCommerce{}
	p := newTestPipeline(staging, commerce, cardPayments(), nil, nil)

	outcome, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{ID: "cs_busy"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeBusy, outcome)
	assert.False(t, staging.getCalled)
	assert.Nil(t, commerce.created)
}

// 提交被上游拒绝：错误上抛，交给投递方重试；草稿保持原样。
func TestHandleCompletion_SubmissionRejected(t *testing.T) {
	staging := &mockStaging{staged: model.NewStagedDraft(exampleDraft()), found: true}
	commerce := &mockCommerce{createErr: &shopify.APIError{Status: 422, Body: `{"errors":"invalid"}`}}
	p := newTestPipeline(staging, commerce, cardPayments(), nil, nil)

	_, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{
		ID: "cs_rej", AmountTotal: 800, PaymentIntent: "pi_1",
	})

	require.Error(t, err)
	var apiErr *shopify.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	assert.Nil(t, staging.putResult)
	assert.True(t, staging.released)
}

// 结果回写/记账/发事件失败都只记日志：订单已经创建成功。
func TestHandleCompletion_PostSubmitFailuresAreSwallowed(t *testing.T) {
	staging := &mockStaging{
		staged: model.NewStagedDraft(exampleDraft()),
		found:  true,
		putErr: errors.New("redis down"),
	}
	commerce := &mockCommerce{createRec: model.OrderRecord{ID: 1}}
	j := &mockJournal{err: errors.New("db down")}
	pub := &mockPublisher{err: errors.New("stream down")}
	p := newTestPipeline(staging, commerce, cardPayments(), j, pub)

	outcome, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{
		ID: "cs_flaky", AmountTotal: 800, PaymentIntent: "pi_1",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
}

// 支付详情查询失败：处理失败上抛（可重试），不提交半成品。
func TestHandleCompletion_PaymentDetailErrorFails(t *testing.T) {
	staging := &mockStaging{staged: model.NewStagedDraft(exampleDraft()), found: true}
	commerce := &mockCommerce{}
	payments := &mockPayments{intentErr: errors.New("stripe 500")}
	p := newTestPipeline(staging, commerce, payments, nil, nil)

	_, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{
		ID: "cs_pi_err", AmountTotal: 800, PaymentIntent: "pi_1",
	})

	require.Error(t, err)
	assert.Nil(t, commerce.created)
}

func TestHandleCompletion_EmptySessionIDRejected(t *testing.T) {
	p := newTestPipeline(&mockStaging{}, &mockCommerce{}, cardPayments(), nil, nil)

	_, err := p.HandleCompletion(context.Background(), stripeapi.CheckoutSession{})

	assert.Error(t, err)
}
