package reconcile

import (
	"testing"

	"shopify_bridge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardSettlement(amount int64) Settlement {
	m := ParseMethod("card", "visa", "4242", "")
	return Settlement{
		AmountMinor:     amount,
		ClientSecret:    "cs_secret",
		PaymentIntentID: "pi_123",
		Method:          &m,
	}
}

func stagedDraft() model.OrderDraft {
	return model.OrderDraft{
		TotalPrice: "10.00",
		Transactions: []model.Transaction{
			{Kind: "sale", Status: "success", Amount: "0.00", Gateway: "stripe"},
		},
		PaymentGatewayNames: []string{"stripe"},
		Tags:                []string{"Stripe Bridge", "v1"},
	}
}

func TestApplySettlement_ReusesPrimaryStripeTransaction(t *testing.T) {
	out := ApplySettlement(stagedDraft(), cardSettlement(1000))

	require.Len(t, out.Transactions, 1)
	tx := out.Transactions[0]
	assert.Equal(t, "10.00", tx.Amount)
	assert.Equal(t, "pi_123", tx.Authorization)
	assert.Equal(t, "pi_123", tx.AuthorizationCode)
	assert.Equal(t, "cs_secret", tx.ClientSecret)
	assert.Equal(t, "Carte bancaire 4242", tx.GatewayDisplayName)
	assert.Equal(t, "Carte bancaire 4242", tx.GatewayName)
	require.NotNil(t, tx.PaymentDetails)
	assert.Equal(t, "visa", tx.PaymentDetails.CreditCardCompany)
	assert.Equal(t, "4242", tx.PaymentDetails.CreditCardLastFourDigits)
	assert.Equal(t, "card", tx.PaymentDetails.PaymentMethodType)

	assert.Contains(t, out.PaymentGatewayNames, "Carte bancaire 4242")
	assert.Contains(t, out.Tags, "card")
	assert.Contains(t, out.NoteAttributes, model.NoteAttribute{
		Name: "Payment Method Display Name", Value: "Carte bancaire 4242",
	})
}

// 礼品卡占住 0 号位时，处理器交易追加到 1 号位。
func TestApplySettlement_GiftCardFirstAppendsProcessorSecond(t *testing.T) {
	in := stagedDraft()
	in.Transactions = []model.Transaction{
		{Kind: "sale", Status: "success", Amount: "5.00", Gateway: "gift_card"},
	}
	in.PaymentGatewayNames = []string{"gift_card"}

	out := ApplySettlement(in, cardSettlement(500))

	require.Len(t, out.Transactions, 2)
	assert.Equal(t, "gift_card", out.Transactions[0].Gateway)
	assert.Equal(t, "5.00", out.Transactions[0].Amount)
	assert.Equal(t, "stripe", out.Transactions[1].Gateway)
	assert.Equal(t, "5.00", out.Transactions[1].Amount)
	assert.Equal(t, "pi_123", out.Transactions[1].Authorization)
}

// 相同结算摘要重复执行等价于执行一次。
func TestApplySettlement_Idempotent(t *testing.T) {
	s := cardSettlement(1000)

	once := ApplySettlement(stagedDraft(), s)
	twice := ApplySettlement(once, s)

	assert.Equal(t, once, twice)

	inGift := stagedDraft()
	inGift.Transactions = []model.Transaction{
		{Kind: "sale", Status: "success", Amount: "5.00", Gateway: "gift_card"},
	}
	onceGift := ApplySettlement(inGift, s)
	twiceGift := ApplySettlement(onceGift, s)

	assert.Equal(t, onceGift, twiceGift)
	require.Len(t, twiceGift.Transactions, 2)
}

func TestApplySettlement_ZeroAmountLeavesDraft(t *testing.T) {
	in := stagedDraft()
	in.Transactions = nil

	out := ApplySettlement(in, Settlement{AmountMinor: 0})

	assert.Empty(t, out.Transactions)
}

func TestApplySettlement_InputUntouched(t *testing.T) {
	in := stagedDraft()
	_ = ApplySettlement(in, cardSettlement(1000))

	assert.Equal(t, "0.00", in.Transactions[0].Amount)
	assert.Empty(t, in.Transactions[0].Authorization)
	assert.Len(t, in.Tags, 2)
}

func TestMethodDisplayNames(t *testing.T) {
	cases := []struct {
		method Method
		want   string
	}{
		{ParseMethod("card", "visa", "4242", ""), "Carte bancaire 4242"},
		{ParseMethod("card", "visa", "", ""), "Carte bancaire ****"},
		{ParseMethod("link", "", "", "jo@example.com"), "Link jo@example.com"},
		{ParseMethod("klarna", "", "", ""), "Klarna"},
		{ParseMethod("paypal", "", "", ""), "PayPal"},
		{ParseMethod("sepa_debit", "", "", ""), "Sepa_debit"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.method.DisplayName())
	}
}

func TestParseMethod_UnknownFallsToOther(t *testing.T) {
	m := ParseMethod("sepa_debit", "", "", "")
	assert.Equal(t, MethodOther, m.Kind)
	assert.Equal(t, "sepa_debit", m.Raw)
}
