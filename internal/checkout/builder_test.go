package checkout

import (
	"testing"

	"shopify_bridge/internal/model"
	"shopify_bridge/internal/shopify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attr(name, value string) model.NoteAttribute {
	return model.NoteAttribute{Name: name, Value: value}
}

func testOptions() Options {
	return Options{
		Currency:   "EUR",
		TaxRate:    0.20,
		TaxTitle:   "FR TVA",
		SourceName: "web_bridge",
		Tags:       []string{"Stripe Bridge", "v1"},
	}
}

func baseRequest() Request {
	return Request{
		Cart: Cart{
			Token:      "cart_tok",
			TotalPrice: 12000,
			Items: []CartItem{
				{Title: "Sac", VariantID: 11, Price: 12000, FinalPrice: 12000, FinalLinePrice: 12000, LinePrice: 12000, Quantity: 1, Taxable: true},
			},
		},
		Customer: CustomerInput{
			Email:     "buyer@example.com",
			Phone:     "+33612345678",
			FirstName: "Ana",
			LastName:  "Blanc",
		},
	}
}

// 价内税：120.00€ 含税，税率 20% → 税额 20.00€。
func TestBuildDraft_InclusiveTax(t *testing.T) {
	draft := BuildDraft(baseRequest(), nil, testOptions())

	assert.True(t, draft.TaxesIncluded)
	assert.Equal(t, "20.00", draft.TotalTax)
	require.Len(t, draft.TaxLines, 1)
	assert.Equal(t, "20.00", draft.TaxLines[0].Price)
	assert.Equal(t, 0.20, draft.TaxLines[0].Rate)
	assert.Equal(t, "FR TVA", draft.TaxLines[0].Title)
	require.NotNil(t, draft.TotalTaxSet)
	assert.Equal(t, "EUR", draft.TotalTaxSet.ShopMoney.CurrencyCode)
}

// 免税行不参与计税。
func TestBuildDraft_SkipsNonTaxableLines(t *testing.T) {
	req := baseRequest()
	req.Cart.Items = append(req.Cart.Items, CartItem{
		Title: "Carte cadeau", Price: 5000, FinalPrice: 5000, FinalLinePrice: 5000, LinePrice: 5000, Quantity: 1, Taxable: false,
	})

	draft := BuildDraft(req, nil, testOptions())

	assert.Equal(t, "20.00", draft.TotalTax)
}

// 无礼品卡：0 号位是 0 元 stripe 占位交易，网关列表只有 stripe。
func TestBuildDraft_ProcessorPlaceholderTransaction(t *testing.T) {
	draft := BuildDraft(baseRequest(), nil, testOptions())

	require.Len(t, draft.Transactions, 1)
	tx := draft.Transactions[0]
	assert.Equal(t, "sale", tx.Kind)
	assert.Equal(t, "success", tx.Status)
	assert.Equal(t, "0.00", tx.Amount)
	assert.Equal(t, "stripe", tx.Gateway)
	assert.Equal(t, []string{"stripe"}, draft.PaymentGatewayNames)
	assert.Equal(t, "paid", draft.FinancialStatus)
}

// 礼品卡：0 号位换成 gift_card 交易，带兑换码与卡详情，末四位打码进附注。
func TestBuildDraft_GiftCardTransaction(t *testing.T) {
	req := baseRequest()
	req.Cart.Note = "GC-CODE-123"
	req.Cart.GiftCard = &GiftCardAttr{Amount: 3000}
	gc := &shopify.GiftCard{ID: 77, Balance: "30.00", LastCharacters: "c123"}

	draft := BuildDraft(req, gc, testOptions())

	require.Len(t, draft.Transactions, 1)
	tx := draft.Transactions[0]
	assert.Equal(t, "gift_card", tx.Gateway)
	assert.Equal(t, "30.00", tx.Amount)
	assert.Equal(t, "GC-CODE-123", tx.GiftCardCode)
	assert.Equal(t, int64(77), tx.GiftCardID)
	require.NotNil(t, tx.PaymentDetails)
	assert.Equal(t, "c123", tx.PaymentDetails.GiftCardLastCharacters)
	assert.Equal(t, []string{"gift_card"}, draft.PaymentGatewayNames)

	assert.Contains(t, draft.NoteAttributes, attr("Gift Card", "**** **** **** c123"))
	assert.Contains(t, draft.NoteAttributes, attr("Gift Card Code", "GC-CODE-123"))
}

// 卡详情查不到时仍带兑换码，只缺展示字段。
func TestBuildDraft_GiftCardWithoutLookup(t *testing.T) {
	req := baseRequest()
	req.Cart.Note = "GC-CODE-123"
	req.Cart.GiftCard = &GiftCardAttr{Amount: 3000}

	draft := BuildDraft(req, nil, testOptions())

	tx := draft.Transactions[0]
	assert.Equal(t, "GC-CODE-123", tx.GiftCardCode)
	assert.Zero(t, tx.GiftCardID)
	require.NotNil(t, tx.PaymentDetails)
	assert.Equal(t, "GC-CODE-123", tx.PaymentDetails.GiftCardCode)
}

func TestBuildDraft_CollectsDiscounts(t *testing.T) {
	req := baseRequest()
	req.Cart.Items[0].Discounts = []CartDiscount{
		{Code: "WELCOME", Amount: 500},
		{Title: "Offre fidélité", Amount: 0}, // 零额忽略
	}

	draft := BuildDraft(req, nil, testOptions())

	require.Len(t, draft.DiscountCodes, 1)
	assert.Equal(t, "WELCOME", draft.DiscountCodes[0].Code)
	assert.Equal(t, int64(500), draft.DiscountCodes[0].Amount)
}

func TestBuildDraft_CustomerBlockAndAttributes(t *testing.T) {
	req := baseRequest()
	req.Cart.Attributes = map[string]string{"BTA Token": "tok_abc"}

	draft := BuildDraft(req, nil, testOptions())

	require.NotNil(t, draft.Customer)
	assert.Equal(t, "buyer@example.com", draft.Customer.Email)
	assert.Equal(t, "+33612345678", draft.Customer.Phone)
	assert.Equal(t, "+33612345678", draft.Customer.ContactPhone)
	assert.Equal(t, "+33612345678", draft.Customer.AltPhone)
	assert.Equal(t, "Ana", draft.Customer.FirstName)
	assert.Contains(t, draft.NoteAttributes, attr("BTA Token", "tok_abc"))
	assert.Equal(t, []string{"Stripe Bridge", "v1"}, draft.Tags)
	assert.Equal(t, "web_bridge", draft.SourceName)
	assert.Equal(t, "120.00", draft.TotalPrice)
	assert.Equal(t, "cart_tok", draft.CartToken)
}

func TestBuildDraft_GeneratesCartTokenWhenMissing(t *testing.T) {
	req := baseRequest()
	req.Cart.ID = ""
	req.Cart.Token = ""

	draft := BuildDraft(req, nil, testOptions())

	assert.NotEmpty(t, draft.CartToken)
}

func TestPriceFromTTC(t *testing.T) {
	original, tax := PriceFromTTC(120, 0.20)

	assert.Equal(t, 100.0, original)
	assert.Equal(t, 20.0, tax)
}
