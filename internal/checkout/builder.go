package checkout

import (
	"fmt"

	"shopify_bridge/internal/model"
	"shopify_bridge/internal/shopify"

	"github.com/google/uuid"
)

// Options 草稿构建的店铺侧参数。
type Options struct {
	Currency   string
	TaxRate    float64
	TaxTitle   string
	SourceName string
	Tags       []string
}

// BuildDraft 从购物车快照构建待暂存的订单草稿：
// 行项目、价内税行、0 号位临时交易（礼品卡或 0 元处理器占位）、
// 客户块与折扣条目。支付金额在 webhook 对账时才补全。
func BuildDraft(req Request, giftCard *shopify.GiftCard, opt Options) model.OrderDraft {
	cart := req.Cart
	customer := req.Customer

	currency := cart.Currency
	if currency == "" {
		currency = opt.Currency
	}

	// 仅应税行计税，价内税按配置税率反推。
	var taxableMinor int64
	for _, item := range cart.Items {
		if item.Taxable && item.LinePrice > 0 {
			taxableMinor += item.LinePrice
		}
	}
	_, totalTax := PriceFromTTC(float64(taxableMinor)/100, opt.TaxRate)
	taxStr := fmt.Sprintf("%.2f", totalTax)
	taxSet := &model.MoneySet{
		ShopMoney:        model.Money{Amount: taxStr, CurrencyCode: currency},
		PresentmentMoney: model.Money{Amount: taxStr, CurrencyCode: currency},
	}

	gateways := []string{"stripe"}
	primaryTx := model.Transaction{
		Kind:    "sale",
		Status:  "success",
		Amount:  "0.00",
		Gateway: "stripe",
	}
	if cart.GiftCard != nil {
		gateways = []string{"gift_card"}
		primaryTx.Gateway = "gift_card"
		primaryTx.Amount = model.FormatMinor(cart.GiftCard.Amount)
		primaryTx.GiftCardCode = cart.Note
		details := &model.PaymentDetails{GiftCardCode: cart.Note}
		if giftCard != nil {
			primaryTx.GiftCardID = giftCard.ID
			details.GiftCardID = giftCard.ID
			details.GiftCardLastCharacters = giftCard.LastCharacters
		}
		primaryTx.PaymentDetails = details
	}

	lineItems := make([]model.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		price := "0.00"
		if item.FinalPrice > 0 {
			price = model.FormatMinor(item.FinalPrice)
		}
		lineItems = append(lineItems, model.LineItem{
			Title:          item.Title,
			VariantID:      item.VariantID,
			Price:          price,
			Quantity:       item.Quantity,
			Taxable:        item.Taxable,
			FinalPrice:     item.FinalPrice,
			FinalLinePrice: item.FinalLinePrice,
			LinePrice:      item.LinePrice,
		})
	}

	noteAttrs := []model.NoteAttribute{}
	if v, ok := cart.Attributes["BTA Token"]; ok && v != "" {
		noteAttrs = append(noteAttrs, model.NoteAttribute{Name: "BTA Token", Value: v})
	}
	if giftCard != nil {
		noteAttrs = append(noteAttrs, model.NoteAttribute{
			Name:  "Gift Card",
			Value: "**** **** **** " + giftCard.LastCharacters,
		})
	}
	if cart.Note != "" {
		noteAttrs = append(noteAttrs, model.NoteAttribute{Name: "Gift Card Code", Value: cart.Note})
	}

	cartToken := cart.ID
	if cartToken == "" {
		cartToken = cart.Token
	}
	if cartToken == "" {
		// 前端没带购物车标识时补一个，订单侧关联字段不能为空。
		cartToken = uuid.New().String()
	}

	return model.OrderDraft{
		Email:                  customer.Email,
		ContactEmail:           customer.Email,
		SendReceipt:            true,
		SendFulfillmentReceipt: true,
		Note:                   cart.Note,
		TotalPrice:             model.FormatMinor(cart.TotalPrice),
		CartToken:              cartToken,
		Token:                  cart.Token,
		SourceName:             opt.SourceName,
		Currency:               currency,
		TaxesIncluded:          true,
		TaxLines: []model.TaxLine{{
			Price:    taxStr,
			Rate:     opt.TaxRate,
			Title:    opt.TaxTitle,
			PriceSet: taxSet,
		}},
		TotalTax:            taxStr,
		TotalTaxSet:         taxSet,
		PaymentGatewayNames: gateways,
		Transactions:        []model.Transaction{primaryTx},
		LineItems:           lineItems,
		Customer: &model.PartialCustomer{
			Email:        customer.Email,
			ContactEmail: customer.Email,
			AltEmail:     customer.Email,
			Phone:        customer.Phone,
			ContactPhone: customer.Phone,
			AltPhone:     customer.Phone,
			FirstName:    customer.FirstName,
			LastName:     customer.LastName,
			AltFirstName: customer.FirstName,
			AltLastName:  customer.LastName,
		},
		FinancialStatus: "paid",
		Tags:            append([]string(nil), opt.Tags...),
		NoteAttributes:  noteAttrs,
		DiscountCodes:   collectDiscountCodes(cart),
	}
}
