package model

import "fmt"

// OrderDraft 是 Shopify 订单的在途表示：
// 结账时构建并暂存，支付完成后由 webhook 补全并提交。
// 字段命名对齐 Shopify Admin REST 的 order payload。
type OrderDraft struct {
	Email                  string `json:"email"`
	ContactEmail           string `json:"contact_email,omitempty"`
	SendReceipt            bool   `json:"send_receipt"`
	SendFulfillmentReceipt bool   `json:"send_fulfillment_receipt"`
	Note                   string `json:"note,omitempty"`
	TotalPrice             string `json:"total_price"`
	CartToken              string `json:"cart_token,omitempty"`
	Token                  string `json:"token,omitempty"`
	SourceName             string `json:"source_name,omitempty"`
	Currency               string `json:"currency,omitempty"`
	TaxesIncluded          bool   `json:"taxes_included"`

	TaxLines    []TaxLine `json:"tax_lines,omitempty"`
	TotalTax    string    `json:"total_tax,omitempty"`
	TotalTaxSet *MoneySet `json:"total_tax_set,omitempty"`

	PaymentGatewayNames []string      `json:"payment_gateway_names"`
	Transactions        []Transaction `json:"transactions"`
	LineItems           []LineItem    `json:"line_items"`

	Customer *PartialCustomer `json:"customer,omitempty"`

	FinancialStatus string          `json:"financial_status,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	NoteAttributes  []NoteAttribute `json:"note_attributes,omitempty"`

	// DiscountCodes 仅存在于分摊前；分摊后被移除并换成 DiscountApplications。
	DiscountCodes        []DiscountCode        `json:"discount_codes,omitempty"`
	DiscountApplications []DiscountApplication `json:"discount_applications,omitempty"`
	TotalDiscounts       string                `json:"total_discounts,omitempty"`
}

// Transaction 是草稿中的一笔结算。
// 约定：同一 gateway 在草稿中至多出现一次；下标 0 预留给
// 非卡处理器的结算工具（如礼品卡），否则由卡处理器复用。
type Transaction struct {
	Kind               string          `json:"kind"`
	Status             string          `json:"status"`
	Amount             string          `json:"amount"`
	Gateway            string          `json:"gateway"`
	GatewayName        string          `json:"gateway_name,omitempty"`
	GatewayDisplayName string          `json:"gatewayDisplayName,omitempty"`
	Authorization      string          `json:"authorization,omitempty"`
	AuthorizationCode  string          `json:"authorizationCode,omitempty"`
	ClientSecret       string          `json:"clientSecret,omitempty"`
	PaymentDetails     *PaymentDetails `json:"payment_details,omitempty"`
	GiftCardID         int64           `json:"gift_card_id,omitempty"`
	GiftCardCode       string          `json:"gift_card_code,omitempty"`
}

// PaymentDetails 记录结算工具细节，字段名保持上游的驼峰/下划线混用。
type PaymentDetails struct {
	CreditCardCompany        string `json:"creditCardCompany,omitempty"`
	CreditCardLastFourDigits string `json:"creditCardLastFourDigits,omitempty"`
	PaymentMethodType        string `json:"paymentMethodType,omitempty"`
	Email                    string `json:"email,omitempty"`
	Name                     string `json:"name,omitempty"`
	GiftCardID               int64  `json:"gift_card_id,omitempty"`
	GiftCardCode             string `json:"gift_card_code,omitempty"`
	GiftCardLastCharacters   string `json:"gift_card_last_characters,omitempty"`
}

// LineItem 购物车行项目。金额整数字段单位为分。
type LineItem struct {
	Title          string `json:"title,omitempty"`
	VariantID      int64  `json:"variant_id,omitempty"`
	Price          string `json:"price"`
	Quantity       int    `json:"quantity"`
	Taxable        bool   `json:"taxable"`
	FinalPrice     int64  `json:"final_price,omitempty"`
	FinalLinePrice int64  `json:"final_line_price"`
	LinePrice      int64  `json:"line_price,omitempty"`

	TotalDiscount                int64                `json:"total_discount,omitempty"`
	DiscountedPrice              int64                `json:"discounted_price,omitempty"`
	LineLevelTotalDiscount       int64                `json:"line_level_total_discount,omitempty"`
	LineLevelDiscountAllocations []DiscountAllocation `json:"line_level_discount_allocations,omitempty"`
}

// DiscountAllocation 是某行项目分得的折扣份额。
type DiscountAllocation struct {
	Amount                   string `json:"amount"`
	DiscountApplicationIndex int    `json:"discount_application_index"`
}

// DiscountCode 结账时收集的原始折扣条目，金额单位为分。
type DiscountCode struct {
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Amount int64  `json:"amount"`
}

// Label 优先返回 title，缺失时退回 code。
func (d DiscountCode) Label() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Code
}

// DiscountApplication 是折扣分摊后的应用记录（fixed_amount，全行生效）。
type DiscountApplication struct {
	Type             string `json:"type"`
	Value            string `json:"value"`
	ValueType        string `json:"value_type"`
	AllocationMethod string `json:"allocation_method"`
	TargetSelection  string `json:"target_selection"`
	TargetType       string `json:"target_type"`
	Code             string `json:"code"`
	Description      string `json:"description"`
}

// PartialCustomer 草稿里的客户块。电话/邮箱各有三个字段变体，
// 上游对三者一并读写，冲突时也必须一并删除。
type PartialCustomer struct {
	ID           int64  `json:"id,omitempty"`
	Email        string `json:"email,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	AltEmail     string `json:"contactEmail,omitempty"`
	Phone        string `json:"phone,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	AltPhone     string `json:"contactPhone,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	AltFirstName string `json:"firstName,omitempty"`
	AltLastName  string `json:"lastName,omitempty"`
}

// SetPhone 同步写入三个电话字段变体。
func (c *PartialCustomer) SetPhone(phone string) {
	c.Phone = phone
	c.ContactPhone = phone
	c.AltPhone = phone
}

// ClearPhone 删除全部电话字段变体。
func (c *PartialCustomer) ClearPhone() {
	c.Phone = ""
	c.ContactPhone = ""
	c.AltPhone = ""
}

// NoteAttribute 订单备注键值对。
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TaxLine 税费行（含税价内税）。
type TaxLine struct {
	Price         string    `json:"price"`
	Rate          float64   `json:"rate"`
	Title         string    `json:"title"`
	PriceSet      *MoneySet `json:"price_set,omitempty"`
	ChannelLiable bool      `json:"channel_liable"`
}

// MoneySet Shopify 的双币金额结构。
type MoneySet struct {
	ShopMoney        Money `json:"shop_money"`
	PresentmentMoney Money `json:"presentment_money"`
}

// Money 金额 + 币种。
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// FormatMinor 将分转成两位小数的金额字符串，如 800 -> "8.00"。
func FormatMinor(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}

// Clone 深拷贝草稿。流水线各阶段只消费入参、产出新值，
// 失败的阶段不会污染上一阶段的草稿。
func (o OrderDraft) Clone() OrderDraft {
	out := o

	out.TaxLines = append([]TaxLine(nil), o.TaxLines...)
	for i, tl := range o.TaxLines {
		if tl.PriceSet != nil {
			ps := *tl.PriceSet
			out.TaxLines[i].PriceSet = &ps
		}
	}
	if o.TotalTaxSet != nil {
		ts := *o.TotalTaxSet
		out.TotalTaxSet = &ts
	}

	out.PaymentGatewayNames = append([]string(nil), o.PaymentGatewayNames...)
	out.Tags = append([]string(nil), o.Tags...)
	out.NoteAttributes = append([]NoteAttribute(nil), o.NoteAttributes...)
	out.DiscountCodes = append([]DiscountCode(nil), o.DiscountCodes...)
	out.DiscountApplications = append([]DiscountApplication(nil), o.DiscountApplications...)

	out.Transactions = append([]Transaction(nil), o.Transactions...)
	for i, tx := range o.Transactions {
		if tx.PaymentDetails != nil {
			pd := *tx.PaymentDetails
			out.Transactions[i].PaymentDetails = &pd
		}
	}

	out.LineItems = append([]LineItem(nil), o.LineItems...)
	for i, li := range o.LineItems {
		out.LineItems[i].LineLevelDiscountAllocations = append([]DiscountAllocation(nil), li.LineLevelDiscountAllocations...)
	}

	if o.Customer != nil {
		c := *o.Customer
		out.Customer = &c
	}
	return out
}
