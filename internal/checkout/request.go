package checkout

import "shopify_bridge/internal/model"

// CartDiscount 购物车行上的折扣条目，金额单位为分。
type CartDiscount struct {
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Amount int64  `json:"amount"`
}

// CartItem 购物车行项目。整数金额单位均为分。
type CartItem struct {
	Title          string         `json:"title" binding:"required"`
	Description    string         `json:"description,omitempty"`
	Image          string         `json:"image,omitempty"`
	VariantID      int64          `json:"variant_id,omitempty"`
	Price          int64          `json:"price"`
	OriginalPrice  int64          `json:"original_price,omitempty"`
	FinalPrice     int64          `json:"final_price"`
	FinalLinePrice int64          `json:"final_line_price"`
	LinePrice      int64          `json:"line_price"`
	Quantity       int            `json:"quantity" binding:"required,min=1"`
	Taxable        bool           `json:"taxable"`
	Discounts      []CartDiscount `json:"discounts,omitempty"`
}

// GiftCardAttr 购物车携带的礼品卡占位（金额单位为分，兑换码在 cart.note）。
type GiftCardAttr struct {
	Amount int64 `json:"amount"`
}

// Cart 前端购物车快照。
type Cart struct {
	ID         string            `json:"id,omitempty"`
	Token      string            `json:"token,omitempty"`
	Note       string            `json:"note,omitempty"`
	Currency   string            `json:"currency,omitempty"`
	TotalPrice int64             `json:"total_price"`
	Items      []CartItem        `json:"items" binding:"required,min=1"`
	Attributes map[string]string `json:"attributes,omitempty"`
	GiftCard   *GiftCardAttr     `json:"gift_card,omitempty"`
}

// CustomerInput 结账客户信息。
type CustomerInput struct {
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Request 创建结账会话的入参。
type Request struct {
	Cart           Cart          `json:"cart" binding:"required"`
	Customer       CustomerInput `json:"customer" binding:"required"`
	TotalDiscounts int64         `json:"total_discounts,omitempty"`
}

// SessionInfo 创建成功后的会话标识与托管支付页地址。
type SessionInfo struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// collectDiscountCodes 汇总各行上金额为正的折扣条目。
func collectDiscountCodes(cart Cart) []model.DiscountCode {
	var out []model.DiscountCode
	for _, item := range cart.Items {
		for _, d := range item.Discounts {
			if d.Amount > 0 {
				out = append(out, model.DiscountCode{Code: d.Code, Title: d.Title, Amount: d.Amount})
			}
		}
	}
	return out
}
