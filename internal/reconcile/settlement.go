package reconcile

import "strings"

// GatewayStripe 卡处理器在草稿中的 gateway 标识。
const GatewayStripe = "stripe"

// MethodKind 收敛已知支付方式为封闭集合，未知类型落入 MethodOther。
// 新增方式靠加变体，不靠散落的字符串匹配。
type MethodKind string

const (
	MethodCard   MethodKind = "card"
	MethodLink   MethodKind = "link"
	MethodKlarna MethodKind = "klarna"
	MethodPayPal MethodKind = "paypal"
	MethodOther  MethodKind = "other"
)

// Method 结算工具：类型变体 + 原始类型串 + 展示所需细节。
type Method struct {
	Kind  MethodKind
	Raw   string
	Brand string
	Last4 string
	Email string
}

// ParseMethod 将支付方式类型串归入变体。
func ParseMethod(rawType, brand, last4, email string) Method {
	m := Method{Raw: rawType, Brand: brand, Last4: last4, Email: email}
	switch rawType {
	case "card":
		m.Kind = MethodCard
	case "link":
		m.Kind = MethodLink
	case "klarna":
		m.Kind = MethodKlarna
	case "paypal":
		m.Kind = MethodPayPal
	default:
		m.Kind = MethodOther
	}
	return m
}

// DisplayName 每个变体对应一条展示名规则。
func (m Method) DisplayName() string {
	switch m.Kind {
	case MethodCard:
		last4 := m.Last4
		if last4 == "" {
			last4 = "****"
		}
		return "Carte bancaire " + last4
	case MethodLink:
		return "Link " + m.Email
	case MethodKlarna:
		return "Klarna"
	case MethodPayPal:
		return "PayPal"
	default:
		return capitalize(m.Raw)
	}
}

// Settlement 是一次支付完成的结算摘要：金额、授权引用与结算工具。
type Settlement struct {
	AmountMinor     int64
	ClientSecret    string
	PaymentIntentID string
	Method          *Method
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
