package reconcile

import (
	"shopify_bridge/internal/model"
)

// ApplySettlement 把结算摘要合并进草稿，返回新草稿（入参不被修改）。
// 交易位次约定：0 号位被非卡处理器结算工具（礼品卡）占用时，
// 卡处理器交易落 1 号位；否则复用/新增 0 号位。
// 相同结算摘要重复执行等价于执行一次（不产生重复交易/标签/备注）。
func ApplySettlement(draft model.OrderDraft, s Settlement) model.OrderDraft {
	out := draft.Clone()

	idx := -1
	switch {
	case len(out.Transactions) > 0 && out.Transactions[0].Gateway == GatewayStripe:
		idx = 0
		if s.AmountMinor > 0 {
			out.Transactions[0].Amount = model.FormatMinor(s.AmountMinor)
		}
	case s.AmountMinor > 0:
		// 0 号位是礼品卡（或草稿为空），处理器交易落到下一个位次。
		if len(out.Transactions) > 1 && out.Transactions[1].Gateway == GatewayStripe {
			idx = 1
			out.Transactions[1].Amount = model.FormatMinor(s.AmountMinor)
		} else {
			out.Transactions = append(out.Transactions, model.Transaction{
				Kind:    "sale",
				Status:  "success",
				Amount:  model.FormatMinor(s.AmountMinor),
				Gateway: GatewayStripe,
			})
			idx = len(out.Transactions) - 1
		}
	}
	if idx < 0 {
		return out
	}

	tx := &out.Transactions[idx]
	if s.ClientSecret != "" {
		tx.ClientSecret = s.ClientSecret
	}
	if s.PaymentIntentID != "" {
		tx.Authorization = s.PaymentIntentID
		tx.AuthorizationCode = s.PaymentIntentID
	}

	if s.Method == nil {
		return out
	}

	name := s.Method.DisplayName()
	tx.GatewayName = name
	tx.GatewayDisplayName = name
	tx.PaymentDetails = &model.PaymentDetails{
		CreditCardCompany:        s.Method.Brand,
		CreditCardLastFourDigits: s.Method.Last4,
		PaymentMethodType:        s.Method.Raw,
		Email:                    s.Method.Email,
		Name:                     name,
	}

	out.PaymentGatewayNames = appendUnique(out.PaymentGatewayNames, name)
	out.Tags = appendUnique(out.Tags, s.Method.Raw)
	out.NoteAttributes = appendUniqueAttr(out.NoteAttributes, model.NoteAttribute{
		Name:  "Payment Method Display Name",
		Value: name,
	})
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func appendUniqueAttr(list []model.NoteAttribute, attr model.NoteAttribute) []model.NoteAttribute {
	for _, e := range list {
		if e.Name == attr.Name && e.Value == attr.Value {
			return list
		}
	}
	return append(list, attr)
}
