package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// StagedKind 显式标记暂存值的形态，避免靠字段嗅探判断会话是否已终态。
type StagedKind string

const (
	// StagedDraft 暂存值是待提交的订单草稿。
	StagedDraft StagedKind = "draft"
	// StagedResult 暂存值是提交成功后的订单结果（终态）。
	StagedResult StagedKind = "result"
)

// StagedValue 是 Redis 中按 session id 暂存的带标签信封。
type StagedValue struct {
	Kind      StagedKind   `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	Draft     *OrderDraft  `json:"draft,omitempty"`
	Result    *OrderRecord `json:"result,omitempty"`
}

// NewStagedDraft 包一个草稿信封。
func NewStagedDraft(draft OrderDraft) StagedValue {
	return StagedValue{Kind: StagedDraft, CreatedAt: time.Now().UTC(), Draft: &draft}
}

// NewStagedResult 包一个结果信封。
func NewStagedResult(result OrderRecord) StagedValue {
	return StagedValue{Kind: StagedResult, CreatedAt: time.Now().UTC(), Result: &result}
}

// Encode 序列化为存储字符串。
func (v StagedValue) Encode() (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode staged value: %w", err)
	}
	return string(b), nil
}

// DecodeStagedValue 反序列化并校验信封形态。
func DecodeStagedValue(raw string) (StagedValue, error) {
	var v StagedValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return StagedValue{}, fmt.Errorf("decode staged value: %w", err)
	}
	switch v.Kind {
	case StagedDraft:
		if v.Draft == nil {
			return StagedValue{}, fmt.Errorf("staged value kind=draft without draft body")
		}
	case StagedResult:
		if v.Result == nil {
			return StagedValue{}, fmt.Errorf("staged value kind=result without result body")
		}
	default:
		return StagedValue{}, fmt.Errorf("staged value has unknown kind %q", v.Kind)
	}
	return v, nil
}

// OrderRecord 是 Shopify 创建订单后的响应（取本系统用到的字段）。
type OrderRecord struct {
	ID              int64  `json:"id"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	TotalPrice      string `json:"total_price,omitempty"`
	FinancialStatus string `json:"financial_status,omitempty"`
	OrderStatusURL  string `json:"order_status_url,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}
