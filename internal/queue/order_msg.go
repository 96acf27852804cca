package queue

import "fmt"

// OrderCreatedMessage 是订单提交成功后发往 Kafka 的事件。
type OrderCreatedMessage struct {
	SessionID       string `json:"session_id"`
	OrderID         int64  `json:"order_id"`
	OrderName       string `json:"order_name"`
	TotalPrice      string `json:"total_price"`
	FinancialStatus string `json:"financial_status"`
}

// Validate 做最小字段校验，防止下游消费脏消息。
func (m OrderCreatedMessage) Validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if m.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	return nil
}
