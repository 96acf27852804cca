package journal

import (
	"context"
	"strings"

	"shopify_bridge/internal/model"

	"gorm.io/gorm"
)

// Journal 把提交成功的订单落到本地 SQLite 对账流水表。
type Journal struct {
	db *gorm.DB
}

// New 构造流水记账器。
func New(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// RecordSubmission 记录一次提交结果。
// 幂等：重复投递造成的 UNIQUE 冲突直接当作成功。
func (j *Journal) RecordSubmission(ctx context.Context, sessionID string, rec model.OrderRecord) error {
	row := &model.SubmittedOrder{
		SessionID:       sessionID,
		OrderID:         rec.ID,
		OrderName:       rec.Name,
		TotalPrice:      rec.TotalPrice,
		FinancialStatus: rec.FinancialStatus,
		OrderStatusURL:  rec.OrderStatusURL,
	}
	err := j.db.WithContext(ctx).Create(row).Error
	if err != nil && errorsLikeUnique(err) {
		return nil
	}
	return err
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
