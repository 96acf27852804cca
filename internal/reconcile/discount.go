package reconcile

import (
	"fmt"
	"math"
	"strconv"

	"shopify_bridge/internal/model"
)

// AllocateDiscounts 将聚合折扣按行项目金额占比分摊，返回新草稿。
// 每行独立四舍五入，不做进位补偿：分摊和与总额的偏差最多每行一分。
// 分摊完成后 discount_codes 被消费移除，换成 discount_applications。
func AllocateDiscounts(draft model.OrderDraft) model.OrderDraft {
	out := draft.Clone()
	if len(out.DiscountCodes) == 0 {
		return out
	}

	var total int64
	for _, d := range out.DiscountCodes {
		total += d.Amount
	}

	var lineTotal int64
	for _, li := range out.LineItems {
		lineTotal += li.FinalLinePrice
	}

	for i := range out.LineItems {
		li := &out.LineItems[i]
		var alloc int64
		if lineTotal > 0 {
			proportion := float64(li.FinalLinePrice) / float64(lineTotal)
			alloc = int64(math.Round(float64(total) * proportion))
		}
		li.TotalDiscount = alloc
		li.DiscountedPrice = alloc
		li.LineLevelTotalDiscount = alloc
		li.LineLevelDiscountAllocations = []model.DiscountAllocation{{
			Amount:                   model.FormatMinor(alloc),
			DiscountApplicationIndex: 0,
		}}
	}

	out.DiscountApplications = make([]model.DiscountApplication, 0, len(out.DiscountCodes))
	for _, d := range out.DiscountCodes {
		label := d.Label()
		out.DiscountApplications = append(out.DiscountApplications, model.DiscountApplication{
			Type:             "discount_code",
			Value:            model.FormatMinor(d.Amount),
			ValueType:        "fixed_amount",
			AllocationMethod: "across",
			TargetSelection:  "all",
			TargetType:       "line_item",
			Code:             label,
			Description:      label,
		})
		out.NoteAttributes = append(out.NoteAttributes, model.NoteAttribute{
			Name:  "Discount Code",
			Value: fmt.Sprintf("%s (-%s€)", label, model.FormatMinor(d.Amount)),
		})
	}

	out.DiscountCodes = nil
	out.TotalDiscounts = model.FormatMinor(total)

	// 折扣全额覆盖订单时，不能留下 0 元的处理器交易。
	if out.TotalPrice == "0.00" {
		kept := out.Transactions[:0]
		for _, tx := range out.Transactions {
			if amt, err := strconv.ParseFloat(tx.Amount, 64); err == nil && amt > 0 {
				kept = append(kept, tx)
			}
		}
		out.Transactions = kept
	}
	return out
}
