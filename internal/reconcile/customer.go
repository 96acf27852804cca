package reconcile

import (
	"context"
	"log"
	"strings"

	"shopify_bridge/internal/model"
	"shopify_bridge/internal/shopify"
)

// CustomerSearcher 是商城客户检索能力。
type CustomerSearcher interface {
	SearchCustomers(ctx context.Context, query string) ([]shopify.CustomerRecord, error)
}

// CustomerResolver 把草稿的客户块对齐到商城已有客户。
// 电话是更强的身份信号：先按电话查，再按邮箱查，取首个命中。
type CustomerResolver struct {
	api CustomerSearcher
}

// NewCustomerResolver 构造 resolver。
func NewCustomerResolver(api CustomerSearcher) *CustomerResolver {
	return &CustomerResolver{api: api}
}

// Resolve 返回解析后的新草稿。
// 冲突规则：命中客户的电话与草稿电话不一致时，草稿电话整组删除
// （避免商城侧 phone already taken）；命中客户有电话而草稿没有时回填。
// 检索本身失败视为未命中：建单可靠性优先于客户去重。
func (r *CustomerResolver) Resolve(ctx context.Context, draft model.OrderDraft) model.OrderDraft {
	out := draft.Clone()
	if out.Customer == nil {
		return out
	}

	email := out.Customer.Email
	if email == "" {
		email = out.Email
	}
	phone := normalizePhone(out.Customer.Phone)
	if phone != out.Customer.Phone && phone != "" {
		out.Customer.SetPhone(phone)
	}

	match, err := r.lookup(ctx, email, phone)
	if err != nil {
		log.Printf("customer lookup failed, proceeding without dedup: %v", err)
		return out
	}
	if match == nil {
		return out
	}

	// 只有命中客户确实存着另一个号码才算冲突；命中方没有电话时草稿电话保留。
	// 冲突删除后不回填命中方号码：两边号码都不可信，宁可不带电话提交。
	conflict := phone != "" && match.Phone != "" && match.Phone != phone
	if conflict {
		out.Customer.ClearPhone()
	}
	out.Customer.ID = match.ID
	if !conflict && match.Phone != "" && out.Customer.Phone == "" {
		out.Customer.SetPhone(match.Phone)
	}
	return out
}

func (r *CustomerResolver) lookup(ctx context.Context, email, phone string) (*shopify.CustomerRecord, error) {
	if phone != "" {
		customers, err := r.api.SearchCustomers(ctx, "phone:"+phone)
		if err != nil {
			return nil, err
		}
		if len(customers) > 0 {
			return &customers[0], nil
		}
	}
	if email == "" {
		return nil, nil
	}
	customers, err := r.api.SearchCustomers(ctx, "email:"+email)
	if err != nil {
		return nil, err
	}
	if len(customers) > 0 {
		return &customers[0], nil
	}
	return nil, nil
}

// normalizePhone 去空白并去掉本地前导 0（与商城存储格式对齐）。
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "0") {
		return phone[1:]
	}
	return phone
}
