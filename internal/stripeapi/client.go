package stripeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client 封装 Stripe REST 调用（form 编码 + Bearer 鉴权）。
type Client struct {
	baseURL string
	secret  string
	hc      *http.Client
}

// NewClient 构造客户端。
func NewClient(secretKey string) *Client {
	return &Client{
		baseURL: "https://api.stripe.com",
		secret:  secretKey,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL 供测试指定 httptest 地址。
func NewClientWithBaseURL(baseURL, secretKey string) *Client {
	return &Client{baseURL: baseURL, secret: secretKey, hc: &http.Client{Timeout: 15 * time.Second}}
}

// APIError 携带 Stripe 的状态码与错误体。
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe api error: status=%d body=%s", e.Status, e.Body)
}

// SessionLineItem Checkout Session 的单个商品行，金额单位为分。
type SessionLineItem struct {
	Name        string
	Description string
	ImageURL    string
	AmountMinor int64
	Quantity    int
	Currency    string
}

// SessionParams 创建 Checkout Session 的参数。
type SessionParams struct {
	PaymentMethodTypes []string
	LineItems          []SessionLineItem
	Mode               string
	SuccessURL         string
	CancelURL          string
	CustomerEmail      string
	CouponID           string
	Metadata           map[string]string
}

// Session Checkout Session 响应。
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentIntent 支付意向，PaymentMethod 是支付方式引用。
type PaymentIntent struct {
	ID            string `json:"id"`
	PaymentMethod string `json:"payment_method"`
}

// PaymentMethod 支付方式详情。
type PaymentMethod struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Card *struct {
		Brand string `json:"brand"`
		Last4 string `json:"last4"`
	} `json:"card"`
	Link *struct {
		Email string `json:"email"`
	} `json:"link"`
}

// CreateCheckoutSession 创建托管结账会话。
func (c *Client) CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error) {
	form := url.Values{}
	for i, t := range p.PaymentMethodTypes {
		form.Set(fmt.Sprintf("payment_method_types[%d]", i), t)
	}
	for i, li := range p.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", li.Currency)
		form.Set(prefix+"[price_data][product_data][name]", li.Name)
		if li.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", li.Description)
		}
		if li.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", li.ImageURL)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.AmountMinor, 10))
		form.Set(prefix+"[price_data][tax_behavior]", "inclusive")
		form.Set(prefix+"[quantity]", strconv.Itoa(li.Quantity))
	}
	form.Set("mode", p.Mode)
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}
	if p.CouponID != "" {
		form.Set("discounts[0][coupon]", p.CouponID)
	}
	for k, v := range p.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var out Session
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &out); err != nil {
		return Session{}, err
	}
	return out, nil
}

// EnsureCoupon 按金额取用/创建固定金额优惠券。
// 同金额复用同一个 coupon id，省去重复创建。
func (c *Client) EnsureCoupon(ctx context.Context, amountMinor int64, currency string) (string, error) {
	couponID := fmt.Sprintf("SHOPIFY_%d", amountMinor)

	var existing struct {
		ID string `json:"id"`
	}
	err := c.getJSON(ctx, "/v1/coupons/"+couponID, &existing)
	if err == nil {
		return couponID, nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		return "", err
	}

	form := url.Values{}
	form.Set("id", couponID)
	form.Set("amount_off", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("name", fmt.Sprintf("Reduction %s", formatAmount(amountMinor)))
	var created struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/v1/coupons", form, &created); err != nil {
		return "", err
	}
	return couponID, nil
}

// RetrievePaymentIntent 查询支付意向。
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (PaymentIntent, error) {
	var out PaymentIntent
	if err := c.getJSON(ctx, "/v1/payment_intents/"+id, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out, nil
}

// RetrievePaymentMethod 查询支付方式详情。
func (c *Client) RetrievePaymentMethod(ctx context.Context, ref string) (PaymentMethod, error) {
	var out PaymentMethod
	if err := c.getJSON(ctx, "/v1/payment_methods/"+ref, &out); err != nil {
		return PaymentMethod{}, err
	}
	return out, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return json.Unmarshal(raw, out)
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}
