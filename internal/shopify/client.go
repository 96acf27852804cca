package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shopify_bridge/internal/model"
)

const (
	customersAPIVersion = "2024-10"
	ordersAPIVersion    = "2024-01"
	giftCardAPIVersion  = "2023-01"
)

// Client 封装 Shopify Admin REST 调用。
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewClient 构造客户端。domain 形如 "my-shop.myshopify.com"。
func NewClient(domain, token string) *Client {
	return &Client{
		baseURL: "https://" + domain,
		token:   token,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL 供测试指定 httptest 地址。
func NewClientWithBaseURL(baseURL, token string) *Client {
	return &Client{baseURL: baseURL, token: token, hc: &http.Client{Timeout: 15 * time.Second}}
}

// APIError 携带上游状态码与错误体，由调用方决定重试策略。
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error: status=%d body=%s", e.Status, e.Body)
}

// CustomerRecord Shopify 客户检索结果。
type CustomerRecord struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// GiftCard 礼品卡检索结果。
type GiftCard struct {
	ID             int64  `json:"id"`
	Balance        string `json:"balance"`
	LastCharacters string `json:"last_characters"`
}

// SearchCustomers 按 query（如 "phone:+33612345678" / "email:a@b.c"）检索客户。
func (c *Client) SearchCustomers(ctx context.Context, query string) ([]CustomerRecord, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/customers/search.json?query=%s",
		c.baseURL, customersAPIVersion, url.QueryEscape(query))

	var out struct {
		Customers []CustomerRecord `json:"customers"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// SearchGiftCard 按兑换码检索礼品卡，未命中返回 nil。
func (c *Client) SearchGiftCard(ctx context.Context, code string) (*GiftCard, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/gift_cards/search.json?query=%s",
		c.baseURL, giftCardAPIVersion, url.QueryEscape(code))

	var out struct {
		GiftCards []GiftCard `json:"gift_cards"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	if len(out.GiftCards) == 0 {
		return nil, nil
	}
	return &out.GiftCards[0], nil
}

// CreateOrder 提交订单。非 2xx 返回 *APIError。
func (c *Client) CreateOrder(ctx context.Context, draft model.OrderDraft) (model.OrderRecord, error) {
	payload := struct {
		Order model.OrderDraft `json:"order"`
	}{Order: draft}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.OrderRecord{}, fmt.Errorf("marshal order payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/orders.json", c.baseURL, ordersAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.OrderRecord{}, err
	}
	c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return model.OrderRecord{}, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.OrderRecord{}, fmt.Errorf("read order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.OrderRecord{}, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out struct {
		Order model.OrderRecord `json:"order"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.OrderRecord{}, fmt.Errorf("decode order response: %w", err)
	}
	return out.Order, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

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

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")
}
