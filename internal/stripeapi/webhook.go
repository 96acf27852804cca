package stripeapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 事件类型：完成事件会触发对账，过期事件确认后忽略。
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// ErrSignatureInvalid 签名校验失败（缺头、过期、HMAC 不匹配）。
var ErrSignatureInvalid = errors.New("stripe webhook signature invalid")

// signatureTolerance 时间戳容忍窗口，超过视为重放。
const signatureTolerance = 5 * time.Minute

// Event 已验签的 webhook 事件。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// CheckoutSession 事件携带的结账会话（只取对账用到的字段）。
type CheckoutSession struct {
	ID            string `json:"id"`
	AmountTotal   int64  `json:"amount_total"`
	ClientSecret  string `json:"client_secret"`
	PaymentIntent string `json:"payment_intent"`
}

// VerifyEvent 校验 Stripe-Signature 头并解析事件。
// 签名格式 "t=<unix>,v1=<hex hmac>,..."，HMAC-SHA256 作用于 "<t>.<body>"。
// 任何校验失败统一归并为 ErrSignatureInvalid，payload 一概不处理。
func VerifyEvent(payload []byte, sigHeader, secret string) (Event, error) {
	return verifyEventAt(payload, sigHeader, secret, time.Now())
}

func verifyEventAt(payload []byte, sigHeader, secret string, now time.Time) (Event, error) {
	if sigHeader == "" {
		return Event{}, fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	var ts int64 = -1
	var sigs []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Event{}, fmt.Errorf("%w: bad timestamp", ErrSignatureInvalid)
			}
			ts = n
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts < 0 || len(sigs) == 0 {
		return Event{}, fmt.Errorf("%w: header missing t/v1", ErrSignatureInvalid)
	}

	if d := now.Sub(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
		return Event{}, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	matched := false
	for _, s := range sigs {
		if hmac.Equal([]byte(expected), []byte(s)) {
			matched = true
			break
		}
	}
	if !matched {
		return Event{}, fmt.Errorf("%w: no matching v1 signature", ErrSignatureInvalid)
	}

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return evt, nil
}

// SignPayload 按校验端同样的算法生成签名头，供测试与联调使用。
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
