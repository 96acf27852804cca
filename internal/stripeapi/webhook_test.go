package stripeapi

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

var completedPayload = []byte(`{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_test_1",
			"amount_total": 800,
			"client_secret": "sec_1",
			"payment_intent": "pi_1"
		}
	}
}`)

func TestVerifyEvent_SignedPayloadRoundTrip(t *testing.T) {
	now := time.Now()
	sig := SignPayload(completedPayload, testSecret, now)

	evt, err := verifyEventAt(completedPayload, sig, testSecret, now)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)
	assert.Equal(t, "cs_test_1", evt.Data.Object.ID)
	assert.Equal(t, int64(800), evt.Data.Object.AmountTotal)
	assert.Equal(t, "pi_1", evt.Data.Object.PaymentIntent)
}

func TestVerifyEvent_WrongSecret(t *testing.T) {
	now := time.Now()
	sig := SignPayload(completedPayload, "whsec_other", now)

	_, err := verifyEventAt(completedPayload, sig, testSecret, now)

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyEvent_TamperedBody(t *testing.T) {
	now := time.Now()
	sig := SignPayload(completedPayload, testSecret, now)
	tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_evil","amount_total":1}}}`)

	_, err := verifyEventAt(tampered, sig, testSecret, now)

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyEvent_StaleTimestamp(t *testing.T) {
	signed := time.Now().Add(-6 * time.Minute)
	sig := SignPayload(completedPayload, testSecret, signed)

	_, err := verifyEventAt(completedPayload, sig, testSecret, time.Now())

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyEvent_MissingHeader(t *testing.T) {
	_, err := verifyEventAt(completedPayload, "", testSecret, time.Now())

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyEvent_HeaderWithoutV1(t *testing.T) {
	_, err := verifyEventAt(completedPayload, "t=123,v0=abc", testSecret, time.Now())

	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

// 多个 v1 签名（密钥轮换期）：任一匹配即通过。
func TestVerifyEvent_AnyV1Matches(t *testing.T) {
	now := time.Now()
	good := SignPayload(completedPayload, testSecret, now)
	tsPart, v1Part, ok := strings.Cut(good, ",")
	require.True(t, ok)
	header := tsPart + ",v1=deadbeef," + v1Part

	_, err := verifyEventAt(completedPayload, header, testSecret, now)

	assert.NoError(t, err)
}
