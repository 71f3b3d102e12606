package tbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateToken(t *testing.T) {
	// Values are concatenated in key order with the password spliced in
	// under the "Password" key, then hashed.
	params := map[string]string{
		"TerminalKey": "TestTerminal",
		"Amount":      "49900",
		"OrderId":     "order-1",
	}

	token := GenerateToken(params, "secret")
	assert.Len(t, token, 64)
	assert.Equal(t, token, GenerateToken(params, "secret"))
	assert.NotEqual(t, token, GenerateToken(params, "other"))

	// A Token field in the input is ignored, notifications echo it back.
	withToken := map[string]string{
		"TerminalKey": "TestTerminal",
		"Amount":      "49900",
		"OrderId":     "order-1",
		"Token":       "whatever",
	}
	assert.Equal(t, token, GenerateToken(withToken, "secret"))

	// PayType is part of the signed params when the SBP flow sets it.
	withPayType := map[string]string{
		"TerminalKey": "TestTerminal",
		"Amount":      "49900",
		"OrderId":     "order-1",
		"PayType":     PayTypeSBP,
	}
	assert.NotEqual(t, token, GenerateToken(withPayType, "secret"))
}

func TestVerifyNotification(t *testing.T) {
	n := &Notification{
		TerminalKey: "TestTerminal",
		OrderID:     "order-1",
		Success:     true,
		Status:      StatusConfirmed,
		PaymentID:   13660,
		ErrorCode:   "0",
		Amount:      49900,
	}
	n.Token = GenerateToken(map[string]string{
		"TerminalKey": "TestTerminal",
		"OrderId":     "order-1",
		"Success":     "true",
		"Status":      StatusConfirmed,
		"PaymentId":   "13660",
		"ErrorCode":   "0",
		"Amount":      "49900",
	}, "secret")

	assert.True(t, VerifyNotification(n, "secret"))
	assert.False(t, VerifyNotification(n, "wrong-password"))

	n.Amount = 1
	assert.False(t, VerifyNotification(n, "secret"))
}
