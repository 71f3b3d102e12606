package tbank

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// GenerateToken implements the T-Bank request signature: all scalar request
// fields plus the terminal password, sorted by field name, values
// concatenated and hashed with SHA-256.
func GenerateToken(params map[string]string, password string) string {
	data := make(map[string]string, len(params)+1)
	for k, v := range params {
		if k == "Token" {
			continue
		}
		data[k] = v
	}
	data["Password"] = password

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, data[k])
	}

	hash := sha256.Sum256([]byte(strings.Join(values, "")))
	return hex.EncodeToString(hash[:])
}

func VerifyNotification(n *Notification, password string) bool {
	params := map[string]string{
		"TerminalKey": n.TerminalKey,
		"OrderId":     n.OrderID,
		"Success":     fmt.Sprintf("%t", n.Success),
		"Status":      n.Status,
		"PaymentId":   fmt.Sprintf("%d", n.PaymentID),
		"ErrorCode":   n.ErrorCode,
		"Amount":      fmt.Sprintf("%d", n.Amount),
	}
	return n.Token == GenerateToken(params, password)
}
