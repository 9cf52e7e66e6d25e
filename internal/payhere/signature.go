// AngelaMos | 2026
// signature.go

// Package payhere implements the PayHere checkout signing scheme and the
// verification of its server-to-server payment notifications.
package payhere

import (
	"crypto/md5" //nolint:gosec // G501: MD5 is mandated by the processor's signature scheme
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// StatusSuccess is the status_code PayHere sends for a completed payment.
const StatusSuccess = "2"

const (
	StatusPending    = "0"
	StatusCancelled  = "-1"
	StatusFailed     = "-2"
	StatusChargeback = "-3"
)

var ErrNotConfigured = errors.New("payhere merchant credentials not configured")

// Verify checks the md5sig of an inbound notification. The amount must be the
// payhere_amount string exactly as received. It returns false when the secret
// is empty or the signatures differ in any way, including length.
func Verify(
	merchantID, orderID, amount, currency, statusCode, receivedSignature, merchantSecret string,
) bool {
	if merchantSecret == "" || receivedSignature == "" {
		return false
	}

	expected := NotificationSignature(
		merchantID,
		orderID,
		amount,
		currency,
		statusCode,
		merchantSecret,
	)

	return subtle.ConstantTimeCompare(
		[]byte(expected),
		[]byte(receivedSignature),
	) == 1
}

// NotificationSignature computes the md5sig PayHere attaches to a notification.
func NotificationSignature(
	merchantID, orderID, amount, currency, statusCode, merchantSecret string,
) string {
	var b strings.Builder
	b.WriteString(merchantID)
	b.WriteString(orderID)
	b.WriteString(amount)
	b.WriteString(currency)
	b.WriteString(statusCode)
	b.WriteString(hashedSecret(merchantSecret))

	return upperMD5(b.String())
}

// Sign produces the checkout hash sent with an outbound payment request.
// Unlike a notification signature it carries no status code.
func Sign(
	merchantID, orderID string,
	amount float64,
	currency, merchantSecret string,
) (string, error) {
	if merchantID == "" || merchantSecret == "" {
		return "", ErrNotConfigured
	}

	var b strings.Builder
	b.WriteString(merchantID)
	b.WriteString(orderID)
	b.WriteString(FormatAmount(amount))
	b.WriteString(currency)
	b.WriteString(hashedSecret(merchantSecret))

	return upperMD5(b.String()), nil
}

// FormatAmount renders an amount the way both sides hash it: fixed point,
// two decimals, no grouping.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func hashedSecret(secret string) string {
	return upperMD5(secret)
}

func upperMD5(s string) string {
	//nolint:gosec // G401: see import
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
