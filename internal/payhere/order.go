// AngelaMos | 2026
// order.go

package payhere

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedOrderID = errors.New("malformed order id")

const orderIDSeparator = "_"

// OrderRef is the decoded form of an order id: {prefix}_{weddingID}_{millis}.
type OrderRef struct {
	Prefix    string
	WeddingID string
	Timestamp string
}

// NewOrderID builds the order id for a checkout of weddingID started at now.
func NewOrderID(prefix, weddingID string, now time.Time) (string, error) {
	if prefix == "" || weddingID == "" {
		return "", fmt.Errorf("new order id: empty segment: %w", ErrMalformedOrderID)
	}

	if strings.Contains(prefix, orderIDSeparator) ||
		strings.Contains(weddingID, orderIDSeparator) {
		return "", fmt.Errorf(
			"new order id: segment contains %q: %w",
			orderIDSeparator,
			ErrMalformedOrderID,
		)
	}

	return strings.Join([]string{
		prefix,
		weddingID,
		strconv.FormatInt(now.UnixMilli(), 10),
	}, orderIDSeparator), nil
}

// ParseOrderID splits an order id and returns the wedding it refers to. Any
// segments after the third are kept in Timestamp.
func ParseOrderID(orderID string) (OrderRef, error) {
	parts := strings.SplitN(orderID, orderIDSeparator, 3)
	if len(parts) < 3 {
		return OrderRef{}, fmt.Errorf(
			"parse order id %q: expected 3 segments, got %d: %w",
			orderID,
			len(parts),
			ErrMalformedOrderID,
		)
	}

	if parts[1] == "" {
		return OrderRef{}, fmt.Errorf(
			"parse order id %q: empty wedding id: %w",
			orderID,
			ErrMalformedOrderID,
		)
	}

	return OrderRef{
		Prefix:    parts[0],
		WeddingID: parts[1],
		Timestamp: parts[2],
	}, nil
}
