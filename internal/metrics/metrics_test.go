// AngelaMos | 2026
// metrics_test.go

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/weddingplanner/internal/metrics"
)

func TestRecordPaymentNotification(t *testing.T) {
	before := testutil.ToFloat64(metrics.PaymentNotificationsTotal.WithLabelValues("upgraded"))

	metrics.RecordPaymentNotification("upgraded")
	metrics.RecordPaymentNotification("upgraded")

	after := testutil.ToFloat64(metrics.PaymentNotificationsTotal.WithLabelValues("upgraded"))
	assert.InDelta(t, 2, after-before, 0.0001)
}

func TestRecordEntitlementResolution(t *testing.T) {
	before := testutil.ToFloat64(metrics.EntitlementResolutionsTotal.WithLabelValues("free", "true"))

	metrics.RecordEntitlementResolution("free", true)

	after := testutil.ToFloat64(metrics.EntitlementResolutionsTotal.WithLabelValues("free", "true"))
	assert.InDelta(t, 1, after-before, 0.0001)
}
