package checkout

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nirogkart/storefront/internal/domain"
	"github.com/nirogkart/storefront/internal/metrics"
)

// OrderGetter is the one backend call the poller needs.
type OrderGetter interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// PaymentPoller watches a single order until the gateway marks it paid. The
// gateway gives no client-side callback, so polling the order endpoint is the
// only confirmation channel.
//
// Ticks fire every interval; the status request runs synchronously inside the
// loop, so there is never more than one in flight; a slow response simply
// swallows the ticks that elapsed meanwhile. The cutoff is wall-clock from
// start, not a tick count, so throttled timers cannot stretch the window.
type PaymentPoller struct {
	orders   OrderGetter
	interval time.Duration
	timeout  time.Duration
}

func NewPaymentPoller(orders OrderGetter) *PaymentPoller {
	return &PaymentPoller{
		orders:   orders,
		interval: 4 * time.Second,
		timeout:  120 * time.Second,
	}
}

// Run polls until the order is paid, the timeout passes, or ctx is canceled
// (the page-unmount equivalent). On paid it invokes onPaid with the final
// order and stops. On timeout it stops silently: no error is surfaced, the
// session is simply left unpaid, matching how the storefront has always
// behaved.
func (p *PaymentPoller) Run(ctx context.Context, orderID string, onPaid func(order *domain.Order)) {
	start := time.Now()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			metrics.PaymentOutcomes.WithLabelValues("canceled").Inc()
			return
		case <-ticker.C:
			if time.Since(start) >= p.timeout {
				log.WithField("order_id", orderID).Info("payment poll window elapsed, stopping")
				metrics.PaymentOutcomes.WithLabelValues("timeout").Inc()
				return
			}

			metrics.PaymentPollTicks.Inc()
			order, err := p.orders.GetOrder(ctx, orderID)
			if err != nil {
				log.WithError(err).WithField("order_id", orderID).Warn("payment poll failed")
				continue
			}
			if order.IsPaid {
				onPaid(order)
				return
			}
		}
	}
}
