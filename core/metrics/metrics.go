package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bot metrics, auto-registered in the default Prometheus registry.
var (
	// UpdatesReceived counts incoming Telegram updates by type.
	UpdatesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybot_updates_received_total",
			Help: "Total number of received Telegram updates by type",
		},
		[]string{"type"}, // command, text, other
	)

	// HandlerOutcomes counts finished handler invocations by name and outcome.
	HandlerOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybot_handler_outcomes_total",
			Help: "Total number of handler invocations by handler and outcome",
		},
		[]string{"handler", "outcome"}, // outcome: ok, fail
	)

	// SignupsCompleted counts successfully registered users.
	SignupsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paybot_signups_total",
			Help: "Total number of completed signups",
		},
	)

	// PaymentRequestsCreated counts appended withdrawal requests.
	PaymentRequestsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paybot_payment_requests_total",
			Help: "Total number of created payment requests",
		},
	)

	// SheetErrors counts failed spreadsheet operations by operation name.
	SheetErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybot_sheet_errors_total",
			Help: "Total number of failed spreadsheet operations by operation",
		},
		[]string{"op"}, // get, append, update
	)
)

// Serve exposes /metrics on addr until ctx is cancelled.
// An empty addr disables the listener.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
