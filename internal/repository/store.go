package repository

import (
	"errors"
	"time"

	"github.com/imannovv/gravitee-audit/internal/pkg/metrics"
)

// Collection names a logical collection; stores map it to a physical name.
type Collection string

const (
	Audits       Collection = "audits"
	Users        Collection = "users"
	APIs         Collection = "apis"
	Applications Collection = "applications"
)

var ErrNotFound = errors.New("document not found")

func observe(coll Collection, op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.StoreQueries.WithLabelValues(string(coll), op, outcome).Inc()
	metrics.StoreLatency.WithLabelValues(string(coll), op).Observe(time.Since(start).Seconds())
}
