package controllers

import (
	"net/http"

	"github.com/opremico/opremico-backend/api/responses"
	"github.com/opremico/opremico-backend/api/validators"
	"github.com/opremico/opremico-backend/internal/analytics"
	"github.com/opremico/opremico-backend/pkg/logger"
)

// AdminOrdersReport serves the aggregated order statistics for a preset
// range or an explicit from/to window.
func AdminOrdersReport(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rangeDays, err := validators.ParseQueryInt(r, "range", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Aggregate(r.Context(), analytics.AggregateInput{
			RangeDays: rangeDays,
			From:      from,
			To:        to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
