package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
)

// allowed preset window lengths in days.
var allowedRanges = map[int]bool{30: true, 90: true, 180: true, 365: true}

const defaultRangeDays = 30

type schemaCapabilities interface {
	HasPaymentEvents(ctx context.Context) bool
}

// AggregateInput selects the reporting window. Explicit From/To take
// precedence over the preset range.
type AggregateInput struct {
	RangeDays int
	From      *time.Time
	To        *time.Time
}

// DayBucket is one zero-filled day of the report timeline. All derived
// values are rounded to two decimals; rates are percentages.
type DayBucket struct {
	Date                 time.Time      `json:"date"`
	OrderCount           int            `json:"order_count"`
	RevenueCents         int64          `json:"revenue_cents"`
	AOVCents             float64        `json:"aov"`
	MedianOrderCents     float64        `json:"median_order_value"`
	PaidCount            int            `json:"paid_count"`
	CancelledCount       int            `json:"cancelled_count"`
	PaymentSuccessRate   float64        `json:"payment_success_rate"`
	CancellationRate     float64        `json:"cancellation_rate"`
	StatusBuckets        map[string]int `json:"status_buckets"`
	PaymentStatusBuckets map[string]int `json:"payment_status_buckets"`
	CustomerTypeBuckets  map[string]int `json:"customer_type_buckets"`

	// Lead time from order creation to the first paid event, for orders
	// created that day. Nil when the payment_events table is absent or
	// the day has no paid orders.
	LeadTimeP50Hours *float64 `json:"lead_time_p50_hours"`
	LeadTimeP90Hours *float64 `json:"lead_time_p90_hours"`
}

// Report is the aggregated order timeline for one window.
type Report struct {
	From time.Time   `json:"from"`
	To   time.Time   `json:"to"`
	Days []DayBucket `json:"days"`

	TotalOrders  int   `json:"total_orders"`
	RevenueCents int64 `json:"revenue_cents"`
}

// Service computes order analytics reports.
type Service interface {
	Aggregate(ctx context.Context, input AggregateInput) (*Report, error)
}

type service struct {
	repo Repository
	caps schemaCapabilities
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds an analytics service with the required dependencies.
func NewService(repo Repository, caps schemaCapabilities, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if caps == nil {
		return nil, fmt.Errorf("schema capabilities required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo: repo,
		caps: caps,
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// dayAccumulator collects raw per-day samples before the derived stats
// are computed.
type dayAccumulator struct {
	values      []float64
	leadSamples []float64
}

func (s *service) Aggregate(ctx context.Context, input AggregateInput) (*Report, error) {
	from, to, err := s.resolveWindow(input)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.OrdersInWindow(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for report")
	}

	report := &Report{From: from, To: to, Days: zeroFilledDays(from, to)}
	index := dayIndex(report.Days)
	acc := make([]dayAccumulator, len(report.Days))

	dayOf := make(map[int64]int, len(rows))
	var paidOrders []models.Order
	for _, order := range rows {
		day := order.CreatedAt.UTC().Truncate(24 * time.Hour)
		i, ok := index[day]
		if !ok {
			continue
		}
		report.TotalOrders++
		report.RevenueCents += order.TotalCents

		bucket := &report.Days[i]
		bucket.OrderCount++
		bucket.RevenueCents += order.TotalCents
		bucket.StatusBuckets[string(order.Status)]++
		bucket.PaymentStatusBuckets[string(order.PaymentStatus)]++
		bucket.CustomerTypeBuckets[string(order.CustomerType)]++
		acc[i].values = append(acc[i].values, float64(order.TotalCents))

		if order.PaymentStatus == enums.PaymentStatusPaid {
			bucket.PaidCount++
			paidOrders = append(paidOrders, order)
			dayOf[order.ID] = i
		}
		if order.Status == enums.OrderStatusCancelled {
			bucket.CancelledCount++
		}
	}

	if err := s.collectLeadSamples(ctx, paidOrders, dayOf, acc); err != nil {
		return nil, err
	}

	for i := range report.Days {
		finalizeDay(&report.Days[i], acc[i])
	}
	return report, nil
}

// finalizeDay turns the day's raw samples into the derived stats. Days
// without orders keep every derived value at zero.
func finalizeDay(bucket *DayBucket, acc dayAccumulator) {
	if bucket.OrderCount > 0 {
		count := float64(bucket.OrderCount)
		bucket.AOVCents = round2(float64(bucket.RevenueCents) / count)
		bucket.MedianOrderCents = round2(Percentile(acc.values, 0.5))
		bucket.PaymentSuccessRate = round2(float64(bucket.PaidCount) / count * 100)
		bucket.CancellationRate = round2(float64(bucket.CancelledCount) / count * 100)
	}
	if len(acc.leadSamples) > 0 {
		p50 := round2(Percentile(acc.leadSamples, 0.5))
		p90 := round2(Percentile(acc.leadSamples, 0.9))
		bucket.LeadTimeP50Hours = &p50
		bucket.LeadTimeP90Hours = &p90
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *service) resolveWindow(input AggregateInput) (time.Time, time.Time, error) {
	if input.From != nil && input.To != nil {
		from, to := input.From.UTC(), input.To.UTC()
		if to.Before(from) {
			from, to = to, from
		}
		return from, to, nil
	}

	days := input.RangeDays
	if days == 0 {
		days = defaultRangeDays
	}
	if !allowedRanges[days] {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation,
			"range must be one of 30, 90, 180 or 365 days")
	}

	to := s.now()
	return to.AddDate(0, 0, -days), to, nil
}

// collectLeadSamples appends creation-to-payment hours to each paid
// order's creation-day accumulator, when the schema carries payment
// events.
func (s *service) collectLeadSamples(ctx context.Context, paidOrders []models.Order, dayOf map[int64]int, acc []dayAccumulator) error {
	if len(paidOrders) == 0 || !s.caps.HasPaymentEvents(ctx) {
		return nil
	}

	ids := make([]int64, 0, len(paidOrders))
	byID := make(map[int64]models.Order, len(paidOrders))
	for _, order := range paidOrders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	paidAt, err := s.repo.FirstPaidAt(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment events")
	}

	for orderID, ts := range paidAt {
		order := byID[orderID]
		hours := ts.Sub(order.CreatedAt).Hours()
		if hours < 0 {
			continue
		}
		i := dayOf[orderID]
		acc[i].leadSamples = append(acc[i].leadSamples, hours)
	}
	return nil
}

func zeroFilledDays(from, to time.Time) []DayBucket {
	start := from.UTC().Truncate(24 * time.Hour)
	end := to.UTC().Truncate(24 * time.Hour)

	var days []DayBucket
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, DayBucket{
			Date:                 day,
			StatusBuckets:        map[string]int{},
			PaymentStatusBuckets: map[string]int{},
			CustomerTypeBuckets:  map[string]int{},
		})
	}
	return days
}

func dayIndex(days []DayBucket) map[time.Time]int {
	index := make(map[time.Time]int, len(days))
	for i, day := range days {
		index[day.Date] = i
	}
	return index
}
