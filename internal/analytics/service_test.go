package analytics

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/opremico/opremico-backend/pkg/db/models"
	"github.com/opremico/opremico-backend/pkg/enums"
	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/opremico/opremico-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyticsRepo struct {
	orders []models.Order
	paidAt map[int64]time.Time
}

func (s *stubAnalyticsRepo) OrdersInWindow(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	end := to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	var out []models.Order
	for _, order := range s.orders {
		if !order.CreatedAt.Before(from) && order.CreatedAt.Before(end) {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *stubAnalyticsRepo) FirstPaidAt(ctx context.Context, orderIDs []int64) (map[int64]time.Time, error) {
	out := map[int64]time.Time{}
	for _, id := range orderIDs {
		if ts, ok := s.paidAt[id]; ok {
			out[id] = ts
		}
	}
	return out, nil
}

type stubCaps struct {
	events bool
}

func (c stubCaps) HasPaymentEvents(ctx context.Context) bool { return c.events }

func newAnalyticsService(t *testing.T, repo *stubAnalyticsRepo, caps stubCaps) *service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard})
	svc, err := NewService(repo, caps, logg)
	require.NoError(t, err)
	return svc.(*service)
}

func day(dayOfMonth int) time.Time {
	return time.Date(2026, 8, dayOfMonth, 10, 30, 0, 0, time.UTC)
}

func TestService_Aggregate_ZeroFilledDays(t *testing.T) {
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 1000, CreatedAt: day(2), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid, Status: enums.OrderStatusFinished},
			{ID: 2, TotalCents: 3000, CreatedAt: day(2), CustomerType: enums.CustomerTypeCompany, PaymentStatus: enums.PaymentStatusUnpaid, Status: enums.OrderStatusAwaitingPayment},
			{ID: 3, TotalCents: 2000, CreatedAt: day(4), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusUnpaid, Status: enums.OrderStatusCancelled},
		},
	}
	svc := newAnalyticsService(t, repo, stubCaps{})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)

	// Five calendar days, every day present even when empty.
	require.Len(t, report.Days, 5)
	for _, i := range []int{0, 2, 4} {
		assert.Zero(t, report.Days[i].OrderCount)
		assert.Zero(t, report.Days[i].AOVCents)
		assert.Zero(t, report.Days[i].MedianOrderCents)
		assert.Nil(t, report.Days[i].LeadTimeP50Hours)
	}

	busy := report.Days[1]
	assert.Equal(t, 2, busy.OrderCount)
	assert.Equal(t, int64(4000), busy.RevenueCents)
	assert.InDelta(t, 2000, busy.AOVCents, 1e-9)
	assert.InDelta(t, 2000, busy.MedianOrderCents, 1e-9)
	assert.Equal(t, 1, busy.PaidCount)
	assert.InDelta(t, 50, busy.PaymentSuccessRate, 1e-9)
	assert.Zero(t, busy.CancelledCount)
	assert.Zero(t, busy.CancellationRate)
	assert.Equal(t, map[string]int{"finished": 1, "awaiting_payment": 1}, busy.StatusBuckets)
	assert.Equal(t, map[string]int{"paid": 1, "unpaid": 1}, busy.PaymentStatusBuckets)
	assert.Equal(t, map[string]int{"individual": 1, "company": 1}, busy.CustomerTypeBuckets)

	cancelledDay := report.Days[3]
	assert.Equal(t, 1, cancelledDay.OrderCount)
	assert.Equal(t, 1, cancelledDay.CancelledCount)
	assert.InDelta(t, 100, cancelledDay.CancellationRate, 1e-9)
	assert.Zero(t, cancelledDay.PaymentSuccessRate)

	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, int64(6000), report.RevenueCents)
}

func TestDayBucket_MarshalsDerivedFields(t *testing.T) {
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 1500, CreatedAt: day(2), CustomerType: enums.CustomerTypeCompany, PaymentStatus: enums.PaymentStatusPaid, Status: enums.OrderStatusFinished},
		},
	}
	svc := newAnalyticsService(t, repo, stubCaps{})

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := from
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, report.Days, 1)

	raw, err := json.Marshal(report.Days[0])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, key := range []string{
		"date", "order_count", "revenue_cents", "aov", "median_order_value",
		"paid_count", "cancelled_count", "payment_success_rate", "cancellation_rate",
		"status_buckets", "payment_status_buckets", "customer_type_buckets",
		"lead_time_p50_hours", "lead_time_p90_hours",
	} {
		assert.Contains(t, fields, key)
	}
	assert.InDelta(t, 1500, fields["aov"].(float64), 1e-9)
	assert.InDelta(t, 100, fields["payment_success_rate"].(float64), 1e-9)
	assert.Nil(t, fields["lead_time_p50_hours"])
}

func TestService_Aggregate_RoundsDerivedValues(t *testing.T) {
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 100, CreatedAt: day(2), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid, Status: enums.OrderStatusFinished},
			{ID: 2, TotalCents: 100, CreatedAt: day(2), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusUnpaid, Status: enums.OrderStatusReceived},
			{ID: 3, TotalCents: 101, CreatedAt: day(2), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusUnpaid, Status: enums.OrderStatusReceived},
		},
	}
	svc := newAnalyticsService(t, repo, stubCaps{})

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := from
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)

	bucket := report.Days[0]
	// 301/3 = 100.333..., 1/3*100 = 33.333...
	assert.InDelta(t, 100.33, bucket.AOVCents, 1e-9)
	assert.InDelta(t, 33.33, bucket.PaymentSuccessRate, 1e-9)
}

func TestService_Aggregate_CountsFinalCalendarDay(t *testing.T) {
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 1000, CreatedAt: time.Date(2026, 8, 5, 10, 30, 0, 0, time.UTC), CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusUnpaid, Status: enums.OrderStatusReceived},
		},
	}
	svc := newAnalyticsService(t, repo, stubCaps{})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalOrders)
	require.Len(t, report.Days, 5)
	assert.Equal(t, 1, report.Days[4].OrderCount)
}

func TestService_Aggregate_SwapsInvertedWindow(t *testing.T) {
	svc := newAnalyticsService(t, &stubAnalyticsRepo{}, stubCaps{})

	from := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)
	assert.True(t, report.From.Before(report.To))
	assert.Len(t, report.Days, 5)
}

func TestService_Aggregate_RejectsUnknownRange(t *testing.T) {
	svc := newAnalyticsService(t, &stubAnalyticsRepo{}, stubCaps{})

	_, err := svc.Aggregate(context.Background(), AggregateInput{RangeDays: 45})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestService_Aggregate_DefaultRange(t *testing.T) {
	svc := newAnalyticsService(t, &stubAnalyticsRepo{}, stubCaps{})
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	report, err := svc.Aggregate(context.Background(), AggregateInput{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC), report.From)
	assert.Len(t, report.Days, 31)
}

func TestService_Aggregate_LeadTimesPerDay(t *testing.T) {
	created := day(2)
	otherDay := day(4)
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 1000, CreatedAt: created, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid},
			{ID: 2, TotalCents: 1000, CreatedAt: created, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid},
			{ID: 3, TotalCents: 1000, CreatedAt: created, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid},
			{ID: 4, TotalCents: 1000, CreatedAt: created, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid},
			{ID: 5, TotalCents: 1000, CreatedAt: otherDay, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusUnpaid},
		},
		paidAt: map[int64]time.Time{
			1: created.Add(10 * time.Hour),
			2: created.Add(20 * time.Hour),
			3: created.Add(30 * time.Hour),
			4: created.Add(40 * time.Hour),
		},
	}
	svc := newAnalyticsService(t, repo, stubCaps{events: true})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)

	paidDay := report.Days[1]
	require.NotNil(t, paidDay.LeadTimeP50Hours)
	require.NotNil(t, paidDay.LeadTimeP90Hours)
	assert.InDelta(t, 25.0, *paidDay.LeadTimeP50Hours, 1e-9)
	assert.InDelta(t, 37.0, *paidDay.LeadTimeP90Hours, 1e-9)

	// Days without paid orders expose no lead-time percentiles.
	assert.Nil(t, report.Days[3].LeadTimeP50Hours)
	assert.Nil(t, report.Days[3].LeadTimeP90Hours)
}

func TestService_Aggregate_LeadTimesGatedOnSchema(t *testing.T) {
	created := day(2)
	repo := &stubAnalyticsRepo{
		orders: []models.Order{
			{ID: 1, TotalCents: 1000, CreatedAt: created, CustomerType: enums.CustomerTypeIndividual, PaymentStatus: enums.PaymentStatusPaid},
		},
		paidAt: map[int64]time.Time{1: created.Add(5 * time.Hour)},
	}
	svc := newAnalyticsService(t, repo, stubCaps{events: false})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	report, err := svc.Aggregate(context.Background(), AggregateInput{From: &from, To: &to})
	require.NoError(t, err)
	assert.Nil(t, report.Days[1].LeadTimeP50Hours)
	assert.Nil(t, report.Days[1].LeadTimeP90Hours)
}
