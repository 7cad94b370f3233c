package metrics_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"fargatesoci/internal/metrics"
	"fargatesoci/internal/variant"
)

type fakeCloudWatch struct {
	puts    []*cloudwatch.PutMetricDataInput
	putErr  error
	pages   []*cloudwatch.GetMetricDataOutput
	queries []*cloudwatch.GetMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) GetMetricData(_ context.Context, in *cloudwatch.GetMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error) {
	f.queries = append(f.queries, in)
	page := f.pages[len(f.queries)-1]
	return page, nil
}

func result(id string, values ...float64) types.MetricDataResult {
	return types.MetricDataResult{Id: aws.String(id), Values: values}
}

func TestPublisherImagePullTime(t *testing.T) {
	fake := &fakeCloudWatch{}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &metrics.Publisher{API: fake, Now: func() time.Time { return at }}

	if err := p.ImagePullTime(context.Background(), "SociService", 2500*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("want 1 put, got %d", len(fake.puts))
	}
	in := fake.puts[0]
	if aws.ToString(in.Namespace) != "SOCI/Performance/v1" {
		t.Errorf("unexpected namespace %q", aws.ToString(in.Namespace))
	}
	d := in.MetricData[0]
	if aws.ToString(d.MetricName) != "ImagePullTime" || aws.ToFloat64(d.Value) != 2.5 || d.Unit != types.StandardUnitSeconds {
		t.Errorf("unexpected datum %+v", d)
	}
	if !aws.ToTime(d.Timestamp).Equal(at) {
		t.Errorf("unexpected timestamp %s", aws.ToTime(d.Timestamp))
	}
	if len(d.Dimensions) != 1 || aws.ToString(d.Dimensions[0].Name) != "ServiceName" || aws.ToString(d.Dimensions[0].Value) != "SociService" {
		t.Errorf("unexpected dimensions %+v", d.Dimensions)
	}
}

func TestPublisherWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	p := metrics.NewPublisher(&fakeCloudWatch{putErr: boom})
	if err := p.ImagePullTime(context.Background(), "NonSociService", time.Second); !errors.Is(err, boom) {
		t.Errorf("want wrapped error, got %v", err)
	}
}

func TestReporterCompare(t *testing.T) {
	type When struct{ Pages []*cloudwatch.GetMetricDataOutput }
	type Then struct {
		Baseline, FastStart, Improvement float64
		Err                              error
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			fake := &fakeCloudWatch{pages: when.Pages}
			end := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			r := &metrics.Reporter{API: fake, Now: func() time.Time { return end }}

			got, err := r.Compare(context.Background(), time.Hour)
			if !errors.Is(err, then.Err) {
				t.Fatalf("want error %v, got %v", then.Err, err)
			}
			if err != nil {
				return
			}
			if got.Baseline != then.Baseline || got.FastStart != then.FastStart {
				t.Errorf("want %v/%v, got %v/%v", then.Baseline, then.FastStart, got.Baseline, got.FastStart)
			}
			if math.Abs(got.Improvement-then.Improvement) > 1e-9 {
				t.Errorf("want improvement %v, got %v", then.Improvement, got.Improvement)
			}

			q := fake.queries[0]
			if !aws.ToTime(q.StartTime).Equal(end.Add(-time.Hour)) || !aws.ToTime(q.EndTime).Equal(end) {
				t.Errorf("unexpected window %s..%s", aws.ToTime(q.StartTime), aws.ToTime(q.EndTime))
			}
			services := map[string]string{}
			for _, mq := range q.MetricDataQueries {
				services[aws.ToString(mq.Id)] = aws.ToString(mq.MetricStat.Metric.Dimensions[0].Value)
			}
			if services[variant.FastStartMetricID] != "SociService" || services[variant.BaselineMetricID] != "NonSociService" {
				t.Errorf("unexpected queries %v", services)
			}
		}
	}

	t.Run("single page", theory(
		When{Pages: []*cloudwatch.GetMetricDataOutput{{
			MetricDataResults: []types.MetricDataResult{result("m1", 4), result("m2", 10)},
		}}},
		Then{Baseline: 10, FastStart: 4, Improvement: 60},
	))
	t.Run("averaged across pages", theory(
		When{Pages: []*cloudwatch.GetMetricDataOutput{
			{
				MetricDataResults: []types.MetricDataResult{result("m1", 6), result("m2", 4)},
				NextToken:         aws.String("more"),
			},
			{
				MetricDataResults: []types.MetricDataResult{result("m1", 8), result("m2", 6)},
			},
		}},
		Then{Baseline: 5, FastStart: 7, Improvement: -40},
	))
	t.Run("baseline missing", theory(
		When{Pages: []*cloudwatch.GetMetricDataOutput{{
			MetricDataResults: []types.MetricDataResult{result("m1", 4), result("m2")},
		}}},
		Then{Err: metrics.ErrNoData},
	))
}
