// Package metrics publishes the cold-start metric from inside a task and
// reads both sides of the comparison back for reporting.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/logger"
	"fargatesoci/internal/variant"
)

var (
	metricsLogger = logger.PackageLogger("📈 METRICS")

	ErrNoData = errors.New("no image pull time datapoints")
)

// API is the part of the CloudWatch client used here.
type API interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
	GetMetricData(ctx context.Context, in *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

func serviceDimension(serviceName string) []types.Dimension {
	return []types.Dimension{{
		Name:  aws.String(contract.DimensionService),
		Value: aws.String(serviceName),
	}}
}

type Publisher struct {
	API API
	Now func() time.Time
}

func NewPublisher(api API) *Publisher {
	return &Publisher{API: api, Now: time.Now}
}

// ImagePullTime records d, in seconds, for serviceName.
func (p *Publisher) ImagePullTime(ctx context.Context, serviceName string, d time.Duration) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	_, err := p.API.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(contract.MetricNamespace),
		MetricData: []types.MetricDatum{{
			MetricName: aws.String(contract.MetricImagePullTime),
			Value:      aws.Float64(d.Seconds()),
			Unit:       types.StandardUnitSeconds,
			Timestamp:  aws.Time(now()),
			Dimensions: serviceDimension(serviceName),
		}},
	})
	if err != nil {
		return fmt.Errorf("publish %s for %s: %w", contract.MetricImagePullTime, serviceName, err)
	}
	metricsLogger.Info("Published metric %s: %.2f", contract.MetricImagePullTime, d.Seconds())
	return nil
}

// Comparison is the outcome of one report window.
type Comparison struct {
	Baseline    float64
	FastStart   float64
	Improvement float64
	Samples     map[variant.Variant]int
}

type Reporter struct {
	API API
	Now func() time.Time
}

func NewReporter(api API) *Reporter {
	return &Reporter{API: api, Now: time.Now}
}

func metricID(v variant.Variant) string {
	if v.FastStart() {
		return variant.FastStartMetricID
	}
	return variant.BaselineMetricID
}

// Compare averages each side's ImagePullTime over every dashboard period in
// the last window and applies the dashboard's improvement formula to those
// averages. The dashboard widget shows only the latest period.
func (r *Reporter) Compare(ctx context.Context, window time.Duration) (Comparison, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	end := now()
	in := &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(end.Add(-window)),
		EndTime:   aws.Time(end),
	}
	for _, v := range variant.Variants() {
		in.MetricDataQueries = append(in.MetricDataQueries, types.MetricDataQuery{
			Id: aws.String(metricID(v)),
			MetricStat: &types.MetricStat{
				Metric: &types.Metric{
					Namespace:  aws.String(contract.MetricNamespace),
					MetricName: aws.String(contract.MetricImagePullTime),
					Dimensions: serviceDimension(v.ServiceName()),
				},
				Period: aws.Int32(int32(contract.DashboardPeriod.Seconds())),
				Stat:   aws.String("Average"),
			},
			ReturnData: aws.Bool(true),
		})
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	pages := cloudwatch.NewGetMetricDataPaginator(r.API, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return Comparison{}, fmt.Errorf("get metric data: %w", err)
		}
		for _, res := range page.MetricDataResults {
			id := aws.ToString(res.Id)
			for _, v := range res.Values {
				sums[id] += v
				counts[id]++
			}
		}
	}

	c := Comparison{Samples: map[variant.Variant]int{}}
	for _, v := range variant.Variants() {
		id := metricID(v)
		c.Samples[v] = counts[id]
		if counts[id] == 0 {
			return c, fmt.Errorf("%w for %s in the last %s", ErrNoData, v.ServiceName(), window)
		}
		avg := sums[id] / float64(counts[id])
		if v.FastStart() {
			c.FastStart = avg
		} else {
			c.Baseline = avg
		}
	}
	c.Improvement = variant.Improvement(c.Baseline, c.FastStart)
	metricsLogger.Debug("baseline %.2fs, fast-start %.2fs, improvement %.1f%%", c.Baseline, c.FastStart, c.Improvement)
	return c, nil
}
