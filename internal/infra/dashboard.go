package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/variant"
)

const dashboardIntro = `# SOCI vs Non-SOCI Performance Comparison

This dashboard compares performance metrics between container deployments with and without SOCI enabled.
* **SOCI Service** (blue): Container using Seekable OCI (SOCI)
* **Non-SOCI Service** (orange): Standard container deployment`

// Dashboard only declares queries; CloudWatch evaluates them at view time.
type Dashboard struct {
	Dashboard   awscloudwatch.Dashboard
	PullTime    map[variant.Variant]awscloudwatch.Metric
	Improvement awscloudwatch.MathExpression
}

// ServiceDimensions lists the ServiceName values the dashboard queries,
// fast-start first.
func (d *Dashboard) ServiceDimensions() []string {
	var dims []string
	for _, v := range variant.Variants() {
		if _, ok := d.PullTime[v]; ok {
			dims = append(dims, v.ServiceName())
		}
	}
	return dims
}

func pullTimeMetric(v variant.Variant) awscloudwatch.Metric {
	return awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
		Namespace:  jsii.String(contract.MetricNamespace),
		MetricName: jsii.String(contract.MetricImagePullTime),
		DimensionsMap: &map[string]*string{
			contract.DimensionService: jsii.String(v.ServiceName()),
		},
		Statistic: jsii.String("Average"),
		Label:     jsii.String(v.Label() + " Image Pull Time"),
	})
}

func newDashboard(scope constructs.Construct, name string) *Dashboard {
	period := awscdk.Duration_Minutes(jsii.Number(contract.DashboardPeriod.Minutes()))

	dash := awscloudwatch.NewDashboard(scope, jsii.String("OllamaPerformanceComparisonDashboard"), &awscloudwatch.DashboardProps{
		DashboardName: jsii.String(name),
	})
	dash.AddWidgets(awscloudwatch.NewTextWidget(&awscloudwatch.TextWidgetProps{
		Markdown: jsii.String(dashboardIntro),
		Width:    jsii.Number(24),
		Height:   jsii.Number(3),
	}))

	fast, baseline := pullTimeMetric(variant.FastStart), pullTimeMetric(variant.Baseline)

	pullTime := awscloudwatch.NewGraphWidget(&awscloudwatch.GraphWidgetProps{
		Title:          jsii.String("Image Pull Time Comparison"),
		Left:           &[]awscloudwatch.IMetric{fast, baseline},
		Width:          jsii.Number(24),
		Height:         jsii.Number(6),
		LegendPosition: awscloudwatch.LegendPosition_RIGHT,
		Period:         period,
		View:           awscloudwatch.GraphWidgetView_BAR,
		Stacked:        jsii.Bool(false),
		LeftYAxis: &awscloudwatch.YAxisProps{
			ShowUnits: jsii.Bool(true),
			Label:     jsii.String("Seconds"),
		},
	})

	improvement := awscloudwatch.NewMathExpression(&awscloudwatch.MathExpressionProps{
		Expression: jsii.String(variant.ImprovementExpression),
		Label:      jsii.String("Performance Improvement (%)"),
		UsingMetrics: &map[string]awscloudwatch.IMetric{
			variant.FastStartMetricID: fast,
			variant.BaselineMetricID:  baseline,
		},
		Period: period,
	})
	summary := awscloudwatch.NewSingleValueWidget(&awscloudwatch.SingleValueWidgetProps{
		Title:     jsii.String("Overall Performance Improvement with SOCI"),
		Metrics:   &[]awscloudwatch.IMetric{improvement},
		Width:     jsii.Number(24),
		Height:    jsii.Number(3),
		Sparkline: jsii.Bool(false),
	})

	dash.AddWidgets(pullTime, summary)

	return &Dashboard{
		Dashboard: dash,
		PullTime: map[variant.Variant]awscloudwatch.Metric{
			variant.FastStart: fast,
			variant.Baseline:  baseline,
		},
		Improvement: improvement,
	}
}
