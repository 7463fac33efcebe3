package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "Lyricist/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// putMetricDataAPI is the slice of the CloudWatch client we use
type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      putMetricDataAPI
	enabled     bool
	environment string
	async       bool
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
		async:       true,
	}, nil
}

// dispatch runs fn off the request path in production
func (m *Client) dispatch(fn func(ctx context.Context)) {
	if !m.enabled {
		return
	}
	if m.async {
		go fn(context.Background())
		return
	}
	fn(context.Background())
}

func (m *Client) dimensions(extra ...types.Dimension) []types.Dimension {
	return append(extra, types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.environment),
	})
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	m.dispatch(func(ctx context.Context) {
		// Determine if success or error
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions(types.Dimension{
			Name:  aws.String("Endpoint"),
			Value: aws.String(endpoint),
		})

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	})
}

// RecordTokenUsage records token usage of one generation call
func (m *Client) RecordTokenUsage(model string, totalTokens, inputTokens, outputTokens int) {
	m.dispatch(func(ctx context.Context) {
		dimensions := m.dimensions(types.Dimension{
			Name:  aws.String("Model"),
			Value: aws.String(model),
		})

		for name, value := range map[string]int{
			"Tokens/Total":  totalTokens,
			"Tokens/Input":  inputTokens,
			"Tokens/Output": outputTokens,
		} {
			if err := m.putMetric(ctx, name, float64(value), types.StandardUnitCount, dimensions); err != nil {
				log.Printf("Failed to record %s metric: %v", name, err)
			}
		}
	})
}

// RecordStage records the outcome of one pipeline stage: attempts made,
// whether the fallback model was used, and latency
func (m *Client) RecordStage(stage, model string, attempts int, usedFallback, success bool, duration time.Duration) {
	m.dispatch(func(ctx context.Context) {
		dimensions := m.dimensions(
			types.Dimension{Name: aws.String("Stage"), Value: aws.String(stage)},
			types.Dimension{Name: aws.String("Success"), Value: aws.String(boolToString(success))},
		)

		if err := m.putMetric(ctx, "StageAttempts", float64(attempts), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record StageAttempts metric: %v", err)
		}
		if usedFallback {
			fallbackDims := m.dimensions(
				types.Dimension{Name: aws.String("Stage"), Value: aws.String(stage)},
				types.Dimension{Name: aws.String("Model"), Value: aws.String(model)},
			)
			if err := m.putMetric(ctx, "StageFallbacks", 1, types.StandardUnitCount, fallbackDims); err != nil {
				log.Printf("Failed to record StageFallbacks metric: %v", err)
			}
		}
		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "StageLatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record StageLatency metric: %v", err)
		}
	})
}

// RecordReviewDegraded counts reviews that passed the draft through unchanged
func (m *Client) RecordReviewDegraded(model string) {
	m.dispatch(func(ctx context.Context) {
		dimensions := m.dimensions(types.Dimension{
			Name:  aws.String("Model"),
			Value: aws.String(model),
		})
		if err := m.putMetric(ctx, "ReviewDegraded", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record ReviewDegraded metric: %v", err)
		}
	})
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	ctx context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	// Create context with timeout for CloudWatch call
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
