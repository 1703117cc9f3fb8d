package forecasting

import "context"

// Package forecasting provides resource usage forecasting and capacity planning.
//
// Responsibilities:
//   - Forecast future resource usage based on trends
//   - Predict when resources will exhaust
//   - Support multiple forecasting models (linear, seasonal)
//   - Provide confidence intervals for forecasts
//   - Enable capacity planning recommendations
//   - Forecast for various time horizons (1h, 1d, 1w, 1mo)
//
// Forecasting Models:
//
//   1. Linear Regression
//      - Fit straight line through historical data
//      - Suitable for: Monotonic trends, steady growth
//      - Formula: y = mx + b
//      - Extrapolate for future values
//
//   2. Seasonal Decomposition
//      - Separate trend, seasonal, and residual components
//      - Suitable for: Time-of-day patterns, weekly patterns
//      - Example: "CPU higher during business hours"
//      - Re-compose forecast with seasonal component
//
//   3. Exponential Smoothing
//      - Weight recent values more heavily
//      - Suitable for: Short-term forecasts with recent changes
//      - Adaptive to recent trends
//
//   4. Moving Average
//      - Average recent values to smooth noise
//      - Suitable for: Noisy metrics, short-term forecasts
//
// Forecast Output:
//   - Point estimate: Expected value at future time
//   - Confidence interval: Range of likely values (80%, 95%)
//   - Trend: Direction and rate of change
//   - Crossing prediction: When threshold will be crossed (e.g., memory exhaustion)
//
// Integration Points:
//   - Time-Series Engine: Query historical metric data
//   - Analytics Engine: Feed forecasts into scoring
//   - REST API: Forecasts endpoint for frontend display
//   - Recommendation Tools: Predict when scaling needed
//   - Cost Analysis: Forecast future costs

// Predictor defines the interface for forecasting operations.
type Predictor interface {
	// ForecastMetric predicts future value of metric.
	// horizon: duration like "1h", "1d", "1w", "30d"
	// Returns: point_estimate, confidence_interval (low, high), confidence_level
	ForecastMetric(ctx context.Context, resourceID string, metricName string, horizon string) (interface{}, error)

	// PredictThresholdCrossing predicts when metric will cross threshold.
	// threshold: value to cross
	// direction: "above" or "below"
	// Returns: predicted_time, confidence, is_imminent
	PredictThresholdCrossing(ctx context.Context, resourceID string, metricName string, threshold float64, direction string) (interface{}, error)

	// ForecastCapacityExhaustion predicts when resource capacity will exhaust.
	// resourceID: pod, node, or cluster ID
	// Returns: predicted_exhaustion_time, hours_remaining, recommended_action
	ForecastCapacityExhaustion(ctx context.Context, resourceID string) (interface{}, error)

	// AnalyzeTrend analyzes current trend and extrapolates.
	// Returns: trend_direction (up/down/flat), growth_rate, forecast_summary
	AnalyzeTrend(ctx context.Context, resourceID string, metricName string) (interface{}, error)

	// CompareForecastToCapacity compares forecast to resource limits.
	// Returns: will_exceed (bool), time_to_exhaustion, recommended_action
	CompareForecastToCapacity(ctx context.Context, resourceID string, metricName string, capacity float64, horizon string) (interface{}, error)

	// GetSeasonalPattern detects seasonal components in metric.
	// Returns: has_seasonality (bool), period, strength
	GetSeasonalPattern(ctx context.Context, resourceID string, metricName string) (interface{}, error)
}

// NewPredictor creates a new predictor with dependencies.
func NewPredictor() Predictor {
	// Initialize time-series query engine
	// Load historical data for baseline calculation
	// Set default forecast horizons
	return nil
}
