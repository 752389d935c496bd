package logger_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/howufeel/howufeel/config"
	logger "github.com/howufeel/howufeel/middleware/log"
)

// Example_basicUsage demonstrates basic logger usage
func Example_basicUsage() {
	// Create logger from configuration
	cfg := &config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Log messages at different levels
	log.Debug("This is a debug message")
	log.Info("Application started")
	log.Warn("This is a warning")
	log.Error("An error occurred", zap.Error(fmt.Errorf("example error")))
}

// Example_withTraceID demonstrates trace ID usage
func Example_withTraceID() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Generate a new trace ID
	traceID := logger.NewTraceID()

	// Create logger with trace ID
	logWithTrace := log.WithTraceID(traceID)
	logWithTrace.Info("Processing request")
	logWithTrace.Info("Request completed")
}

// Example_contextAware demonstrates context-aware logging
func Example_contextAware() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Create context with trace ID
	ctx := logger.WithTraceID(context.Background(), "trace-123")

	// Log with context - trace ID is automatically included
	log.InfoContext(ctx, "User logged in",
		zap.Uint("user_id", 123),
		zap.String("ip", "192.168.1.1"))

	log.InfoContext(ctx, "User action performed",
		zap.String("action", "create_group"))
}

// Example_structuredFields demonstrates structured logging
func Example_structuredFields() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Log with structured fields
	log.Info("Rating submitted",
		zap.Uint("rating_id", 123),
		zap.Uint("user_id", 456),
		zap.Uint("group_id", 789),
		zap.Int("value", 8),
		zap.Duration("latency", 50))
}

// Example_persistentFields demonstrates creating a logger with persistent fields
func Example_persistentFields() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Create a logger with persistent fields for a specific user
	userLog := log.WithFields(
		zap.Uint("user_id", 123),
		zap.String("session_id", "session456"))

	// All subsequent logs will include these fields
	userLog.Info("User action: login")
	userLog.Info("User action: create group")
	userLog.Info("User action: submit rating")
}

// Example_httpMiddleware demonstrates logger usage in HTTP middleware
func Example_httpMiddleware() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Simulate HTTP request handling
	ctx := context.Background()

	// Generate trace ID for the request
	traceID := logger.NewTraceID()
	ctx = logger.WithTraceID(ctx, traceID)

	// Log request start
	log.InfoContext(ctx, "Request received",
		zap.String("method", "POST"),
		zap.String("path", "/api/v1/ratings"))

	// Process request...

	// Log request completion
	log.InfoContext(ctx, "Request completed",
		zap.Int("status", 200),
		zap.Duration("latency", 45))
}

// Example_errorHandling demonstrates error logging
func Example_errorHandling() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	ctx := logger.WithTraceID(context.Background(), "trace-456")

	// Simulate an error
	err := fmt.Errorf("database connection failed")

	// Log error with context
	log.ErrorContext(ctx, "Failed to save rating",
		zap.Error(err),
		zap.Uint("user_id", 123),
		zap.Uint("group_id", 456),
		zap.String("operation", "insert"))
}

// Example_serviceLayer demonstrates logger usage in service layer
func Example_serviceLayer() {
	log, _ := logger.NewDevelopmentLogger()
	defer log.Sync()

	// Create a service-specific logger
	analyticsLog := log.WithFields(zap.String("service", "analytics"))

	ctx := logger.WithTraceID(context.Background(), "trace-789")

	// Log service operations
	analyticsLog.InfoContext(ctx, "Personal analytics requested",
		zap.Uint("user_id", 123))

	// Simulate validation
	analyticsLog.DebugContext(ctx, "Validating date range")

	// Simulate success
	analyticsLog.InfoContext(ctx, "Analytics computed",
		zap.Int("rating_count", 14))
}
