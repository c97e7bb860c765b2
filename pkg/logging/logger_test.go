package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/steemit/tweetstore/pkg/config"
)

func newTestLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		MessageKey:    "message",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(NewScalyrEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"scalyr", config.LoggingConfig{Level: "INFO", Format: "json", ScalyrFormat: true}},
		{"json", config.LoggingConfig{Level: "debug", Format: "json"}},
		{"text", config.LoggingConfig{Level: "WARN", Format: "text"}},
		{"bad level", config.LoggingConfig{Level: "loud", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := SetLogger(nil)
			defer restore()

			if err := InitLogger(&tt.cfg); err != nil {
				t.Fatalf("Failed to initialize logger: %v", err)
			}
			if Logger == nil {
				t.Fatal("Expected logger to be set")
			}
		})
	}
}

func TestScalyrEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("test message",
		zap.String("key", "value"),
		zap.Int("posts", 3),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Error(errors.New("boom")))

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logObj["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", logObj["message"])
	}
	if logObj["key"] != "value" {
		t.Errorf("Expected field 'key'='value', got: %v", logObj["key"])
	}
	if logObj["posts"] != float64(3) {
		t.Errorf("Expected field 'posts'=3, got: %v", logObj["posts"])
	}
	if logObj["took"] != "1.5s" {
		t.Errorf("Expected field 'took'='1.5s', got: %v", logObj["took"])
	}
	if logObj["error"] != "boom" {
		t.Errorf("Expected field 'error'='boom', got: %v", logObj["error"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestScalyrEncoderKeepsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(zap.String("component", "post-store"))

	logger.Debug("Inserted post", zap.String("id", "a"))

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logObj["component"] != "post-store" {
		t.Errorf("Expected context field 'component', got: %v", logObj["component"])
	}
	if logObj["id"] != "a" {
		t.Errorf("Expected field 'id'='a', got: %v", logObj["id"])
	}
}

func TestSetLoggerRestores(t *testing.T) {
	original := GetLogger()
	restore := SetLogger(zap.NewNop())
	if Logger == original {
		t.Error("Expected SetLogger to replace the global logger")
	}
	restore()
	if Logger != original {
		t.Error("Expected restore to bring back the previous logger")
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := WithTraceID(WithRequestID(newTestLogger(&buf), "req-1"), "trace-1")

	logger.Warn("JSON-RPC error")

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logObj["request_id"] != "req-1" {
		t.Errorf("Expected 'request_id'='req-1', got: %v", logObj["request_id"])
	}
	if logObj["trace_id"] != "trace-1" {
		t.Errorf("Expected 'trace_id'='trace-1', got: %v", logObj["trace_id"])
	}
}
