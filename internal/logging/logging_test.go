package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "JSON format to stdout",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "Console format to stderr",
			config: Config{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:   "Invalid log level defaults to info",
			config: Config{Level: "invalid", Format: "json", Output: "stdout"},
		},
		{
			name:    "Unwritable file path",
			config:  Config{Level: "info", Format: "json", Output: filepath.Join("no", "such", "dir", "app.log")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Expected message in log file, got %q", data)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	buf.Reset()
	return entry
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.DebugLevel)

	logger.WithCreatorID("creator-1").WithContentID("content-1").Info("scored")
	entry := decodeLine(t, &buf)
	if entry["creator_id"] != "creator-1" || entry["content_id"] != "content-1" {
		t.Errorf("Expected creator and content ids, got %v", entry)
	}
	if entry["message"] != "scored" {
		t.Errorf("Expected message scored, got %v", entry["message"])
	}

	logger.WithError(errors.New("boom")).Error("failed")
	entry = decodeLine(t, &buf)
	if entry["error"] != "boom" || entry["level"] != "error" {
		t.Errorf("Expected error entry, got %v", entry)
	}

	logger.WithFields(map[string]interface{}{"tier_id": "t1", "count": 3}).Debug("fields")
	entry = decodeLine(t, &buf)
	if entry["tier_id"] != "t1" || entry["count"] != float64(3) {
		t.Errorf("Expected fields, got %v", entry)
	}
}

func TestLogHTTPRequestLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	logger.LogHTTPRequest("GET", "/api/v1/content/1", "127.0.0.1", 200, 5*time.Millisecond)
	entry := decodeLine(t, &buf)
	if entry["level"] != "info" || entry["status_code"] != float64(200) {
		t.Errorf("Unexpected entry %v", entry)
	}

	logger.LogHTTPRequest("GET", "/api/v1/content/1", "127.0.0.1", 502, 5*time.Millisecond)
	entry = decodeLine(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("Expected error level for 5xx, got %v", entry["level"])
	}
}

func TestLogPayout(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	logger.LogPayout("creator-1", 70, 0.75, 7.5)
	entry := decodeLine(t, &buf)
	if entry["amount"] != 7.5 || entry["performance_score"] != 0.75 {
		t.Errorf("Unexpected payout entry %v", entry)
	}
}

func TestNopLogger(t *testing.T) {
	logger := Nop()
	logger.Info("discarded")
	logger.WithUserID("u1").Error("discarded")
}
