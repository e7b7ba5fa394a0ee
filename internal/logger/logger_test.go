package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"defaults", "", "", logrus.InfoLevel, false},
		{"debug json", "debug", "JSON", logrus.DebugLevel, true},
		{"bad level falls back", "loud", "text", logrus.InfoLevel, false},
		{"warn", "warn", "", logrus.WarnLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.level, tt.format)
			if l.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v; want %v", l.GetLevel(), tt.wantLevel)
			}
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("json formatter = %v; want %v", isJSON, tt.wantJSON)
			}
		})
	}
}

func TestGetLogger_Shared(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Fatal("GetLogger should return the same instance")
	}
}
