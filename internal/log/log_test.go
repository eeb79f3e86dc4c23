package log

import (
	"context"
	"testing"

	"github.com/suvtekin/auto-bot/config"
)

func TestContextLogger(t *testing.T) {
	InitLogger(&config.Config{LogLevel: "debug"})

	if FromContext(context.Background()) != GetLogger() {
		t.Error("empty context should fall back to the global logger")
	}

	scoped := GetLogger().WithField("correlation_id", "abc")
	ctx := NewContext(context.Background(), scoped)
	got := FromContext(ctx)
	if got.Data["correlation_id"] != "abc" {
		t.Errorf("fields = %v", got.Data)
	}
	if _, ok := got.Data["TraceId"]; !ok {
		t.Error("scoped logger lost TraceId")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if lvl := parseLevel("loud"); lvl.String() != "info" {
		t.Errorf("level = %s", lvl)
	}
}
