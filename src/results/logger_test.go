package results

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	saved := baseLogger.Load()
	SetLogger(zap.New(core))
	t.Cleanup(func() { baseLogger.Store(saved) })
	return logs
}

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	logs := captureLogs(t)
	SetLogLevel("info")

	msg := "[waning_vs_not] scenario done runs=3 immunity=(100.0% of pop) peak=1250 day=48"
	logInfo := Infof
	logInfo(msg)

	all := logs.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	out := all[0].Message
	if !strings.Contains(out, "(100.0% of pop)") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!o(MISSING)") || strings.Contains(out, "%!f(MISSING)") {
		t.Fatalf("log output still shows fmt artifact: %s", out)
	}
}

func TestSetLogLevelFiltersBelowThreshold(t *testing.T) {
	logs := captureLogs(t)
	SetLogLevel("warn")
	defer SetLogLevel("info")

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	all := logs.All()
	if len(all) != 2 {
		t.Fatalf("expected warn+error only, got %d entries", len(all))
	}
	if all[0].Level != zapcore.WarnLevel || all[0].Message != "warn 3" {
		t.Fatalf("unexpected first entry: %+v", all[0].Entry)
	}
	if all[1].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected second level: %v", all[1].Level)
	}
}

func TestSetLogLevelIgnoresUnknown(t *testing.T) {
	SetLogLevel("debug")
	SetLogLevel("verbose")
	if GetLogLevel() != LevelDebug {
		t.Fatalf("unknown level changed state: %v", GetLogLevel())
	}
	SetLogLevel(" Warning ")
	if GetLogLevel() != LevelWarn {
		t.Fatalf("expected warn, got %v", GetLogLevel())
	}
	SetLogLevel("info")
}
