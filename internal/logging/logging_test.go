package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/streethall/hoa/internal/config"
)

func TestMaskSensitiveQuery(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"status=open":                      "status=open",
		"access_token=abcdefghijkl&page=2": "access_token=abcd...ijkl&page=2",
		"password=hunter22":                "password=hu...22",
	}
	for in, want := range cases {
		if got := MaskSensitiveQuery(in); got != want {
			t.Fatalf("MaskSensitiveQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)
	path := filepath.Join(t.TempDir(), "logs", "hoa.log")

	closer, errSetup := Setup(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	if errSetup != nil {
		t.Fatalf("setup: %v", errSetup)
	}
	log.Debug("poll launched")
	if errClose := closer.Close(); errClose != nil {
		t.Fatalf("close: %v", errClose)
	}

	raw, errRead := os.ReadFile(path)
	if errRead != nil {
		t.Fatalf("read log: %v", errRead)
	}
	if !strings.Contains(string(raw), "poll launched") {
		t.Fatalf("expected entry in log file, got %q", raw)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, errSetup := Setup(config.LoggingConfig{Level: "chatty"}); errSetup == nil {
		t.Fatalf("expected error for unknown level")
	}
}
