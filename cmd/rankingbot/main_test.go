package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/preston-bernstein/ranking-bot/internal/providers"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// Smoke test to ensure serve honors SKIP_SERVER_RUN and does not block test runs.
func TestServeSkipsWhenEnvSet(t *testing.T) {
	t.Setenv("SKIP_SERVER_RUN", "1")
	if _, err := execute(t, "serve"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchFixtureFrame(t *testing.T) {
	t.Setenv("FIXTURE_PATH", "")
	out, err := execute(t, "fetch", "--fixture", "--frame", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got fetchOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(got.Standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(got.Standings))
	}
	if got.Standings[0].Rank != 1 {
		t.Fatalf("expected first standing ranked 1, got %d", got.Standings[0].Rank)
	}
}

func TestFetchFixtureBeforeRound(t *testing.T) {
	t.Setenv("FIXTURE_PATH", "")
	_, err := execute(t, "fetch", "--fixture")
	if !errors.Is(err, providers.ErrNoEventRunning) {
		t.Fatalf("expected no event error, got %v", err)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, err := execute(t, "bogus"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
