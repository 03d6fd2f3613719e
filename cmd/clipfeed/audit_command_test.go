package main

import (
	"strings"
	"testing"
)

func TestAuditSweepRecordsOutcomes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addClip(t, "9_9.mp4")

	out, _, err := runCLI(t, []string{"audit"}, env.configPath)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "finished in")
	requireContains(t, out, "[ERROR] 1")
	requireContains(t, out, "9_9.mp4")

	history, _, err := runCLI(t, []string{"audit", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("audit history: %v", err)
	}
	requireContains(t, history, "Started")
	requireContains(t, history, shortIDFromSweep(t, out))

	problems, _, err := runCLI(t, []string{"audit", "problems"}, env.configPath)
	if err != nil {
		t.Fatalf("audit problems: %v", err)
	}
	requireContains(t, problems, "9_9.mp4")
	requireContains(t, problems, "failed")
}

func TestAuditHistoryEmptyDatabase(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"audit", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("audit history: %v", err)
	}
	requireContains(t, out, "No audit runs recorded")
}

func TestAuditCleanCorpusHasNoProblems(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"audit", "run"}, env.configPath)
	if err != nil {
		t.Fatalf("audit run: %v", err)
	}
	requireContains(t, out, "[OK] 0")
	if strings.Contains(out, "Use `clipfeed audit problems`") {
		t.Fatalf("expected no problems table on a clean corpus, got %q", out)
	}

	problems, _, err := runCLI(t, []string{"audit", "problems"}, env.configPath)
	if err != nil {
		t.Fatalf("audit problems: %v", err)
	}
	requireContains(t, problems, "No problem clips")
}

func shortIDFromSweep(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "Audit "); ok {
			id, _, found := strings.Cut(rest, " ")
			if found && id != "" {
				return id
			}
		}
	}
	t.Fatalf("no sweep summary line in %q", out)
	return ""
}
