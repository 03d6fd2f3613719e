package main

import (
	"path/filepath"
	"testing"
)

func TestProbeRendersStreamSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := filepath.Join(env.corpusDir, "1_0.mp4")

	out, _, err := runCLI(t, []string{"probe", clip}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "mov,mp4,m4a")
	requireContains(t, out, "1,024 bytes")
	requireContains(t, out, "h264")
	requireContains(t, out, "8x8 @ 4.00 fps")
	requireContains(t, out, "16000 Hz, 1 ch")
	requireContains(t, out, "1/100")
}

func TestProbeFailsOnUnreadableClip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addClip(t, "9_9.mp4")
	clip := filepath.Join(env.corpusDir, "9_9.mp4")

	if _, _, err := runCLI(t, []string{"probe", clip}, env.configPath); err == nil {
		t.Fatal("expected probe to fail on a corrupt clip")
	}
}
