package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	corpusDir  string
	stateDir   string
	configPath string
	baseDir    string
}

// setupCLITestEnv builds a self-contained corpus with stub ffmpeg/ffprobe
// binaries so commands exercise the real decode plumbing end to end. The
// stubs emit five 8x8 RGB frames with showinfo pts lines on stderr and 400
// samples of silence for audio; clips named 9_9 fail to probe.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	corpusDir := filepath.Join(base, "corpus")
	stateDir := filepath.Join(base, "state")
	logDir := filepath.Join(base, "logs")
	binDir := filepath.Join(base, "bin")
	for _, dir := range []string{corpusDir, stateDir, logDir, binDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	for _, name := range []string{"1_0.mp4", "1_1.mp4", "2_0.mp4", "3_0.mp4"} {
		if err := os.WriteFile(filepath.Join(corpusDir, name), []byte("clip"), 0o644); err != nil {
			t.Fatalf("write clip %s: %v", name, err)
		}
	}

	ffmpegPath := filepath.Join(binDir, "ffmpeg")
	ffprobePath := filepath.Join(binDir, "ffprobe")
	writeStub(t, ffmpegPath, ffmpegStub)
	writeStub(t, ffprobePath, ffprobeStub)

	env := &cliTestEnv{
		corpusDir:  corpusDir,
		stateDir:   stateDir,
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
	}
	writeTestConfig(t, env, env.configPath, corpusDir)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv, path, corpusDir string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
corpus_dir = %q
state_dir = %q
log_dir = %q

[decode]
ffmpeg_binary = %q
ffprobe_binary = %q
sample_fps = 4
frame_size = 16
sample_rate = 16000
nominal_samples = 400
clip_extension = ".mp4"
timeout_seconds = 10

[batch]
size = 2
workers = 2
prefetch = 2
seed = 7

[logging]
format = "console"
level = "error"
`, corpusDir, env.stateDir, filepath.Join(env.baseDir, "logs"),
		filepath.Join(env.baseDir, "bin", "ffmpeg"),
		filepath.Join(env.baseDir, "bin", "ffprobe"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

const ffprobeStub = `#!/bin/sh
case "$*" in
*-version*)
  echo "ffprobe version 7.1.1-test"
  exit 0
  ;;
*9_9*)
  echo "corrupt container" >&2
  exit 1
  ;;
esac
cat <<'JSON'
{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 8, "height": 8,
     "avg_frame_rate": "4/1", "r_frame_rate": "4/1", "time_base": "1/100", "nb_frames": "5"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "16000", "channels": 1,
     "time_base": "1/16000"}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "duration": "1.250000", "size": "1024", "format_name": "mov,mp4,m4a"}
}
JSON
`

const ffmpegStub = `#!/bin/sh
case "$*" in
*-version*)
  echo "ffmpeg version 7.1.1-test"
  exit 0
  ;;
*"-f s16le"*)
  head -c 800 /dev/zero
  exit 0
  ;;
*showinfo*)
  n=0
  for pts in 0 25 50 75 100; do
    head -c 192 /dev/zero
    printf '[Parsed_showinfo_0 @ 0x55] n:%s pts:%s pts_time:0.0 duration:1\n' "$n" "$pts" >&2
    n=$((n+1))
  done
  exit 0
  ;;
esac
exit 0
`

func writeStub(t *testing.T, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}

func (env *cliTestEnv) addClip(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(env.corpusDir, name), []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip %s: %v", name, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
