package preflight

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// BinaryVersion reports the first line of `binary -version` output, or an
// empty string when the binary cannot be executed.
func BinaryVersion(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ""
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(checkCtx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line)
}
