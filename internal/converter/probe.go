package converter

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"mediascribe/pkg/binaries"
	"mediascribe/pkg/logger"
)

// ProbeDuration reads a media file's duration in seconds via ffprobe. This
// backs the Worker's PROBE stage (§4.3 step 2): a missing duration is
// tolerated by the caller (set to 0), not treated as fatal here.
func ProbeDuration(ctx context.Context, mediaPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, binaries.FFprobe(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		logger.Warn("ffprobe duration read failed", "path", mediaPath, "error", err)
		return 0, err
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		logger.Warn("ffprobe returned unparseable duration", "path", mediaPath, "raw", out.String())
		return 0, err
	}
	return duration, nil
}
