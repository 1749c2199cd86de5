package binaries

import "os"

func resolve(envKey, fallback string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return fallback
}

// FFmpeg returns the configured ffmpeg executable path.
func FFmpeg() string {
	return resolve("FFMPEG_PATH", "ffmpeg")
}

// FFprobe returns the configured ffprobe executable path.
func FFprobe() string {
	return resolve("FFPROBE_PATH", "ffprobe")
}
