package encoder

import "prodl/internal/resolver"

// BuildArgs wraps the resolved transcode arguments into a full ffmpeg
// invocation: -y -i <input> <args> [-progress pipe:1 -nostats] <output>.
func BuildArgs(input string, r resolver.Resolved, output string, includeProgress bool) []string {
	args := make([]string, 0, len(r.TranscodeArgs)+7)
	args = append(args, "-y", "-i", input)
	args = append(args, r.TranscodeArgs...)
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, output)
}
