// Package progress carries stage changes, log lines and the final result of a
// download job from the pipeline to whichever surface is watching it.
package progress

import "time"

// Stage identifies a high-level step in the pipeline.
type Stage string

const (
	StageMetadata    Stage = "metadata"
	StageResolving   Stage = "resolving"
	StageDownloading Stage = "downloading"
	StageMerging     Stage = "merging"
	StageTranscoding Stage = "transcoding"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
)

// Label is the short human form of a stage used in status lines.
func (s Stage) Label() string {
	switch s {
	case StageMetadata:
		return "Fetching info"
	case StageResolving:
		return "Resolving options"
	case StageDownloading:
		return "Downloading"
	case StageMerging:
		return "Merging streams"
	case StageTranscoding:
		return "Transcoding"
	case StageCompleted:
		return "Done"
	case StageError:
		return "Failed"
	default:
		return string(s)
	}
}

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known and negative when unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64

	ETA     *time.Duration // optional
	Bytes   *int64         // optional cumulative bytes
	Speed   *string        // optional, e.g. "2.5MiB/s" or "1.2x"
	Message string
}

// Log is a raw collaborator output line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}
