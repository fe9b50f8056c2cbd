package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"prodl/internal/progress"
)

const maxLogLines = 200

type jobState struct {
	id     string
	url    string
	stage  progress.Stage
	status string
	speed  string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	logsRing []string
}

func newJobState(id, url string, styles Styles) jobState {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		id:      id,
		url:     url,
		stage:   progress.StageMetadata,
		status:  "Checking dependencies",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}

func (js *jobState) apply(u progress.Update) {
	if js.done {
		return
	}
	if u.Stage != js.stage {
		js.speed = ""
	}
	js.stage = u.Stage
	js.percent = u.Percent
	if u.Message != "" {
		js.status = u.Message
	}
	if u.Speed != nil {
		js.speed = *u.Speed
	}
	if u.Bytes != nil {
		js.bytes = *u.Bytes
	}
}

func (js *jobState) log(line string) {
	if len(js.logsRing) >= maxLogLines {
		js.logsRing = js.logsRing[1:]
	}
	js.logsRing = append(js.logsRing, line)
}
