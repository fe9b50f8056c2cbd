package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"prodl/internal/model"
	"prodl/internal/pipeline"
	"prodl/internal/progress"
	"prodl/internal/util/deps"
)

// Model shows a single download job.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	req  model.DownloadRequest
	opts model.CLIOptions

	depsChecked    bool
	depsErr        error
	downloaderPath string
	ffmpegPath     string

	job    *jobState
	result pipeline.Result

	width  int
	styles Styles

	// reporter events are fed back into the program through eventCh
	eventCh chan tea.Msg

	findDeps func(model.CLIOptions) depsCheckedMsg
	start    func(m Model) tea.Cmd
}

func NewModel(ctx context.Context, req model.DownloadRequest, opts model.CLIOptions) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()
	js := newJobState("", req.URL, sty)
	// subprocess output would corrupt the screen; logs arrive via the reporter
	opts.Verbose = false
	return Model{
		ctx:      c,
		cancel:   cancel,
		req:      req,
		opts:     opts,
		job:      &js,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
		findDeps: checkDeps,
		start:    startJob,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.job.spinner.Tick, m.listenEventsCmd(), m.checkDepsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			if !m.job.done {
				m.job.done = true
				m.job.err = context.Canceled
				m.job.stage = progress.StageError
				m.job.status = "Canceled"
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 && w < 80 {
			m.job.bar.Width = w
		}

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.downloaderPath = msg.DownloaderPath
		m.ffmpegPath = msg.FFmpegPath
		if m.depsErr != nil {
			m.job.stage = progress.StageError
			m.job.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
			m.job.err = m.depsErr
			m.job.done = true
			return m, tea.Quit
		}
		m.job.status = progress.StageMetadata.Label()
		return m, m.start(m)

	case jobUpdateMsg:
		m.job.apply(msg.U)
		return m, m.listenEventsCmd()

	case jobLogMsg:
		m.job.log(strings.TrimRight(msg.L.Line, "\r\n"))
		return m, m.listenEventsCmd()

	case jobResultMsg:
		m.finish(msg.R)
		return m, tea.Quit

	case canceledMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.job.spinner, cmd = m.job.spinner.Update(msg)
	return m, cmd
}

func (m *Model) finish(r progress.Result) {
	js := m.job
	js.done = true
	js.err = r.Err
	if r.Err != nil {
		js.stage = progress.StageError
		js.status = r.Err.Error()
		js.percent = -1
		return
	}
	js.stage = progress.StageCompleted
	js.percent = 100
	js.outputPath = r.OutputPath
	js.bytes = r.Bytes
	name := filepath.Base(r.OutputPath)
	if m.opts.DryRun {
		js.status = fmt.Sprintf("Planned: %s (dry-run)", name)
	} else {
		js.status = fmt.Sprintf("Saved: %s (%s)", name, humanize.IBytes(uint64(r.Bytes)))
	}
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewJob() + "\n" + m.viewFooter()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return canceledMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		return m.findDeps(m.opts)
	}
}

func checkDeps(opts model.CLIOptions) depsCheckedMsg {
	dl, err := deps.FindDownloader(opts.DLBinary)
	if err != nil {
		return depsCheckedMsg{Err: err}
	}
	if opts.DryRun {
		return depsCheckedMsg{DownloaderPath: dl}
	}
	ff, err := deps.FindFFmpeg(opts.FFmpegBinary)
	if err != nil {
		return depsCheckedMsg{Err: err}
	}
	return depsCheckedMsg{DownloaderPath: dl, FFmpegPath: ff}
}

// startJob runs the pipeline in the background; its reporter events and the
// final Result come back through eventCh. The returned command is nil.
func startJob(m Model) tea.Cmd {
	rep := teaReporter{ch: m.eventCh, done: m.ctx.Done()}
	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(m.downloaderPath),
		pipeline.WithFFmpegPath(m.ffmpegPath),
		pipeline.WithCLIOptions(m.opts),
		pipeline.WithReporter(rep),
	)
	m.job.id = svc.JobID()
	go func() {
		_, _ = svc.RunJob(m.ctx, m.req)
	}()
	return nil
}

type teaReporter struct {
	ch   chan tea.Msg
	done <-chan struct{}
}

// Update drops intermediate updates when the UI falls behind; terminal
// stages are always delivered.
func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.done:
	}
}
