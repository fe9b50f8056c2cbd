package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"prodl/internal/progress"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("prodl")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("%s • %s • q: quit", m.req.Mode, m.targetLabel()))
	return title + "\n" + sub
}

func (m Model) targetLabel() string {
	ext := strings.TrimPrefix(m.req.TargetExtension, ".")
	if m.req.ResolutionCap > 0 {
		return fmt.Sprintf("%s %dp@%d", ext, m.req.ResolutionCap, m.req.FrameRate)
	}
	return ext
}

func (m Model) viewJob() string {
	js := m.job
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata, progress.StageResolving:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading, progress.StageMerging:
		stageStyle = m.styles.StageDL
	case progress.StageTranscoding:
		stageStyle = m.styles.StageEnc
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(js.url, 60))
	stage := stageStyle.Render(js.stage.Label())

	var right string
	switch {
	case js.done && js.err == nil:
		right = m.styles.Success.Render("✓ done")
	case js.err != nil:
		right = m.styles.Error.Render("✗ error")
	case js.percent >= 0 && js.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
		if extra := js.transferLabel(); extra != "" {
			right += "  " + m.styles.Faint.Render(extra)
		}
	default:
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.JobInfo.Render(js.status)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (js *jobState) transferLabel() string {
	var parts []string
	if js.bytes > 0 {
		parts = append(parts, humanize.IBytes(uint64(js.bytes)))
	}
	if js.speed != "" {
		parts = append(parts, js.speed)
	}
	return strings.Join(parts, " • ")
}

func (m Model) viewFooter() string {
	js := m.job
	switch {
	case js.done && js.err == nil && js.outputPath != "":
		return m.styles.Success.Render("  • "+js.outputPath) + "\n"
	case js.done && js.err != nil && len(js.logsRing) > 0:
		// last collaborator line usually names the cause
		return m.styles.Faint.Render("  "+truncate(js.logsRing[len(js.logsRing)-1], 100)) + "\n"
	}
	return ""
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
