package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"prodl/internal/model"
)

// Run shows the progress TUI while one download runs and returns the job's
// error, if any.
func Run(ctx context.Context, req model.DownloadRequest, opts model.CLIOptions) error {
	m := NewModel(ctx, req, opts)
	defer m.cancel()
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(Model); ok && fm.job.err != nil {
		return fm.job.err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
