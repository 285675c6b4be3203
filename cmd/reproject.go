package cmd

import (
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/rasterproj/batch"
	"github.com/lepinkainen/rasterproj/logging"
	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/types"
	"github.com/lepinkainen/rasterproj/ui"
	"github.com/lepinkainen/rasterproj/utils"
)

// ErrJobsFailed is returned when a batch finished with failed jobs
var ErrJobsFailed = errors.New("some files failed to reproject")

// eventBuffer lets the worker run a few events ahead of the TUI
const eventBuffer = 64

type ReprojectCmd struct {
	TargetFlags `embed:""`

	Files      []string `arg:"" name:"inputs" help:"GeoTIFF files or directories to reproject" type:"path"`
	OutputDir  string   `short:"o" name:"output-dir" help:"Directory for reprojected files (default from config)" type:"path"`
	Resampling string   `short:"r" help:"Resampling method: ${methods} (default from config)"`
	DryRun     bool     `help:"Plan every file without writing outputs"`
	NoTUI      bool     `name:"no-tui" help:"Print plain progress lines instead of the interactive view"`
	Verbose    bool     `short:"v" help:"Show per-band progress"`
}

func (cmd *ReprojectCmd) Run(appCtx *types.AppContext) error {
	log := appCtx.Log()

	method, err := cmd.method(appCtx)
	if err != nil {
		return err
	}
	outputDir := cmd.OutputDir
	if outputDir == "" && appCtx != nil {
		outputDir = appCtx.Config.OutputDir
	}
	if outputDir == "" {
		return errors.New("no output directory: pass --output-dir or set output_dir in the config")
	}

	inputs, err := raster.ExpandPaths(cmd.Files)
	if err != nil {
		return fmt.Errorf("failed to expand directories: %w", err)
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}
	useTUI := !cmd.NoTUI && isTerminal() && (appCtx == nil || appCtx.Config.TUI)
	engineLog := engineLogger(log, useTUI)
	rp := raster.NewReprojector(backend, engineLog)

	// the reference is validated once, before any job exists
	target, err := cmd.resolve(rp.Resolver())
	if err != nil {
		return err
	}

	req, err := batch.NewRequest(inputs, outputDir, target, method)
	if err != nil {
		return err
	}

	if utils.IsNetworkDrive(outputDir) {
		log.Warn().Str("output_dir", outputDir).Msg("Output directory is on a network drive, writes may be slow")
	}

	orch := batch.NewOrchestrator(rp, engineLog, batch.Options{DryRun: cmd.DryRun})

	var summary batch.Summary
	if useTUI {
		summary, err = cmd.runTUI(orch, req, log.FileOnly(), appCtx.VersionString())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, summaryStyle(summary).Render(fmt.Sprintf("Processed %d files: %d reprojected, %d skipped, %d failed",
			summary.Total, summary.Success, summary.Skipped, summary.Failed)))
	} else {
		fmt.Fprintln(out, ui.HeaderStyle.Render(fmt.Sprintf("rasterproj %s", appCtx.VersionString())))
		if cmd.DryRun {
			fmt.Fprintln(out, ui.ProcessingStyle.Render("🔍 DRY RUN MODE - No files will be written"))
		}
		summary = orch.Run(req, batch.MultiSink{
			batch.NewLogSink(log.FileOnly(), cmd.Verbose),
			ui.NewConsoleSink(out, cmd.Verbose),
		})
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrJobsFailed, summary.Failed, summary.Total)
	}
	return nil
}

// method picks the flag, then the config, then nearest neighbour
func (cmd *ReprojectCmd) method(appCtx *types.AppContext) (raster.ResamplingMethod, error) {
	if cmd.Resampling != "" {
		return raster.ParseResamplingMethod(cmd.Resampling)
	}
	if appCtx != nil {
		return appCtx.Config.Method(), nil
	}
	return raster.Nearest, nil
}

// engineLogger keeps the reprojector and orchestrator off the terminal while the TUI owns it.
func engineLogger(log *logging.Logger, tui bool) zerolog.Logger {
	if tui {
		return log.FileOnly()
	}
	return log.Logger
}

// runTUI drives the interactive view. The program and every batch it starts
// run in one errgroup, so the command returns only once all of them are done.
func (cmd *ReprojectCmd) runTUI(orch *batch.Orchestrator, req batch.Request, fileLog zerolog.Logger, version string) (batch.Summary, error) {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		last batch.Summary
	)

	start := func() <-chan batch.Event {
		events := batch.NewChannelSink(eventBuffer)
		done := orch.Start(req, batch.MultiSink{batch.NewLogSink(fileLog, cmd.Verbose), events})
		g.Go(func() error {
			s := <-done
			mu.Lock()
			last = s
			mu.Unlock()
			return nil
		})
		return events.Events()
	}

	model := ui.NewBatchModel(start, true, version)
	g.Go(func() error {
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	})

	err := g.Wait()
	mu.Lock()
	defer mu.Unlock()
	return last, err
}

func summaryStyle(s batch.Summary) lipgloss.Style {
	if s.Failed > 0 {
		return ui.ErrorStyle
	}
	return ui.SuccessStyle
}
