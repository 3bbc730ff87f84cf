package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/renderer"
	"github.com/matzehuels/forcegraph/pkg/schedule"
)

const stepLogSize = 6

var (
	stepKeyStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	stepHeadStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	stepErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

func (c *CLI) stepCommand() *cobra.Command {
	var (
		scene  sceneFlags
		export exportFlags
	)

	cmd := &cobra.Command{
		Use:   "step FILE...",
		Short: "Step through queued renders interactively",
		Long: `Step loads the snapshot files and lets you drive one renderer by hand:
enqueue the next snapshot, run queued render tasks one at a time, reset
the scene between them and export what is drawn.

Keys: e enqueue next  E enqueue all  n step  a drain  r reset  x export  q quit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().PipelineOptions()
			scene.apply(cmd, &opts)
			if err := export.apply(cmd, &opts); err != nil {
				return err
			}
			// Logging to the terminal would tear the TUI.
			opts.Logger = log.New(io.Discard)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			snaps, err := pipeline.LoadSnapshots(args)
			if err != nil {
				return err
			}
			m, err := NewStepModel(cmd.Context(), args, snaps, opts, export.output)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	scene.bind(cmd.Flags())
	export.bind(cmd.Flags())
	return cmd
}

// =============================================================================
// StepModel - Interactive executor stepping
// =============================================================================

// StepModel is the bubbletea model of the step command. Update runs on a
// single goroutine, so the model owns the executor and renderer directly.
type StepModel struct {
	ctx    context.Context
	files  []string
	snaps  []graph.RawSnapshot
	opts   pipeline.Options
	output string

	exec *schedule.Executor
	rend *renderer.Renderer

	// Next is the index of the next snapshot to enqueue.
	Next int
	// Log holds the most recent events, newest last.
	Log []string
	Err error
}

// NewStepModel creates a model over snaps, which were loaded from files.
func NewStepModel(ctx context.Context, files []string, snaps []graph.RawSnapshot, opts pipeline.Options, output string) (*StepModel, error) {
	m := &StepModel{
		ctx:    ctx,
		files:  files,
		snaps:  snaps,
		opts:   opts,
		output: output,
		exec:   schedule.NewExecutor(),
	}
	rend, err := renderer.New(opts.Width, opts.Height, append(opts.RendererOptions(),
		renderer.WithExecutor(m.exec),
		renderer.WithOnComplete(m.completed),
	)...)
	if err != nil {
		return nil, err
	}
	m.rend = rend
	return m, nil
}

// Renderer returns the renderer driven by the model.
func (m *StepModel) Renderer() *renderer.Renderer { return m.rend }

func (m *StepModel) Init() tea.Cmd {
	return nil
}

func (m *StepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.Err = nil
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "e":
		m.enqueue()
	case "E":
		for m.Next < len(m.snaps) && m.Err == nil {
			m.enqueue()
		}
	case "n", "s", " ":
		if ran, err := m.exec.Step(); !ran {
			m.logf("queue empty")
		} else if err != nil {
			m.Err = err
		}
	case "a":
		if err := m.exec.Drain(); err != nil {
			m.Err = err
		}
	case "r":
		m.rend.Reset()
		m.logf("reset: generation %d", m.rend.Scene().Root().Generation)
	case "x":
		m.export()
	}
	return m, nil
}

func (m *StepModel) enqueue() {
	if m.Next >= len(m.snaps) {
		m.logf("no more snapshots")
		return
	}
	i := m.Next
	m.Next++
	if err := m.rend.Render(m.snaps[i]); err != nil {
		m.Err = fmt.Errorf("%s: %w", m.files[i], err)
		return
	}
	m.logf("enqueued %s", m.files[i])
}

func (m *StepModel) export() {
	artifacts, err := pipeline.Export(m.ctx, m.rend.Scene(), m.opts, nil)
	if err != nil {
		m.Err = err
		return
	}
	paths, err := writeArtifacts(artifacts, m.output, m.files[len(m.files)-1])
	if err != nil {
		m.Err = err
		return
	}
	m.logf("wrote %s", strings.Join(paths, ", "))
}

func (m *StepModel) completed(out renderer.Outcome) {
	switch {
	case out.Skipped:
		m.logf("render#%d skipped", out.Generation)
	case out.Err != nil:
		m.logf("render#%d failed", out.Generation)
	default:
		d := out.Diff.Nodes
		m.logf("render#%d: +%d ~%d -%d nodes", out.Generation, d.Entered, d.Updated, d.Exited)
	}
}

func (m *StepModel) logf(format string, args ...any) {
	m.Log = append(m.Log, fmt.Sprintf(format, args...))
	if len(m.Log) > stepLogSize {
		m.Log = m.Log[len(m.Log)-stepLogSize:]
	}
}

func (m *StepModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("forcegraph step"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(
		keyHint("e", "enqueue") + "  " + keyHint("E", "all") + "  " + keyHint("n", "step") + "  " +
			keyHint("a", "drain") + "  " + keyHint("r", "reset") + "  " + keyHint("x", "export") + "  " + keyHint("q", "quit")))
	b.WriteString("\n\n")

	root := m.rend.Scene().Root()
	stats := m.rend.Stats()
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		StyleDim.Render("state"), StyleValue.Render(m.rend.State().String()),
		StyleDim.Render("group"), StyleNumber.Render(strconv.Itoa(root.Generation)),
		StyleDim.Render("nodes"), StyleNumber.Render(strconv.Itoa(root.NodeCount())),
		StyleDim.Render("edges"), StyleNumber.Render(strconv.Itoa(root.EdgeCount())),
	))
	b.WriteString(StyleDim.Render(fmt.Sprintf("snapshots %d/%d · completed %d · skipped %d · failed %d · resets %d",
		m.Next, len(m.snaps), stats.Completed, stats.Skipped, stats.Failed, stats.Resets)))
	b.WriteString("\n\n")

	b.WriteString(m.queueTable())
	b.WriteString("\n")

	for _, line := range m.Log {
		b.WriteString(StyleDim.Render("  " + iconInfo + " " + line))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(stepErrorStyle.Render(iconError + " " + m.Err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *StepModel) queueTable() string {
	pending := m.exec.Pending()
	rows := make([][]string, 0, len(pending))
	for i, name := range pending {
		rows = append(rows, []string{strconv.Itoa(i + 1), name})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"", "(empty)"})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Queued task").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return stepHeadStyle
			case row == 0 && len(pending) > 0:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			default:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
		}).
		Render()
}

func keyHint(key, action string) string {
	return stepKeyStyle.Render(key) + " " + action
}
