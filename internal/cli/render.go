package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	All       bool // include storylets whose condition fails
	Qualities bool // render the character's qualities instead
}

// RenderResult holds rendered storylets or qualities.
type RenderResult struct {
	Storylets []ir.Storylet            `json:"storylets,omitempty"`
	Qualities []engine.RenderedQuality `json:"qualities,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <character-id> [storylet-id]...",
		Short: "Render storylets or qualities for a character",
		Long: `Render storylets as the character would see them: templates evaluated,
visibility from the storylet condition and lock state per branch.

Without storylet ids every visible storylet is rendered, in id order.

Examples:
  storylet render 0190...
  storylet render 0190... forge --format json
  storylet render 0190... --all
  storylet render 0190... --qualities`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include storylets that are not visible")
	cmd.Flags().BoolVar(&opts.Qualities, "qualities", false, "render owned qualities instead of storylets")
	return cmd
}

func runRender(opts *RenderOptions, characterID string, ids []string, cmd *cobra.Command) error {
	s, err := openSession(context.Background(), opts.RootOptions, cmd, characterID)
	if err != nil {
		return err
	}
	defer s.Close()

	var result RenderResult
	if opts.Qualities {
		result.Qualities = renderQualities(s)
		return opts.formatter(cmd).Success(result, func(w io.Writer) {
			for _, q := range result.Qualities {
				fmt.Fprintf(w, "%s (%s) %s", q.Name, q.ID, ir.FormatState(q.State))
				if q.Slot != "" {
					fmt.Fprintf(w, " [%s]", q.Slot)
				}
				fmt.Fprintln(w)
			}
		})
	}

	explicit := len(ids) > 0
	if !explicit {
		ids = s.content.SortedStoryletIDs()
	}
	for _, id := range ids {
		st, ok := s.content.Storylets[id]
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown storylet %q", id))
		}
		r := s.engine.RenderStorylet(st)
		if !r.Visible && !explicit && !opts.All {
			continue
		}
		result.Storylets = append(result.Storylets, r)
	}

	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		for i, st := range result.Storylets {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeStorylet(w, st)
		}
	})
}

// renderQualities renders every owned quality in definition order, then
// dynamic ones by id.
func renderQualities(s *session) []engine.RenderedQuality {
	owned := s.engine.Qualities()
	var out []engine.RenderedQuality
	seen := make(map[string]bool)
	for _, def := range s.content.Qualities.Ordered() {
		if _, ok := owned[def.ID]; ok {
			out = append(out, s.engine.RenderQuality(def.ID))
			seen[def.ID] = true
		}
	}
	for _, id := range owned.SortedIDs() {
		if !seen[id] {
			out = append(out, s.engine.RenderQuality(id))
		}
	}
	return out
}

func writeStorylet(w io.Writer, st ir.Storylet) {
	fmt.Fprintf(w, "== %s (%s)\n", st.Title, st.ID)
	if !st.Visible {
		fmt.Fprintln(w, "(not available)")
	}
	if st.Text != "" {
		fmt.Fprintln(w, st.Text)
	}
	for _, b := range st.Branches {
		marker := "*"
		if b.Locked {
			marker = "x"
		}
		fmt.Fprintf(w, "  %s %s [%s]\n", marker, b.Title, b.ID)
		if b.Text != "" {
			fmt.Fprintf(w, "    %s\n", b.Text)
		}
	}
}
