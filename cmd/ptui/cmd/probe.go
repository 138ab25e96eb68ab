package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/narbs/ptui"
	"github.com/narbs/ptui/internal/config"
)

type probeReport struct {
	TermName    string
	TermProgram string
	Capability  ptui.Capability
	Cols, Rows  int
	Tools       map[string]bool
	Identify    bool
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show detected terminal graphics support and converter availability",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeProbe(cmd.OutOrStdout(), collectProbe(nil, os.Getenv))
	},
}

func collectProbe(runner ptui.CommandRunner, getenv func(string) string) probeReport {
	r := probeReport{
		TermName:    getenv("TERM"),
		TermProgram: getenv("TERM_PROGRAM"),
		Capability:  ptui.Detect(ptui.DetectOptions{Getenv: getenv}),
		Tools:       make(map[string]bool, len(config.ConverterNames)),
		Identify:    toolAvailable(runner, "identify", "-version"),
	}
	r.Cols, r.Rows = ptui.TerminalSize()
	for _, name := range config.ConverterNames {
		r.Tools[name] = ptui.CheckConverterAvailability(runner, name) == nil
	}
	return r
}

func writeProbe(w io.Writer, r probeReport) {
	fmt.Fprintln(w, "=== ptui terminal probe ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Terminal Environment:")
	fmt.Fprintf(w, "  TERM: %s\n", r.TermName)
	fmt.Fprintf(w, "  TERM_PROGRAM: %s\n", r.TermProgram)
	fmt.Fprintf(w, "  Window Size: %dx%d characters\n", r.Cols, r.Rows)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Graphics:")
	fmt.Fprintf(w, "  Protocol: %s\n", r.Capability.Graphics)
	if r.Capability.FontDetected {
		fmt.Fprintf(w, "  Font Size: %dx%d pixels\n", r.Capability.Font.Width, r.Capability.Font.Height)
	} else {
		fmt.Fprintf(w, "  Font Size: %dx%d pixels (fallback)\n", r.Capability.Font.Width, r.Capability.Font.Height)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Converters:")
	for _, name := range config.ConverterNames {
		fmt.Fprintf(w, "  %s: %s\n", name, availability(r.Tools[name]))
	}
	fmt.Fprintf(w, "  identify: %s\n", availability(r.Identify))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Summary ===")
	switch r.Capability.Graphics {
	case ptui.Kitty:
		fmt.Fprintln(w, "✓ Kitty graphics protocol is available - use the graphical converter")
	case ptui.ITerm2:
		fmt.Fprintln(w, "✓ iTerm2 inline images are available - use the graphical converter")
	default:
		fmt.Fprintln(w, "• No graphics protocol detected - previews use text converters")
	}
	if !r.Identify {
		fmt.Fprintln(w, "• identify not found - image dimensions will be estimated")
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not found"
}
