package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/narbs/ptui"
	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/internal/files"
)

var (
	saveASCII     bool
	width, height int
)

func init() {
	convertCmd.Flags().BoolVarP(&saveASCII, "save", "s", false, "Save <name>.ascii next to the image instead of printing")
	convertCmd.Flags().IntVar(&width, "width", 0, "Output width in columns (default: terminal width)")
	convertCmd.Flags().IntVar(&height, "height", 0, "Output height in rows (default: terminal height)")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <image>",
	Short: "Render an image once with the selected text converter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := configBase()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(base, converterName)
		if err != nil {
			return err
		}
		cols, rows := ptui.TerminalSize()
		if width > 0 {
			cols = width
		}
		if height > 0 {
			rows = height
		}
		return convertImage(cmd.OutOrStdout(), nil, cfg, args[0], cols, rows, saveASCII)
	},
}

// convertImage writes the text rendering of path to w, or saves it next to
// the image when save is set.
func convertImage(w io.Writer, runner ptui.CommandRunner, cfg *config.Config, path string, cols, rows int, save bool) error {
	item, err := files.NewFileItem(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	manager := ptui.NewPreviewManager(cfg, ptui.ManagerOptions{
		Runner:   runner,
		TermSize: func() (int, int) { return cols, rows },
	})

	if save {
		msg, err := manager.SaveASCII(item, cols, rows)
		if err != nil {
			return err
		}
		log.Info(msg)
		return nil
	}

	if item.IsDir || !item.IsImage() {
		return errors.New("Selected file is not an image")
	}
	imgW, imgH, err := ptui.ProbeDimensions(runner, item.Path)
	if err != nil {
		log.WithError(err).Debug("using fallback dimensions")
	}
	cw, ch := ptui.ConverterDimensions(imgW, imgH, cols, rows)

	log.WithFields(log.Fields{
		"converter": manager.Converter().Name(),
		"size":      fmt.Sprintf("%dx%d", cw, ch),
	}).Debug("converting")
	out, err := manager.Converter().Convert(item.Path, cw, ch)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
