/*
Copyright © 2025 narbs

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/text"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/narbs/ptui"
	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/internal/tui"
)

var (
	verbose       bool
	configDir     string
	converterName string
	logFile       string
)

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding ptui/ptui.yaml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&converterName, "converter", "", "Converter for this session: chafa, jp2a, graphical or halfblocks")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the browser is running")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "ptui [dir]",
	Short:        "Browse and preview images in your terminal",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return runBrowser(dir)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func configBase() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return base, nil
}

// loadConfig reads the configuration under base and applies the session
// overrides. A broken file falls back to the defaults.
func loadConfig(base, converter string) (*config.Config, error) {
	cfg, err := config.Load(base)
	if err != nil {
		log.WithError(err).Warn("using default configuration")
	}
	if converter != "" {
		cfg.Converter.Selected = converter
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// checkTools aborts when the selected converter cannot run. A missing
// identify only degrades dimension probing.
func checkTools(runner ptui.CommandRunner, cfg *config.Config) error {
	name := cfg.Converter.Selected
	if err := ptui.CheckConverterAvailability(runner, name); err != nil {
		log.WithError(err).Debug("converter check failed")
		return fmt.Errorf("%s not available", name)
	}
	if !toolAvailable(runner, "identify", "-version") {
		log.Warn("identify (ImageMagick) not found, image dimensions will be estimated")
	}
	return nil
}

func toolAvailable(runner ptui.CommandRunner, name string, args ...string) bool {
	if runner == nil {
		runner = ptui.ExecRunner{}
	}
	res, err := runner.Run(name, args...)
	return err == nil && res.ExitCode == 0
}

// redirectLogs moves logging off the terminal while the browser owns it.
func redirectLogs(path string) (io.Closer, error) {
	if path == "" {
		log.SetHandler(discard.Default)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetHandler(text.New(f))
	return f, nil
}

func runBrowser(dir string) error {
	base, err := configBase()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(base, converterName)
	if err != nil {
		return err
	}
	if err := checkTools(nil, cfg); err != nil {
		return err
	}

	// probe before bubbletea takes over stdin
	capability := ptui.Detect(ptui.DetectOptions{})

	opts := tui.Options{
		Dir:        dir,
		Config:     cfg,
		Capability: capability,
		Async:      true,
	}
	watcher, err := config.Watch(base)
	if err != nil {
		log.WithError(err).Warn("config hot reload disabled")
	} else {
		defer watcher.Stop()
		opts.Updates = watcher.Results()
	}

	model, err := tui.New(opts)
	if err != nil {
		return err
	}

	logs, err := redirectLogs(logFile)
	if err != nil {
		return err
	}
	defer func() {
		logs.Close()
		log.SetHandler(clihander.Default)
	}()

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	fmt.Fprint(os.Stdout, tui.Cleanup)
	if err != nil {
		return fmt.Errorf("ptui: %w", err)
	}
	return nil
}
