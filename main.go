package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-backtrack/config"
	"go-backtrack/debug"
)

var (
	Version = "dev"

	flags struct {
		config string
		log    string
		port   string
	}
)

var rootCmd = &cobra.Command{
	Use:   "go-backtrack [song.yaml]",
	Short: "Loop and backing-track composer for MIDI gear",
	Long: `go-backtrack plays a drum loop or a bar-by-bar arrangement of drums,
bass, chords and pads to a MIDI output, with a terminal editor.

Without a subcommand it opens the editor, like "go-backtrack play".`,
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "",
		"config file (default ~/.config/go-backtrack/config.json)")
	rootCmd.PersistentFlags().StringVarP(&flags.log, "log", "l", "",
		"write a debug log to this file")
	rootCmd.PersistentFlags().StringVarP(&flags.port, "port", "p", "",
		"MIDI output port name or part of it")

	rootCmd.AddCommand(playCmd, renderCmd, portsCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config or the default file and applies --log and --port
func loadConfig() (*config.Config, string, error) {
	path := flags.config
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}

	if flags.port != "" {
		cfg.Output.PortName = flags.port
	}
	logPath := flags.log
	if logPath == "" {
		logPath = cfg.DebugLog
	}
	if logPath != "" {
		if err := debug.Enable(logPath); err != nil {
			return nil, "", fmt.Errorf("debug log: %w", err)
		}
	}
	return cfg, path, nil
}
