package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/rootscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/rootscan.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented rootscan configuration file",
		Long: `Init writes a .rootscan file holding every setting at its default value,
with a comment on each key. Commands read it from the current directory,
the XDG config directory or the home directory.

Examples:
  rootscan init
  rootscan init -o ~/.config/rootscan/config.yaml
  rootscan init --stdout > lab.yaml`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path of the written file")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing file")
	cmd.Flags().Bool("stdout", false, "Print the template instead of writing a file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	fl := cmd.Flags()
	path, err := fl.GetString("output")
	if err != nil {
		return err
	}
	force, err := fl.GetBool("force")
	if err != nil {
		return err
	}
	toStdout, err := fl.GetBool("stdout")
	if err != nil {
		return err
	}

	if toStdout {
		_, err := cmd.OutOrStdout().Write(configTemplate)
		return err
	}

	if err := writeTemplate(path, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Settings given as flags still override it; run '%s solve --help' for the list.\n", config.AppName)
	return nil
}

// writeTemplate creates path with the embedded template. Without force an
// existing file is left untouched.
func writeTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0600) //nolint:gosec // path comes from the user
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
