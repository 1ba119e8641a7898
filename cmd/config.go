package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cath/internal/config"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(o), newConfigSetCmd(o), newConfigPathCmd(o))
	return cmd
}

// targetPath is the file config subcommands write: --config, else the file
// that would be loaded, else the user config.
func (o *rootOptions) targetPath() (string, error) {
	if o.configFile != "" {
		return o.configFile, nil
	}
	if _, used, err := config.Load(""); err == nil && used != "" {
		return used, nil
	}
	if path := config.DefaultConfigPath(); path != "" {
		return path, nil
	}
	return "", errors.New("cannot determine config path; pass --config")
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := initLogging(o.debug)
			if err != nil {
				return err
			}
			defer closeLog()

			path := o.configFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if path == "" {
				return errors.New("cannot determine config path; pass --config")
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
}

func newConfigSetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: fmt.Sprintf(`Set a top-level configuration value, keeping comments in the file.

Settable keys: %v

Examples:
  cath config set theme solarized-dark
  cath config set line_numbers true`, config.SettableKeys),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := initLogging(o.debug)
			if err != nil {
				return err
			}
			defer closeLog()

			path, err := o.targetPath()
			if err != nil {
				return err
			}
			if err := config.SetValue(path, args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], args[1], path)
			return err
		},
	}
}

func newConfigPathCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file cath reads or writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := o.targetPath()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}
