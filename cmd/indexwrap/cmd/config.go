package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/indexwrap/configs"
	"github.com/Aman-CERP/indexwrap/internal/config"
	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the project and user configuration files.

The project configuration (.indexwrap.yaml) holds the route table. The user
configuration holds settings shared by every project on this machine.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/indexwrap/config.yaml)
  3. Project config (.indexwrap.yaml)
  4. Environment variables (INDEXWRAP_*)`,
		Example: `  # Create .indexwrap.yaml in the project root
  indexwrap config init

  # Show effective configuration (merged from all sources)
  indexwrap config show

  # Undo the last overwrite
  indexwrap config backups
  indexwrap config restore <backup>`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupsCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

// configTarget returns the file a config subcommand acts on.
func configTarget(user bool) (string, error) {
	if user {
		return config.GetUserConfigPath(), nil
	}
	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	if path := config.ProjectConfigPath(root); path != "" {
		return path, nil
	}
	return filepath.Join(root, config.ProjectFileName), nil
}

func newConfigInitCmd() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from a template",
		Example: `  # Create the project config
  indexwrap config init

  # Create the user config
  indexwrap config init --user

  # Overwrite an existing file (the old one is backed up)
  indexwrap config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout(), noColor)

			path, err := configTarget(user)
			if err != nil {
				return err
			}
			template := configs.ProjectConfigTemplate
			if user {
				template = configs.UserConfigTemplate
			}

			if _, err := os.Stat(path); err == nil {
				if !force {
					out.Warning("Configuration already exists")
					out.Status("", "Location: "+path)
					out.Status("", "Use --force to overwrite it (a backup is kept)")
					return nil
				}
				backup, err := config.Backup(path)
				if err != nil {
					return err
				}
				out.Status("", "Backup: "+backup)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out.Success("Created configuration")
			out.Status("", "Location: "+path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&user, "user", false, "Create the user configuration instead of the project one")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Example: `  # Show merged configuration
  indexwrap config show

  # Show only the project file
  indexwrap config show --source project --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")
	return cmd
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout(), noColor)

	var (
		cfg  *config.Config
		path string
	)
	switch source {
	case "merged":
		root, err := projectRoot()
		if err != nil {
			return err
		}
		if cfg, err = config.Load(root); err != nil {
			return err
		}
	case "user", "project":
		var err error
		if path, err = configTarget(source == "user"); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			out.Warningf("No %s configuration file found", source)
			out.Status("", "Expected at: "+path)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s config: %w", source, err)
		}
		cfg = config.NewConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return werrors.ConfigError("failed to parse "+source+" config", err).WithDetail("path", path)
		}
	case "defaults":
		cfg = config.NewConfig()
	default:
		return werrors.ValidationError(
			fmt.Sprintf("invalid source: %s (use: merged, user, project, defaults)", source), nil)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if path != "" {
		out.Line("# " + path)
	} else {
		out.Line("# " + source)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newConfigPathCmd() *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configTarget(user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Print the user configuration path")
	return cmd
}

func newConfigBackupsCmd() *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List configuration backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configTarget(user)
			if err != nil {
				return err
			}
			backups, err := config.ListBackups(path)
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout(), noColor)
			if len(backups) == 0 {
				out.Status("", "No backups of "+path)
				return nil
			}
			for _, b := range backups {
				out.Line(b)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "List backups of the user configuration")
	return cmd
}

func newConfigRestoreCmd() *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "restore BACKUP",
		Short: "Restore a configuration backup",
		Long: `Replace the configuration file with BACKUP. The current file is backed
up first, so a restore can itself be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTarget(user)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return werrors.ValidationError("cannot read backup", err).WithDetail("path", args[0])
			}
			restored := config.NewConfig()
			if err := yaml.Unmarshal(data, restored); err != nil {
				return werrors.ConfigError("backup is not a valid configuration", err).
					WithDetail("path", args[0])
			}
			if err := restored.Validate(); err != nil {
				return err
			}
			if err := config.Restore(path, args[0]); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout(), noColor).Successf("restored %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Restore the user configuration")
	return cmd
}
