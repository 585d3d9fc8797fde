package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/ysdb/pkg/config"
)

// redacted replaces secrets in displayed configuration.
const redacted = "<redacted>"

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
	out        io.Writer
	in         io.Reader
}

func (c *configCommand) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func (c *configCommand) stdin() io.Reader {
	if c.in == nil {
		return os.Stdin
	}
	return c.in
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "init":
		return c.runInit(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the effective configuration with secrets redacted.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	shown := redact(cfg)

	switch *format {
	case "json":
		return c.showJSON(shown)
	case "yaml":
		return c.showYAML(shown)
	default:
		return fmt.Errorf("unknown format: %s", *format)
	}
}

// redact returns a copy of cfg with secrets masked.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Telegram.Token != "" {
		out.Telegram.Token = redacted
	}
	if out.Storage.DatabaseURL != "" {
		out.Storage.DatabaseURL = redacted
	}
	return &out
}

// showYAML displays configuration in YAML format.
func (c *configCommand) showYAML(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	w := c.stdout()
	fmt.Fprintln(w, "# Current Configuration")
	fmt.Fprintln(w, "# Source:", c.getConfigSource())
	fmt.Fprintln(w)
	fmt.Fprint(w, string(data))
	return nil
}

// showJSON displays configuration in JSON format.
func (c *configCommand) showJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(c.stdout(), string(data))
	return nil
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	w := c.stdout()
	fmt.Fprintln(w, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(w)

	if env := os.Getenv(config.EnvConfig); env != "" {
		fmt.Fprintf(w, "  0. %s [%s, from %s]\n", env, existence(env), config.EnvConfig)
	}
	for i, p := range config.SearchPaths() {
		fmt.Fprintf(w, "  %d. %s [%s]\n", i+1, p, existence(p))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Active configuration:", c.getConfigSource())
	return nil
}

func existence(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "found"
	}
	return "not found"
}

// runInit writes a default configuration file.
func (c *configCommand) runInit(args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file (default: ~/.config/ysdb/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}
	w := c.stdout()

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Fprintf(w, "Configuration file already exists at: %s\n", outputPath)
		fmt.Fprint(w, "Overwrite? [y/N]: ")

		response, err := bufio.NewReader(c.stdin()).ReadString('\n')
		if err != nil && response == "" {
			fmt.Fprintln(w, "\nInit cancelled.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(w, "Init cancelled.")
			return nil
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	fmt.Fprintf(w, "Default configuration written to: %s\n", outputPath)
	return nil
}

// getConfigSource returns the path of the active configuration file.
func (c *configCommand) getConfigSource() string {
	candidates := []string{c.configPath, os.Getenv(config.EnvConfig)}
	candidates = append(candidates, config.SearchPaths()...)

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return "defaults (no config file found)"
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  ysdb config <subcommand> [flags]

Subcommands:
  show      Display the effective configuration (secrets redacted)
  path      Show configuration file paths
  init      Write a default configuration file

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Init Flags:
  -force    Skip confirmation prompt
  -output   Output path for config file

Environment:
  YSDB_CONFIG          Configuration file path
  YSDB_BOT_TOKEN       Telegram bot token
  YSDB_DATABASE_URL    PostgreSQL URL (selects the postgres driver)
  YSDB_DB              bbolt database path
  YSDB_STORAGE_DRIVER  memory, bolt or postgres
  YSDB_LOG_LEVEL       debug, info, warn or error
`
	fmt.Fprint(c.stdout(), help)
	return nil
}
