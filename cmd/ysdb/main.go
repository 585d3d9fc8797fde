// Package main provides the ysdb CLI application.
//
// ysdb ("Your self-discipline bot") lets members of a chat record a daily
// contribution amount and compare personal and group totals over time. The
// binary runs the Telegram bot, a local console that speaks the same
// commands, and storage maintenance tasks.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(argv []string) error {
	fs := flag.NewFlagSet("ysdb", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(argv); err != nil {
		return err
	}

	if *showVersion {
		printVersion()
		return nil
	}

	args := fs.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "serve":
		return runServeCommand(*configPath, args[1:])
	case "console":
		return runConsoleCommand(*configPath, args[1:])
	case "migrate":
		return runMigrateCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "version":
		printVersion()
		return nil
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServeCommand runs the serve command.
func runServeCommand(configPath string, args []string) error {
	cmd, err := parseServeFlags(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// runConsoleCommand runs the console command.
func runConsoleCommand(configPath string, args []string) error {
	cmd, err := parseConsoleFlags(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// runMigrateCommand runs the migrate command.
func runMigrateCommand(configPath string, args []string) error {
	cmd, err := parseMigrateFlags(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

func printVersion() {
	fmt.Printf("ysdb %s\n", version)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `YSDB - Your self-discipline bot

Usage:
  ysdb [flags] <command> [command flags]

Commands:
  serve       Run the Telegram bot
  console     Type bot commands on stdin (local testing and administration)
  migrate     Apply the PostgreSQL schema
  config      Configuration management (show, path, init)
  version     Show version information
  help        Show this help message

Global Flags:
  -config     Path to configuration file

Serve and Migrate Flags:
  -bot-token  Telegram bot token (serve only)
  -host       PostgreSQL host (selects the postgres driver)
  -port       PostgreSQL port
  -db         PostgreSQL database name
  -user       PostgreSQL user
  -password   PostgreSQL password

Console Flags:
  -driver     Storage driver override (memory, bolt, postgres)
  -user-id    Acting user id (default: 1)
  -chat-id    Acting chat id (default: 1)
  -name       Acting user title
  -format     Output format (text, json)

Examples:
  # Run the bot with a local bolt database
  YSDB_BOT_TOKEN=123:abc ysdb serve

  # Run the bot against PostgreSQL
  ysdb serve -bot-token 123:abc -host db -db ysdb -user ysdb -password secret

  # Apply the PostgreSQL schema
  ysdb migrate -host db -db ysdb -user ysdb

  # Try commands without Telegram
  ysdb console -driver memory

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
