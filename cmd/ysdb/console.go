package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/0xmhha/ysdb/pkg/bot"
	"github.com/0xmhha/ysdb/pkg/report"
)

const consolePrompt = "ysdb> "

// consoleCommand reads bot commands from stdin and prints the replies.
type consoleCommand struct {
	configPath string
	driver     string
	userID     int64
	chatID     int64
	name       string
	format     string
}

// parseConsoleFlags parses console flags.
func parseConsoleFlags(configPath string, args []string) (*consoleCommand, error) {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	driver := fs.String("driver", "", "storage driver override (memory, bolt, postgres)")
	userID := fs.Int64("user-id", 1, "acting user id")
	chatID := fs.Int64("chat-id", 1, "acting chat id")
	name := fs.String("name", "console", "acting user title")
	format := fs.String("format", "text", "output format (text, json)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch report.Format(*format) {
	case report.FormatText, report.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown format: %s", *format)
	}

	return &consoleCommand{
		configPath: configPath,
		driver:     *driver,
		userID:     *userID,
		chatID:     *chatID,
		name:       *name,
		format:     *format,
	}, nil
}

// Execute runs the console until stdin is closed.
func (c *consoleCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.Storage.Driver = c.driver
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	log := newLogger(cfg)
	ctx := context.Background()

	l, err := openLedger(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	svc := newService(cfg, l, serviceOptions{format: report.Format(c.format)}, log)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return c.loop(ctx, svc, os.Stdin, os.Stdout, interactive)
}

// loop feeds every line of in to svc and writes the replies to out.
// Lines without a leading slash are treated as commands typed without one.
func (c *consoleCommand) loop(ctx context.Context, svc bot.Service, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)

	for {
		if interactive {
			fmt.Fprint(out, consolePrompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if !strings.HasPrefix(line, "/") {
			line = "/" + line
		}

		reply, ok := svc.Handle(ctx, bot.Message{
			UserID:    c.userID,
			ChatID:    c.chatID,
			UserTitle: c.name,
			ChatTitle: "console",
			Text:      line,
		})
		if !ok {
			fmt.Fprintln(out, "(no reply)")
			continue
		}
		fmt.Fprintln(out, reply)
	}

	if interactive {
		fmt.Fprintln(out)
	}
	return scanner.Err()
}
