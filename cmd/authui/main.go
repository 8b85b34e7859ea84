// Command authui signs in to the authentication backend and keeps the
// session token between invocations.
//
// Configuration comes from AUTHUI_* environment variables first and command
// line flags second. Every session command validates the stored token before
// it runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/MrEthical07/authui"
	"github.com/MrEthical07/authui/internal/logging"
	"github.com/MrEthical07/authui/metrics/export/prometheus"
	"golang.org/x/text/language"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage: authui [flags] <command> [command flags]

commands:
  status     show the current session
  login      sign in with -email and a password prompt
  register   create an account with -email, a password and its confirmation
  profile    show the signed-in user's profile
  logout     sign out and forget the stored token
  config     print configuration warnings

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], environ(), os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, authui.EnvPrefix) {
			out[k] = v
		}
	}
	return out
}

// session is what a command sees.
type session struct {
	manager *authui.Manager
	prompt  *prompter
	stdout  io.Writer
	stderr  io.Writer
	locale  language.Tag
}

type command struct {
	run func(ctx context.Context, s *session, args []string) int
	// offline commands do not build a Manager.
	offline bool
}

var commands = map[string]command{
	"status":   {run: runStatus},
	"login":    {run: runLogin},
	"register": {run: runRegister},
	"profile":  {run: runProfile},
	"logout":   {run: runLogout},
	"config":   {offline: true},
}

func run(ctx context.Context, args []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := authui.LoadConfigFrom(env)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	fs := flag.NewFlagSet("authui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.API.BaseURL, "base-url", cfg.API.BaseURL, "authentication backend URL")
	fs.DurationVar(&cfg.API.Timeout, "timeout", cfg.API.Timeout, "per-request timeout")
	storage := fs.String("storage", string(cfg.Storage.Backend), "token storage: file, redis, sqlite or memory")
	fs.StringVar(&cfg.Storage.Path, "token-file", cfg.Storage.Path, "token file for the file backend")
	fs.StringVar(&cfg.Storage.SQLitePath, "sqlite-path", cfg.Storage.SQLitePath, "database for the sqlite backend")
	fs.StringVar(&cfg.Storage.RedisAddr, "redis-addr", cfg.Storage.RedisAddr, "address for the redis backend")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "message language (en, ru)")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "text or json")
	auditLog := fs.String("audit-log", "", "append JSON audit events to this file")
	showMetrics := fs.Bool("metrics", false, "print metrics in Prometheus text format after the command")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	cfg.Storage.Backend = authui.StorageBackend(strings.ToLower(*storage))

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return exitUsage
	}

	if cmd.offline {
		return runConfig(stdout, cfg)
	}

	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	for _, w := range cfg.Lint().BySeverity(authui.LintWarn) {
		logger.Warn("config", "code", w.Code, "severity", w.Severity.String(), "detail", w.Message)
	}

	builder := authui.New().
		WithLogger(logger).
		WithNotifier(authui.NewWriterNotifier(stderr))
	if *auditLog != "" {
		f, err := os.OpenFile(*auditLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Fprintf(stderr, "open audit log: %v\n", err)
			return exitFailure
		}
		defer f.Close()
		cfg.Audit.Enabled = true
		builder = builder.WithAuditSink(authui.NewJSONWriterSink(f))
	}
	builder = builder.WithConfig(cfg)

	m, err := builder.Build()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	m.Bootstrap(ctx)

	s := &session{
		manager: m,
		prompt:  newPrompter(stdin, stderr),
		stdout:  stdout,
		stderr:  stderr,
		locale:  m.Locale(),
	}
	code := cmd.run(ctx, s, fs.Args()[1:])

	if *showMetrics {
		fmt.Fprint(stdout, prometheus.NewPrometheusExporter(m).Render())
	}
	if err := m.Close(); err != nil {
		logger.Warn("close manager", "error", err)
	}
	return code
}
