package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/i18n"
	"github.com/reoring/goconstruct/internal/config"
	"github.com/reoring/goconstruct/loader"
)

// env carries the process streams so commands can run under test.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// usageError marks bad invocations (exit status 2).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func main() {
	e := env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(os.Args[1:], e); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.msg)
			usage(os.Stderr)
			os.Exit(2)
		}
		fatalf("goconstruct: %v", err)
	}
}

func run(args []string, e env) error {
	if len(args) < 1 {
		return usageError{msg: "missing command"}
	}
	var cmd func([]string, env) error
	switch args[0] {
	case "parse":
		cmd = parseCmd
	case "build":
		cmd = buildCmd
	case "sizeof":
		cmd = sizeofCmd
	case "schema":
		cmd = schemaCmd
	case "help", "-h", "--help":
		usage(e.stdout)
		return nil
	default:
		return usageError{msg: fmt.Sprintf("unknown command %q", args[0])}
	}
	if err := cmd(args[1:], e); !errors.Is(err, errHelp) {
		return err
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `goconstruct CLI

Usage:
  goconstruct parse  --schema S [--in FILE|-] [--hex] [--format json|yaml|cbor] [--all]
  goconstruct build  --schema S [--in VALUE|-] [--input-format json|yaml|cbor] [--out FILE] [--hex]
  goconstruct sizeof --schema S [--set key=value ...]
  goconstruct schema --schema S

Common flags:
  --root NAME        use a definition of the schema document as root
  --config PATH      TOML settings (default $GOCONSTRUCT_CONFIG, then ~/.config/goconstruct/config.toml)
  --log-level LEVEL  trace, debug, info, warn, error
  --lang en|ja       error message language

Byte values are written as {"$hex": "..."} and accepted back on build.`)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

// common holds the flags every command shares.
type common struct {
	configPath   string
	logLevel     string
	noColor      bool
	lang         string
	schema       string
	schemaFormat string
	root         string

	cfg config.Config
	log zerolog.Logger
}

func newFlagSet(name string, e env, c *common) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&c.configPath, "config", "", "path to a TOML settings file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (overrides config)")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored log output")
	fs.StringVar(&c.lang, "lang", "en", "error message language (en, ja)")
	fs.StringVarP(&c.schema, "schema", "s", "", "schema document (.yaml, .yml, .json, .jsonc)")
	fs.StringVar(&c.schemaFormat, "schema-format", "", "schema document format when the extension is ambiguous")
	fs.StringVar(&c.root, "root", "", "definition to use as root")
	return fs
}

// parseFlags parses args and prepares config, logging and language.
func parseFlags(fs *pflag.FlagSet, args []string, e env, c *common) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return usageError{msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return usageError{msg: fmt.Sprintf("%s: unexpected arguments %v", fs.Name(), fs.Args())}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		if cfg.LogLevel, err = config.ParseLevel(c.logLevel); err != nil {
			return usageError{msg: err.Error()}
		}
	}
	if fs.Changed("no-color") {
		cfg.NoColor = c.noColor
	}
	c.cfg = cfg
	c.log = newLogger(e.stderr, cfg)
	goconstruct.SetLogger(c.log)
	i18n.SetLanguage(c.lang)
	if cfg.Path != "" {
		c.log.Debug().Str("path", cfg.Path).Msg("config loaded")
	}
	return nil
}

var errHelp = errors.New("help requested")

func newLogger(w io.Writer, cfg config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.NoColor}
	return zerolog.New(out).Level(cfg.LogLevel).With().Timestamp().Str("app", "goconstruct").Logger()
}

func (c *common) load() (goconstruct.Construct, error) {
	if c.schema == "" {
		return nil, usageError{msg: "--schema is required"}
	}
	opts := loader.Options{Format: loader.Format(c.schemaFormat), Root: c.root}
	con, err := loader.LoadFile(c.schema, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.schema, err)
	}
	return con, nil
}

// report logs the structured fields of a construct error before it is
// returned to main.
func (c *common) report(op string, err error) error {
	if e, ok := goconstruct.AsError(err); ok {
		c.log.Error().Str("op", op).Str("code", e.Code).Str("path", e.Path).Int64("offset", e.Offset).Msg(e.Message)
	}
	return err
}
