package config

// This file implements CLI flag parsing, the optional viper-backed config
// file overlay, and help text. --config is scanned for before the main
// flag.FlagSet is built, so overlay values can seed the flags' defaults;
// flags parsed afterward always win over the overlay.

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// version is shown in --version and help; override at build time with -ldflags.
var version = "1.0.0-dev"

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, invalid --color).
// A missing -i is reported by [Config.Validate], not here.
func ParseFlags(cfg *Config) error {
	if path := scanForConfigFlag(os.Args[1:]); path != "" {
		if err := LoadOverlay(cfg, path); err != nil {
			return fmt.Errorf("loading --config %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	fs := flag.NewFlagSet("transcode-driver", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var showHelp, showVersion bool
	var colorMode string

	fs.StringVar(&cfg.InputRoot, "input", cfg.InputRoot, "Root directory to scan")
	fs.StringVar(&cfg.InputRoot, "i", cfg.InputRoot, "Same as --input")
	fs.BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "Recurse into subdirectories")
	fs.BoolVar(&cfg.Recursive, "r", cfg.Recursive, "Same as --recursive")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Worker pool size [1,25]")
	fs.IntVar(&cfg.Concurrency, "c", cfg.Concurrency, "Same as --concurrency")
	fs.IntVar(&cfg.Scanners, "scanners", cfg.Scanners, "Walker directory concurrency [1,20]")
	fs.IntVar(&cfg.Scanners, "s", cfg.Scanners, "Same as --scanners")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Scan only; print classification totals")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Forward encoder diagnostics to stderr")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Read-only ledger report of processing/failed records")
	fs.BoolVar(&cfg.Cleanup, "cleanup", cfg.Cleanup, "Delete target files and drop processing/failed ledger records")
	fs.StringVar(&colorMode, "color", string(cfg.ColorMode), "Color mode: auto | always | never")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Also write log lines to this file")
	fs.String("config", cfg.ConfigFile, "Optional YAML/env overlay applied before flag defaults")

	fs.StringVar(&cfg.Encoder.BinaryPath, "encoder-binary", cfg.Encoder.BinaryPath, "Encoder binary path")
	fs.StringVar(&cfg.ProbeBinaryPath, "probe-binary", cfg.ProbeBinaryPath, "Probe binary path")
	fs.IntVar(&cfg.Encoder.SampleRate, "sample-rate", cfg.Encoder.SampleRate, "Output sample rate (Hz)")
	fs.IntVar(&cfg.Encoder.Channels, "channels", cfg.Encoder.Channels, "Output channel count")
	fs.StringVar(&cfg.Encoder.Bitrate, "bitrate", cfg.Encoder.Bitrate, "Output audio bitrate (e.g. 32k)")
	fs.StringVar(&cfg.Encoder.Codec, "codec", cfg.Encoder.Codec, "Output audio codec")

	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&showVersion, "V", false, "Same as --version")
	fs.BoolVar(&showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "h", false, "Same as --help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, "transcode-driver v"+version)
		os.Exit(0)
	}

	switch strings.ToLower(colorMode) {
	case "auto":
		cfg.ColorMode = ColorAuto
	case "always":
		cfg.ColorMode = ColorAlways
	case "never":
		cfg.ColorMode = ColorNever
	default:
		return fmt.Errorf("invalid --color %q (use 'auto', 'always', or 'never')", colorMode)
	}

	return nil
}

// scanForConfigFlag finds --config/-config's value without fully parsing
// args, so the overlay can be loaded before the flag.FlagSet is built (the
// FlagSet needs final defaults at Var-registration time).
func scanForConfigFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config=")
		}
	}
	return ""
}

// LoadOverlay reads a YAML config file (and TRANSCODE_DRIVER_-prefixed env
// vars) via viper and applies any set keys onto cfg. Flags parsed after
// this call still win, since ParseFlags registers cfg's current values as
// the flag.FlagSet's defaults.
func LoadOverlay(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TRANSCODE_DRIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	if v.IsSet("input") {
		cfg.InputRoot = v.GetString("input")
	}
	if v.IsSet("recursive") {
		cfg.Recursive = v.GetBool("recursive")
	}
	if v.IsSet("concurrency") {
		cfg.Concurrency = v.GetInt("concurrency")
	}
	if v.IsSet("scanners") {
		cfg.Scanners = v.GetInt("scanners")
	}
	if v.IsSet("dry_run") {
		cfg.DryRun = v.GetBool("dry_run")
	}
	if v.IsSet("verbose") {
		cfg.Verbose = v.GetBool("verbose")
	}
	if v.IsSet("color") {
		cfg.ColorMode = ColorMode(v.GetString("color"))
	}
	if v.IsSet("log_file") {
		cfg.LogFile = v.GetString("log_file")
	}
	if v.IsSet("encoder.binary_path") {
		cfg.Encoder.BinaryPath = v.GetString("encoder.binary_path")
	}
	if v.IsSet("probe_binary_path") {
		cfg.ProbeBinaryPath = v.GetString("probe_binary_path")
	}
	if v.IsSet("encoder.sample_rate") {
		cfg.Encoder.SampleRate = v.GetInt("encoder.sample_rate")
	}
	if v.IsSet("encoder.channels") {
		cfg.Encoder.Channels = v.GetInt("encoder.channels")
	}
	if v.IsSet("encoder.bitrate") {
		cfg.Encoder.Bitrate = v.GetString("encoder.bitrate")
	}
	if v.IsSet("encoder.codec") {
		cfg.Encoder.Codec = v.GetString("encoder.codec")
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet) {
	const col1 = 28
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "transcode-driver v" + version + " — batch audio-extraction driver"},
		{"", ""},
		{"  transcode-driver -i <input_root> [OPTIONS]", ""},
		{"", ""},
		{"Scan & scheduling", ""},
		{"  -i, --input <path>", "Root directory to scan (required)"},
		{"  -r, --recursive", "Recurse into subdirectories"},
		{"  -c, --concurrency <n>", "Worker pool size [1,25] (default 10)"},
		{"  -s, --scanners <n>", "Walker directory concurrency [1,20] (default 5)"},
		{"", ""},
		{"Modes", ""},
		{"  -d, --dry-run", "Scan only; print classification totals"},
		{"  -v, --verbose", "Forward encoder diagnostics to stderr"},
		{"  --verify", "Read-only ledger report of processing/failed records"},
		{"  --cleanup", "Delete target files of processing/failed records"},
		{"", ""},
		{"Encoder", ""},
		{"  --encoder-binary <path>", "Encoder binary (default ffmpeg)"},
		{"  --probe-binary <path>", "Probe binary (default ffprobe)"},
		{"  --sample-rate <hz>", "Output sample rate (default 16000)"},
		{"  --channels <n>", "Output channel count (default 1)"},
		{"  --bitrate <rate>", "Output audio bitrate (default 32k)"},
		{"  --codec <name>", "Output audio codec (default libmp3lame)"},
		{"", ""},
		{"Display & utility", ""},
		{"  --color <auto|always|never>", "Color mode (default auto)"},
		{"  --log-file <path>", "Also write log lines to this file"},
		{"  --config <path>", "Optional YAML/env overlay"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
