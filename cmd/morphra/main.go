//  BYZRA ⸻ cmd/main.go <>
// +-----------------------------------------------------------+
//  88b   d88  ,dbPPPb,  888PPPb  888PPPb  888  888 888PPPb   ,8b.  |
//  888b d888  d8'   `8b 888   8b 888   8b 888  888 888   8b  88'8o |
//  88 Y8P 88  88     88 888PPPP' 888PPPP' 888PP888 888PPPP'  88PPY8.|____________________________________
//  88  V  88  `8bdddP'  888  `8b 888      888  888 888  `8b  8b   `Y' .go <--| CLI entrypoint and command routing +

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"morphra/internal/analyse"
	"morphra/internal/config"
	"morphra/internal/convert"
	"morphra/internal/daemon"
	"morphra/internal/formats"
	"morphra/internal/logging"
	"morphra/internal/util"
)

const version = "1.0.0"

// exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	printHeader()

	if len(args) < 1 {
		printUsage()
		return exitFailure
	}

	command := args[0]

	switch command {
	case "convert":
		return handleConvertCommand(args[1:])
	case "inspect", "analyse", "analyze":
		return handleInspectCommand(args[1:])
	case "watch":
		return handleWatchCommand(args[1:])
	case "init":
		return handleInitCommand(args[1:])
	case "help", "--help", "-h":
		printUsage()
		return exitOK
	case "version", "--version":
		printVersion()
		return exitOK
	default:
		fmt.Println(util.WRN.Render("[!] Unknown command: " + command))
		printUsage()
		return exitFailure
	}
}

func fail(msg string) int {
	fmt.Println(util.ErrorSymbol() + " " + util.ERR.Render(msg))
	return exitFailure
}

// config file, then profile.lua, flags are applied by the caller
func loadSettings(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	profile, profilePath, err := config.FindProfile()
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profilePath, err)
	}
	if profile != nil {
		if err := cfg.ApplyProfile(profile); err != nil {
			return nil, fmt.Errorf("profile %s: %w", profilePath, err)
		}
	}

	return cfg, nil
}

func converterOptions(cfg *config.Config) convert.Options {
	return convert.Options{
		Tools: convert.Tools{
			DWebP:   cfg.Tools.DWebP,
			AVIFDec: cfg.Tools.AVIFDec,
			CWebP:   cfg.Tools.CWebP,
			AVIFEnc: cfg.Tools.AVIFEnc,
		},
		JPEGQuality: cfg.Convert.JPEGQuality,
		AutoOrient:  cfg.Convert.AutoOrient,
	}
}

// file logger, falls back to console only when the log file is unusable
func openLogger(cfg *config.Config, verbose bool) (*zap.Logger, func()) {
	logger, sink, err := logging.New(logging.Options{
		Path:    cfg.Log.Path,
		Verbose: verbose || cfg.Log.Verbose,
		MaxSize: cfg.Log.MaxSize,
	})
	if err != nil {
		fmt.Println(util.WarningSymbol() + " " + util.WRN.Render("Log file unavailable: "+err.Error()))
		logger, sink, _ = logging.New(logging.Options{Verbose: verbose})
	}

	return logger, func() {
		logger.Sync()
		if sink != nil {
			sink.Close()
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func handleConvertCommand(args []string) int {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	to := fs.StringP("to", "t", "", "target format ("+strings.Join(formats.TargetTokens(), ", ")+")")
	recurse := fs.BoolP("recurse", "r", false, "also convert the files of each immediate subdirectory")
	configPath := fs.StringP("config", "c", "", "config file")
	verbose := fs.BoolP("verbose", "v", false, "log to stderr as well")

	if err := fs.Parse(args); err != nil {
		return fail(err.Error())
	}

	if fs.NArg() < 1 {
		fmt.Println(util.ErrorSymbol() + " " + util.ERR.Render("No path specified for conversion"))
		fmt.Println(util.SUB.Render("Usage: morphra convert <path> [--to fmt] [--recurse]"))
		return exitFailure
	}

	cfg, err := loadSettings(*configPath)
	if err != nil {
		return fail("Configuration error: " + err.Error())
	}
	if fs.Changed("to") {
		cfg.Convert.Target = *to
	}
	if fs.Changed("recurse") {
		cfg.Convert.Recurse = *recurse
	}

	target, err := formats.ParseTarget(cfg.Convert.Target)
	if err != nil {
		return fail(err.Error())
	}

	path, err := util.CleanPath(fs.Arg(0))
	if err != nil {
		return fail(err.Error())
	}
	info, err := os.Stat(path)
	if err != nil {
		return fail("Path not found: " + fs.Arg(0))
	}

	logger, closeLog := openLogger(cfg, *verbose)
	defer closeLog()

	ctx, stop := signalContext()
	defer stop()

	fmt.Println(util.NSH.Render(fmt.Sprintf("[~] Converting %s to %s", path, target.Ext)))

	opts := []convert.WalkerOption{convert.WithPace(cfg.Convert.Pace.Duration)}
	if !*verbose {
		bar := util.NewProgressBar(os.Stdout, 40)
		opts = append(opts, convert.WithProgress(func(completed, total int, file string) {
			bar.Update(completed, total, filepath.Base(file))
		}))
	}

	walker := convert.NewWalker(convert.NewConverter(converterOptions(cfg), logger), logger, opts...)
	summary, err := walker.Walk(ctx, path, info.IsDir(), cfg.Convert.Recurse, target.Ext)

	switch {
	case errors.Is(err, context.Canceled):
		util.ClearLine(os.Stdout)
		fmt.Println(util.WarningSymbol() + " " + util.WRN.Render("Interrupted: "+summary.String()))
		return exitInterrupted
	case err != nil:
		return fail("Conversion failed: " + err.Error())
	}

	if summary.Total == 0 {
		fmt.Println(util.InfoSymbol() + " " + util.SUB.Render("Nothing to convert"))
		return exitOK
	}

	if summary.Failed() > 0 {
		fmt.Println(util.WarningSymbol() + " " + util.WRN.Render(summary.String()))
		fmt.Println(util.SUB.Render("Details in " + cfg.Log.Path))
		return exitFailure
	}

	fmt.Println(util.SuccessSymbol() + " " + util.LBL.Render(summary.String()))
	return exitOK
}

func handleInspectCommand(args []string) int {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	to := fs.StringP("to", "t", "", "target format to plan for")
	recurse := fs.BoolP("recurse", "r", false, "also inspect the files of each immediate subdirectory")
	configPath := fs.StringP("config", "c", "", "config file")
	plain := fs.Bool("plain", false, "machine-readable output")

	if err := fs.Parse(args); err != nil {
		return fail(err.Error())
	}

	if fs.NArg() < 1 {
		fmt.Println(util.ErrorSymbol() + " " + util.ERR.Render("No path specified for inspection"))
		fmt.Println(util.SUB.Render("Usage: morphra inspect <path> [--to fmt] [--recurse]"))
		return exitFailure
	}

	cfg, err := loadSettings(*configPath)
	if err != nil {
		return fail("Configuration error: " + err.Error())
	}
	if fs.Changed("to") {
		cfg.Convert.Target = *to
	}
	if fs.Changed("recurse") {
		cfg.Convert.Recurse = *recurse
	}

	target, err := formats.ParseTarget(cfg.Convert.Target)
	if err != nil {
		return fail(err.Error())
	}

	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		return fail("Path not found: " + path)
	}

	opts := analyse.Options{Target: target, Tools: converterOptions(cfg).Tools}

	if *plain {
		reports, err := analyse.AnalyzeTree(path, info.IsDir(), cfg.Convert.Recurse, opts)
		if err != nil {
			return fail("Analysis failed: " + err.Error())
		}
		for _, report := range reports {
			fmt.Println(analyse.GenerateSimplifiedReport(report))
		}
		return exitOK
	}

	fmt.Println(util.NSH.Render("[~] Inspecting: " + path))

	var blocked bool
	result, err := util.SpinWhile("[~] Planning conversion", func() (string, error) {
		reports, err := analyse.AnalyzeTree(path, info.IsDir(), cfg.Convert.Recurse, opts)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		for _, report := range reports {
			sb.WriteString(analyse.GenerateReport(report))
			sb.WriteString("\n")
			blocked = blocked || report.Blocked()
		}
		if len(reports) > 1 {
			sb.WriteString(analyse.GenerateSummary(reports))
		}
		return sb.String(), nil
	})

	if err != nil {
		return fail("Analysis failed: " + err.Error())
	}

	fmt.Println(util.SuccessSymbol() + " " + util.LBL.Render("Inspection completed, nothing was changed"))
	fmt.Println(result)

	if blocked {
		return exitFailure
	}
	return exitOK
}

func handleWatchCommand(args []string) int {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	to := fs.StringP("to", "t", "", "target format")
	recursive := fs.BoolP("recursive", "r", false, "watch subdirectories too")
	configPath := fs.StringP("config", "c", "", "config file")
	verbose := fs.BoolP("verbose", "v", false, "log to stderr as well")

	if err := fs.Parse(args); err != nil {
		return fail(err.Error())
	}

	cfg, err := loadSettings(*configPath)
	if err != nil {
		return fail("Configuration error: " + err.Error())
	}
	if fs.Changed("to") {
		cfg.Convert.Target = *to
	}
	if fs.Changed("recursive") {
		cfg.Watch.Recursive = *recursive
	}
	if fs.NArg() > 0 {
		cfg.Watch.Paths = fs.Args()
	}

	logger, closeLog := openLogger(cfg, *verbose)
	defer closeLog()

	d, err := daemon.NewDaemon(daemon.OptionsFromConfig(cfg), convert.NewConverter(converterOptions(cfg), logger), logger)
	if err != nil {
		return fail("Failed to create daemon: " + err.Error())
	}

	ctx, stop := signalContext()
	defer stop()

	if err := d.Start(ctx); err != nil {
		return fail("Failed to start daemon: " + err.Error())
	}

	status := d.Status()
	fmt.Println(util.SuccessSymbol() + " " + util.LBL.Render("Watching for new images, Ctrl+C to stop"))
	for _, dir := range status.WatchedDirs {
		fmt.Println(" " + util.Ornament + " " + util.NSH.Render(dir))
	}
	fmt.Println(util.SUB.Render("Converting to " + status.Target + ", log at " + cfg.Log.Path))

	<-ctx.Done()

	if err := d.Stop(); err != nil {
		fmt.Println(util.WarningSymbol() + " " + util.WRN.Render("Watcher stopped with error: "+err.Error()))
	}

	fmt.Println(util.InfoSymbol() + " " + util.SUB.Render("Stopped: "+d.Status().Summary.String()))
	return exitOK
}

func handleInitCommand(args []string) int {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	path := fs.StringP("config", "c", filepath.Join(config.HomeDir(), "config", "morphra.toml"), "where to write the config")
	force := fs.BoolP("force", "f", false, "overwrite an existing file")

	if err := fs.Parse(args); err != nil {
		return fail(err.Error())
	}

	if util.Exists(*path) && !*force {
		fmt.Println(util.WarningSymbol() + " " + util.WRN.Render("Config already exists: "+*path))
		fmt.Println(util.SUB.Render("Use --force to overwrite it"))
		return exitFailure
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), *path); err != nil {
		return fail("Could not write config: " + err.Error())
	}

	fmt.Println(util.SuccessSymbol() + " " + util.LBL.Render("Default config written to "+*path))
	return exitOK
}

func printHeader() {
	const art = `
	88b   d88  ,dbPPPb,  888PPPb  888PPPb  888  888 888PPPb   ,8b.
	888b d888  d8'   ´8b 888   8b 888   8b 888  888 888   8b  88'8o
	88 Y8P 88  88     88 888PPPP' 888PPPP' 888PP888 888PPPP'  88PPY8.
	88  V  88  ´8bdddP'  888  ´8b 888      888  888 888  ´8b  8b   ´Y'
`

	fmt.Printf("\n%s\n", util.LBL.Render(art))
	fmt.Printf("%s %s\n\n",
		util.NSH.Render("	→"),
		util.SUB.Render("CLI Image Format Converter"))
}

func printUsage() {
	fmt.Println(util.LBL.Render("USAGE"))
	fmt.Println("  morphra <command> [options]")
	fmt.Println("")
	fmt.Println(util.LBL.Render("COMMANDS"))
	fmt.Println("  convert <path>          convert a file or the files of a folder")
	fmt.Println("  inspect <path>          show what convert would do, change nothing")
	fmt.Println("  watch [dir...]          convert images as they land in a folder")
	fmt.Println("  init                    write the default config file")
	fmt.Println("  help                    show this help information")
	fmt.Println("  version                 show version information")
	fmt.Println("")
	fmt.Println(util.LBL.Render("OPTIONS"))
	fmt.Println("  -t, --to <fmt>          target format: " + strings.Join(formats.TargetTokens(), ", "))
	fmt.Println("  -r, --recurse           convert/inspect: also one level of subfolders")
	fmt.Println("  -r, --recursive         watch: include subfolders")
	fmt.Println("  -c, --config <file>     config file (default: search config/, ./, ~/.morphra/config/)")
	fmt.Println("  -v, --verbose           also log to stderr")
	fmt.Println("      --plain             inspect: machine-readable output")
	fmt.Println("  -f, --force             init: overwrite an existing config")
	fmt.Println("")
	fmt.Println(util.LBL.Render("EXTERNAL TOOLS"))
	fmt.Println("  dwebp, avifdec          decode webp and avif sources")
	fmt.Println("  cwebp, avifenc          encode webp and avif targets")
}

func printVersion() {
	fmt.Println(util.LBL.Render("MORPHRA v" + version))
	fmt.Println(util.LBL.Render("→ A CLI image format converter"))
	fmt.Println("")
	fmt.Println(util.NSH.Render("Copyright (c) 2025 bxavaby"))
}
