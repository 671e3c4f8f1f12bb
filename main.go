// Package main provides the entry point for the utter CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/utter/internal/audio"
	"github.com/dgnsrekt/utter/internal/sanitize"
	"github.com/dgnsrekt/utter/internal/speech"
	"github.com/dgnsrekt/utter/internal/speech/engines/edge"
	"github.com/dgnsrekt/utter/internal/speech/engines/espeak"
	"github.com/dgnsrekt/utter/internal/speech/engines/mock"
	"github.com/dgnsrekt/utter/internal/speech/engines/piper"
	"github.com/dgnsrekt/utter/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	voice      string
	rate       float64
	volume     float64
	maxLength  int
	onOverflow string
	strict     bool

	overflowPolicy sanitize.OverflowPolicy

	rootCmd = &cobra.Command{
		Use:   "utter [TEXT]...",
		Short: "Speak text from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text from the terminal, %s.", keyword("out loud")),
		),
		Example:       paragraph("utter hello world\necho hello | utter\nutter --engine espeak --rate 1.2 'slow down'"),
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// knownEngines is the fixed set of speech backends. Selection is a switch in
// newEngine, not reflection.
var knownEngines = []string{"espeak", "piper", "edge", "mock"}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	engineName = viper.GetString("engine")
	voice = viper.GetString("voice")
	rate = viper.GetFloat64("rate")
	volume = viper.GetFloat64("volume")
	maxLength = viper.GetInt("max_length")
	onOverflow = viper.GetString("on_overflow")
	strict = viper.GetBool("strict")

	found := false
	for _, e := range knownEngines {
		if engineName == e {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown engine %q (choose from %s)", engineName, strings.Join(knownEngines, ", "))
	}

	if rate < 0.1 || rate > 3.0 {
		return fmt.Errorf("rate must be between 0.1 and 3.0, got %.2f", rate)
	}
	if volume < 0 || volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %.2f", volume)
	}
	if maxLength < 1 {
		return fmt.Errorf("max-length must be positive, got %d", maxLength)
	}

	var err error
	overflowPolicy, err = sanitize.ParseOverflowPolicy(onOverflow)
	if err != nil {
		return err
	}

	if engineName == "piper" && viper.GetString("piper.model") == "" {
		return errors.New("piper engine requires piper.model in the config file")
	}

	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	// if stdin is a pipe then speak stdin. note that you can also pass the
	// text as arguments.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("unable to read stdin: %w", err)
		}
		return speakOnce(string(b))
	}

	if len(args) > 0 {
		return speakOnce(strings.Join(args, " "))
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("no text given and stdout is not a terminal")
	}
	return runTUI()
}

func newSanitizer() *sanitize.Sanitizer {
	return sanitize.New(sanitize.Policy{
		MaxLength: maxLength,
		Overflow:  overflowPolicy,
		Strict:    strict,
	})
}

func newEngine() speech.Engine {
	switch engineName {
	case "piper":
		return piper.New(expandPath(viper.GetString("piper.model")))
	case "edge":
		return edge.New()
	case "mock":
		return mock.New()
	default:
		return espeak.New()
	}
}

// newDispatcher builds and initializes the full speech pipeline.
func newDispatcher(drain bool) (*speech.Dispatcher, error) {
	player, err := audio.NewPlayer(volume)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}

	cfg := speech.DefaultDispatcherConfig()
	cfg.DrainOnShutdown = drain
	d := speech.New(newEngine(), player, cfg)

	if err := d.Initialize(speech.EngineConfig{
		Voice:  voice,
		Rate:   rate,
		Volume: volume,
	}); err != nil {
		_ = player.Close()
		return nil, err
	}
	return d, nil
}

// speakOnce sanitizes the text, speaks it, and waits for playback to finish.
func speakOnce(text string) error {
	sanitizer := newSanitizer()
	utt, err := sanitizer.Sanitize(text)
	if err != nil {
		return err
	}

	dispatcher, err := newDispatcher(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req, err := dispatcher.Enqueue(utt)
	if err != nil {
		return err
	}

	waitErr := req.Wait(ctx)
	if errors.Is(waitErr, context.Canceled) {
		req.Cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), speech.DefaultDispatcherConfig().SynthesisTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	return waitErr
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Engine = engineName
	cfg.Voice = voice
	cfg.Rate = rate
	cfg.Volume = volume
	cfg.MaxLength = maxLength
	cfg.Overflow = overflowPolicy.String()
	cfg.Strict = strict

	sanitizer := newSanitizer()
	dispatcher, err := newDispatcher(false)
	if err != nil {
		return err
	}

	// Run Bubble Tea program
	_, runErr := ui.NewProgram(cfg, sanitizer, dispatcher).Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), speech.DefaultDispatcherConfig().SynthesisTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	if runErr != nil {
		return fmt.Errorf("unable to run tui program: %w", runErr)
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "espeak", "speech engine ("+strings.Join(knownEngines, "/")+")")
	rootCmd.Flags().StringVar(&voice, "voice", "", "voice identifier (engine-specific)")
	rootCmd.Flags().Float64VarP(&rate, "rate", "r", 1.0, "speech rate multiplier")
	rootCmd.Flags().Float64Var(&volume, "volume", 1.0, "playback volume (0.0 to 2.0)")
	rootCmd.Flags().IntVar(&maxLength, "max-length", sanitize.DefaultMaxLength, "maximum utterance length in characters")
	rootCmd.Flags().StringVar(&onOverflow, "on-overflow", "reject", "over-length handling (reject/truncate)")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "reject input containing disallowed characters instead of stripping them")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("max_length", rootCmd.Flags().Lookup("max-length"))
	_ = viper.BindPFlag("on_overflow", rootCmd.Flags().Lookup("on-overflow"))
	_ = viper.BindPFlag("strict", rootCmd.Flags().Lookup("strict"))

	viper.SetDefault("engine", "espeak")
	viper.SetDefault("voice", "")
	viper.SetDefault("rate", 1.0)
	viper.SetDefault("volume", 1.0)
	viper.SetDefault("max_length", sanitize.DefaultMaxLength)
	viper.SetDefault("on_overflow", "reject")
	viper.SetDefault("strict", false)
	viper.SetDefault("piper.model", "")

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "utter")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "utter")}, dirs...)
	}

	if c := os.Getenv("UTTER_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("utter")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("utter")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "utter.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
