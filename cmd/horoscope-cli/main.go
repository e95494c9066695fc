// Command horoscope-cli submits the horoscope form from a terminal and saves the PDF to disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/cislenka/go-horoscope/internal/logging"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newCLI(), os.Args[1:])
	cancel()
	os.Exit(code)
}

// cli carries the process dependencies and the values of the persistent flags.
type cli struct {
	out    io.Writer
	errOut io.Writer

	prompter    Prompter
	interactive bool
	getenv      func(string) string
	clock       engine.Clock
	scheduler   engine.Scheduler
	logFile     string

	configPath string
	debug      bool
	endpoint   string
	user       string
	settings   Settings
	logCloser  io.Closer
}

func newCLI() *cli {
	return &cli{
		out:         os.Stdout,
		errOut:      os.Stderr,
		prompter:    surveyPrompter{},
		interactive: stdinIsTerminal(),
		getenv:      os.Getenv,
		clock:       engine.RealClock{},
		scheduler:   engine.RealScheduler{},
		logFile:     config.CLILogFileName,
	}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, c *cli, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	err := root.ExecuteContext(ctx)
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
	if err == nil {
		return config.ExitCodeSuccess
	}

	if reportedByNotification(err) {
		slog.Debug(config.ErrAppFailed,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err)
	} else {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err)
		fmt.Fprintln(c.errOut, err)
	}
	return exitCode(err)
}

// reportedByNotification reports whether the user already saw err as a notification line.
func reportedByNotification(err error) bool {
	var verr *engine.ValidationError
	var apiErr *engine.APIError
	return errors.As(err, &verr) || errors.As(err, &apiErr)
}

func exitCode(err error) int {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return config.ExitCodeInvalid
	}
	return config.ExitCodeError
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           config.CLIName,
		Short:         config.CmdDescRoot,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, config.FlagConfig, config.DefaultCLIConfigFile, config.FlagDescConfig)
	pf.BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&c.endpoint, config.FlagEndpoint, "", config.FlagDescEndpoint)
	pf.StringVar(&c.user, config.FlagUser, "", config.FlagDescUser)

	root.AddCommand(c.generateCmd(), c.statusCmd(), c.loginCmd(), c.versionCmd())
	return root
}

// setup configures logging and merges the settings file with the persistent flags.
func (c *cli) setup(cmd *cobra.Command) error {
	// stderr carries the notification lines; JSON records join them only with --debug.
	var console io.Writer
	if c.debug {
		console = c.errOut
	}
	c.logCloser = logging.Setup(logging.Options{
		Console:  console,
		FileName: c.logFile,
		Debug:    c.debug,
		Level:    slog.LevelWarn,
	})
	logging.StartupInfo(config.CompCLI)

	settings, err := loadSettings(c.configPath, cmd.Flags().Changed(config.FlagConfig))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed(config.FlagEndpoint) {
		settings.Endpoint = c.endpoint
	}
	if cmd.Flags().Changed(config.FlagUser) {
		settings.Username = c.user
	}
	c.settings = settings
	return nil
}

// clientConfig resolves the password from the environment first, then the keyring.
func (c *cli) clientConfig() engine.ClientConfig {
	cfg := engine.ClientConfig{
		BaseURL:  c.settings.Endpoint,
		Username: c.settings.Username,
	}
	if cfg.Username == "" {
		return cfg
	}

	if pwd := c.getenv(config.EnvPassword); pwd != "" {
		cfg.Password = pwd
		return cfg
	}
	pwd, err := keyring.Get(config.KeyringService, cfg.Username)
	if err != nil {
		slog.Debug(config.ErrPasswordNotFound,
			config.LogKeyUser, cfg.Username,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompCLI)
		return cfg
	}
	cfg.Password = pwd
	return cfg
}

type generateFlags struct {
	name      string
	dob       string
	code      string
	hType     string
	outputDir string
	noPrompt  bool
}

func (c *cli) generateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   config.CmdGenerate,
		Short: config.CmdDescGenerate,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed(config.FlagType) {
				f.hType = c.settings.HoroscopeType
			}
			if !cmd.Flags().Changed(config.FlagOutputDir) {
				f.outputDir = c.settings.OutputDir
			}
			return c.runGenerate(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.name, config.FlagName, "", config.FlagDescName)
	fl.StringVar(&f.dob, config.FlagDOB, "", config.FlagDescDOB)
	fl.StringVar(&f.code, config.FlagCode, "", config.FlagDescCode)
	fl.StringVar(&f.hType, config.FlagType, "", config.FlagDescType)
	fl.StringVar(&f.outputDir, config.FlagOutputDir, "", config.FlagDescOutputDir)
	fl.BoolVar(&f.noPrompt, config.FlagNoPrompt, false, config.FlagDescNoPrompt)
	return cmd
}

func (c *cli) runGenerate(ctx context.Context, f generateFlags) error {
	hType, err := engine.ParseHoroscopeType(f.hType)
	if err != nil {
		return err
	}
	in := engine.FormInput{Name: f.name, DOB: f.dob, Code: f.code, HoroscopeType: hType}

	if !engine.Validate(in, c.clock.Now()).Valid() {
		switch {
		case f.noPrompt:
			// Submit reports the invalid fields.
		case !c.interactive:
			slog.Debug(config.ErrNotInteractive, config.LogKeyComponent, config.CompCLI)
		default:
			if in, err = askMissing(ctx, c.prompter, in, c.clock.Now()); err != nil {
				return err
			}
		}
	}

	queue := engine.NewNotificationQueue(nil, c.scheduler)
	defer queue.Close()
	defer queue.Subscribe(c.notificationPrinter())()

	artifacts := engine.NewArtifactHandler(engine.DirSink{Dir: f.outputDir})
	artifacts.Clock = c.clock

	ctrl := engine.NewController(engine.NewHTTPClient(c.clientConfig()), queue, c.scheduler, artifacts)
	ctrl.Clock = c.clock
	ctrl.DefaultType = hType

	if err := ctrl.Submit(ctx, in); err != nil {
		return err
	}

	path, err := ctrl.Download()
	if err != nil {
		slog.Error(config.MsgDownloadFailed,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err)
		return err
	}

	slog.Info(config.MsgDocumentSaved,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyPath, path)
	fmt.Fprintf(c.out, config.MsgSavedTo, path)
	return nil
}

// notificationPrinter writes each notification to stderr once, when it first appears.
func (c *cli) notificationPrinter() func([]engine.Notification) {
	var mu sync.Mutex
	seen := make(map[int64]bool)
	return func(items []engine.Notification) {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range items {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			fmt.Fprintf(c.errOut, config.FormatNotifLine, strings.ToUpper(string(n.Kind)), n.Message)
		}
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdStatus,
		Short: config.CmdDescStatus,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.clientConfig()
			if err := engine.NewHTTPClient(cfg).Health(cmd.Context()); err != nil {
				slog.Warn(config.MsgHealthFailed,
					config.LogKeyComponent, config.CompCLI,
					config.LogKeyError, err)
				return err
			}
			slog.Info(config.MsgHealthOK, config.LogKeyComponent, config.CompCLI)
			fmt.Fprintf(c.out, config.MsgStatusOK, cfg.BaseURL)
			return nil
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdLogin,
		Short: config.CmdDescLogin,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := c.settings.Username
			if user == "" {
				return errors.New(config.ErrUserRequired)
			}

			pwd, err := c.prompter.Password(cmd.Context(), InputConfig{
				Message: fmt.Sprintf(config.PromptPassword, user),
				Validator: func(s string) error {
					if s == "" {
						return errors.New(config.ErrPasswordEmpty)
					}
					return nil
				},
			})
			if err != nil {
				return err
			}

			if err := keyring.Set(config.KeyringService, user, pwd); err != nil {
				return fmt.Errorf("%s: %w", config.ErrKeyringSave, err)
			}
			fmt.Fprintf(c.out, config.MsgPasswordSaved, user)
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.CmdDescVersion,
		Args:  cobra.NoArgs,
		// The version needs neither settings nor logging.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.out, config.MsgVersionOutput,
				config.AppName,
				config.Version,
				runtime.GOOS,
				runtime.GOARCH,
			)
		},
	}
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
