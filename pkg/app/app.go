// Package app runs short lived command line tools with the shared config,
// logging and metrics setup every command needs.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/code-payments/reward-vault/pkg/metrics"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

const newRelicShutdownTimeout = 5 * time.Second

// Command is a single subcommand of a tool.
type Command struct {
	Name    string
	Summary string

	// Flags registers the command's flags. Every flag is bound into viper
	// under its name with dashes replaced by underscores.
	Flags func(flags *pflag.FlagSet)

	// Run executes the command with the arguments left after flag parsing.
	// Output meant for the user goes to out.
	Run func(ctx context.Context, args []string, out io.Writer) error
}

// Run parses args, loads configuration and executes the selected command.
func Run(tool string, args []string, out io.Writer, commands ...*Command) error {
	logger := logrus.StandardLogger().WithField("type", "app")

	byName := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		byName[cmd.Name] = cmd
	}

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out, tool, commands)
		return ErrUsage
	}

	cmd, ok := byName[args[0]]
	if !ok {
		printUsage(out, tool, commands)
		return errors.Wrap(ErrUnknownCommand, args[0])
	}

	flags := pflag.NewFlagSet(fmt.Sprintf("%s %s", tool, cmd.Name), pflag.ContinueOnError)
	flags.SetOutput(out)
	configPath := flags.String("config", "", "configuration file path")
	flags.String("log-level", defaultConfig.LogLevel, "log level")
	flags.String("log-format", defaultConfig.LogFormat, "log format (text or json)")
	flags.Duration("timeout", defaultConfig.Timeout, "command timeout")
	if cmd.Flags != nil {
		cmd.Flags(flags)
	}

	if err := flags.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return ErrUsage
		}
		return err
	}

	if err := bindFlags(flags); err != nil {
		return err
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		return err
	}
	if len(config.AppName) == 0 {
		config.AppName = tool
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
			return err
		}
		defer metricsProvider.Shutdown(newRelicShutdownTimeout)
	}

	configureLogger(config, metricsProvider)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if config.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, config.Timeout)
		defer cancelTimeout()
	}

	ctx = metrics.NewContext(ctx, metricsProvider)
	if metricsProvider != nil {
		txn := metricsProvider.StartTransaction(fmt.Sprintf("%s/%s", tool, cmd.Name))
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	log := logger.WithField("command", cmd.Name)
	log.Debug("running command")

	if err := cmd.Run(ctx, flags.Args(), out); err != nil {
		log.WithError(err).Debug("command failed")
		return err
	}
	return nil
}

// bindFlags makes flags visible through viper. A flag only overrides the
// environment and config file when it was set explicitly.
func bindFlags(flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name == "config" || bindErr != nil {
			return
		}
		bindErr = viper.BindPFlag(strings.ReplaceAll(flag.Name, "-", "_"), flag)
	})
	return bindErr
}

func loadConfig(configPath string) (BaseConfig, error) {
	if len(configPath) > 0 {
		// viper only reports a missing file it had to search for, so an
		// explicit path is checked here.
		if _, err := os.Stat(configPath); err != nil {
			return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
		}

		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return BaseConfig{}, errors.Wrap(err, "failed to read config")
		}
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	var formatter logrus.Formatter = &logrus.TextFormatter{}
	if strings.ToLower(config.LogFormat) == "json" {
		formatter = &logrus.JSONFormatter{}
	}

	if metricsProvider != nil {
		formatter = metrics.NewLogFormatter(metricsProvider, formatter)
	}
	logrus.SetFormatter(formatter)

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	// Command output owns stdout.
	logrus.SetOutput(os.Stderr)
}

func printUsage(out io.Writer, tool string, commands []*Command) {
	sorted := make([]*Command, len(commands))
	copy(sorted, commands)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	fmt.Fprintf(out, "usage: %s <command> [args] [flags]\n\ncommands:\n", tool)
	for _, cmd := range sorted {
		fmt.Fprintf(out, "  %-14s %s\n", cmd.Name, cmd.Summary)
	}
}
