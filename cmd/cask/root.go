package main

import (
	"errors"
	"fmt"

	"github.com/cask-engine/cask/internal/config"
	"github.com/cask-engine/cask/internal/data"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

var errNoPlugins = errors.New("no plugin paths given")

// flags shared by every subcommand.
type rootFlags struct {
	configPath string
	pluginSet  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "cask",
		Short: "Plugin host with a fixed-timestep loop",
		Long: `cask loads plugin modules (.so Go plugins, .lua scripts, .wasm modules),
initializes them in dependency order over a shared component store and drives
them with a fixed-timestep loop until interrupted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "TOML config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	root.PersistentFlags().StringVarP(&flags.pluginSet, "plugins", "p", "", "YAML plugin-set file loaded before the arguments")

	root.AddCommand(newRunCmd(flags), newOrderCmd(flags))
	return root
}

// session is what every subcommand needs before touching plugins.
type session struct {
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	paths   []string
}

func (f *rootFlags) open(args []string) (*session, error) {
	cfg, cfgPath, err := config.Resolve(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	paths := append([]string{}, cfg.Plugins.Paths...)
	setPath := f.pluginSet
	if setPath == "" {
		setPath = cfg.Plugins.Set
	}
	if setPath != "" {
		set, err := data.LoadPluginSet(setPath)
		if err != nil {
			return nil, err
		}
		paths = append(paths, set.Paths()...)
	}
	paths = append(paths, args...)
	if len(paths) == 0 {
		return nil, errNoPlugins
	}
	return &session{cfg: cfg, cfgPath: cfgPath, log: log, paths: paths}, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
