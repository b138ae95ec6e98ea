package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/watscheck/internal/config"
	"github.com/dshills/watscheck/internal/logger"
	"github.com/dshills/watscheck/internal/profile"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	strs := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"profile", &values.Profile},
		{"format", &values.Format},
		{"fail-on", &values.FailOn},
		{"log-mode", &values.LogMode},
		{"log-level", &values.LogLevel},
		{"ledger", &values.LedgerPath},
		{"provider", &values.Provider},
		{"model", &values.Model},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		v, err := flags.GetString(s.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", s.name, err)
		}
		*s.dst = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("record") {
		v, err := flags.GetBool("record")
		if err != nil {
			return values, fmt.Errorf("parse --record: %w", err)
		}
		values.Record = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}

// env is the resolved configuration shared by every command.
type env struct {
	cfg  config.Config
	log  *logger.Logger
	prof profile.Profile
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, exitWith(exitCodeBadInput, err)
	}

	values, err := gatherFlags(cmd)
	if err != nil {
		return nil, exitWith(exitCodeBadInput, err)
	}
	config.ApplyFlags(&cfg, values)

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, exitWith(exitCodeBadInput, err)
	}
	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		return nil, exitWith(exitCodeBadInput, err)
	}
	return &env{cfg: cfg, log: log.With("cmd", cmd.Name()), prof: prof}, nil
}

// intFlag returns the flag value when it was set on the command line.
func intFlag(flags *pflag.FlagSet, name string, fallback int) int {
	if !flags.Changed(name) {
		return fallback
	}
	v, err := flags.GetInt(name)
	if err != nil {
		return fallback
	}
	return v
}

func stringFlag(flags *pflag.FlagSet, name, fallback string) string {
	if !flags.Changed(name) {
		return fallback
	}
	v, err := flags.GetString(name)
	if err != nil {
		return fallback
	}
	return v
}

// output returns the --out file when given, otherwise the command's stdout.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, exitWith(exitCodeBadInput, fmt.Errorf("create %s: %w", path, err))
	}
	return f, f.Close, nil
}

func readInput(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, exitWith(exitCodeBadInput, fmt.Errorf("read %s: %w", path, err))
	}
	return raw, nil
}
