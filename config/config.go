// Package config defines the configuration surface for applications
// embedding the registry engine.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/curatelabs/tcr/params"
)

const (
	defaultConfigFilename = "tcr.conf"
	defaultDataDirname    = "data"
	defaultLogFilename    = "tcr.log"
)

//nolint:lll
type Config struct {
	TCRDir     string `long:"tcrdir"     description:"The base directory that contains the registry's data, logs and configuration file"`
	ConfigFile string `short:"c" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir"    description:"The directory to store the registry state within"`
	LogFile    string `long:"logfile"    description:"Path to the rotated log file (empty for stdout only)"`
	DebugLog   bool   `long:"debuglog"   description:"Enable debug logs"`
	JSONLog    bool   `long:"jsonlog"    description:"Whether to log in JSON format"`

	EscrowAccount   string `long:"escrow-account"   description:"Ledger account holding bonded stake and reward pools"`
	EmissionAccount string `long:"emission-account" description:"Ledger account funding inflation pools (empty disables inflation)"`

	Params Params `group:"params" namespace:"param"`
}

// Params are the governance-parameter defaults used when no external
// parameter store is wired in. Durations are in seconds.
//
//nolint:lll
type Params struct {
	MinDeposit        uint64 `long:"min-deposit"         description:"Minimum application deposit and challenge bond"`
	ApplyStageLength  uint64 `long:"apply-stage-length"  description:"Length of the application window in seconds"`
	CommitStageLength uint64 `long:"commit-stage-length" description:"Length of the vote commit window in seconds"`
	RevealStageLength uint64 `long:"reveal-stage-length" description:"Length of the vote reveal window in seconds"`
	DispensationPct   uint64 `long:"dispensation-pct"    description:"Percentage of the forfeited stake paid to the winning party"`
	VoteQuorum        uint64 `long:"vote-quorum"         description:"Percentage of revealed weight the applicant side must exceed"`
	InflationAmount   uint64 `long:"inflation-amount"    description:"Tokens emitted into each challenge's inflation pool"`
}

// Store builds an in-memory parameter store from the configured
// defaults.
func (p Params) Store() params.Map {
	return params.Map{
		params.MinDeposit:        p.MinDeposit,
		params.ApplyStageLength:  p.ApplyStageLength,
		params.CommitStageLength: p.CommitStageLength,
		params.RevealStageLength: p.RevealStageLength,
		params.DispensationPct:   p.DispensationPct,
		params.VoteQuorum:        p.VoteQuorum,
		params.InflationAmount:   p.InflationAmount,
	}
}

func DefaultConfig() *Config {
	tcrDir := defaultTCRDir()
	defaults := params.Defaults()
	return &Config{
		TCRDir:        tcrDir,
		ConfigFile:    filepath.Join(tcrDir, defaultConfigFilename),
		DataDir:       filepath.Join(tcrDir, defaultDataDirname),
		LogFile:       filepath.Join(tcrDir, defaultLogFilename),
		EscrowAccount: "tcr/escrow",
		Params: Params{
			MinDeposit:        defaults[params.MinDeposit],
			ApplyStageLength:  defaults[params.ApplyStageLength],
			CommitStageLength: defaults[params.CommitStageLength],
			RevealStageLength: defaults[params.RevealStageLength],
			DispensationPct:   defaults[params.DispensationPct],
			VoteQuorum:        defaults[params.VoteQuorum],
			InflationAmount:   defaults[params.InflationAmount],
		},
	}
}

// DefaultCfgPaths returns the default locations probed for a config
// file: the working directory first, then the user's home.
func DefaultCfgPaths() []string {
	return []string{
		defaultConfigFilename,
		filepath.Join(defaultTCRDir(), defaultConfigFilename),
	}
}

// ReadConfigFile loads configuration on top of preCfg. If preCfg names a
// config file explicitly it must exist and parse; otherwise the provided
// default paths are probed in order and missing ones are skipped.
func ReadConfigFile(preCfg *Config, defaultPaths ...string) (*Config, error) {
	cfg := preCfg
	if cfg.ConfigFile != "" {
		path := cleanAndExpandPath(cfg.ConfigFile)
		if err := flags.IniParse(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return cfg, nil
	}

	for _, path := range defaultPaths {
		path = cleanAndExpandPath(path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := flags.IniParse(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return cfg, nil
	}
	return cfg, nil
}

func defaultTCRDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tcr"
	}
	return filepath.Join(home, ".tcr")
}

// cleanAndExpandPath expands a leading ~ to the user's home directory
// and normalizes the result.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			if u, uerr := user.Current(); uerr == nil {
				home = u.HomeDir
			}
		}
		if home != "" {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}
