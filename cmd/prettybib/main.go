// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the prettybib CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/delanoflipse/pretty-bib/internal/httputil"
	"github.com/delanoflipse/pretty-bib/internal/logging"
	"github.com/delanoflipse/pretty-bib/internal/resolve"
	"github.com/delanoflipse/pretty-bib/internal/secrets"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the effective configuration, resolved before any subcommand runs.
	cfg types.Config

	logger *log.Logger

	// loadedSecrets holds values from .secrets/ and .env.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the prettybib CLI.
var rootCmd = &cobra.Command{
	Use:   "prettybib",
	Short: "Enrich and tidy BibTeX bibliographies",
	Long: `prettybib resolves every entry of a BibTeX file against DBLP, doi.org and
Crossref, merges the canonical metadata into the entry, drops unwanted fields
and writes a normalized copy next to the input.

The snowball subcommand collects the works cited by each entry instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(os.Stderr, c.LogLevel)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.LoadAll(".secrets/", ".env", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		applySecrets(&c, s)

		cfg = c
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./prettybib.yaml or ~/.config/prettybib/prettybib.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	registerDefaults(types.DefaultConfig())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("prettybib")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "prettybib"))
		}
	}

	viper.SetEnvPrefix("PRETTYBIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every setting visible to viper, so environment
// overrides apply even to keys absent from the config file.
func registerDefaults(d types.Config) {
	viper.SetDefault("log_level", d.LogLevel)

	viper.SetDefault("http.timeout", d.HTTP.Timeout)
	viper.SetDefault("http.user_agent", d.HTTP.UserAgent)
	viper.SetDefault("http.mailto", d.HTTP.Mailto)
	viper.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	viper.SetDefault("http.requests_per_second", d.HTTP.RequestsPerSecond)

	viper.SetDefault("resolve.order", d.Resolve.Order)

	viper.SetDefault("filter.global", d.Filter.Global)
	viper.SetDefault("filter.per_type", d.Filter.PerType)
	viper.SetDefault("filter.drop_redundant_issn", d.Filter.DropRedundantISSN)

	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.path", d.Cache.Path)
	viper.SetDefault("cache.ttl", d.Cache.TTL)

	viper.SetDefault("enrich.workers", d.Enrich.Workers)
	viper.SetDefault("enrich.report_path", d.Enrich.ReportPath)
}

func loadConfig() (types.Config, error) {
	var c types.Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

// applySecrets fills contact details the configuration left at their
// defaults.
func applySecrets(c *types.Config, s map[string]string) {
	if c.HTTP.Mailto == "" {
		c.HTTP.Mailto = s[secrets.KeyMailto]
	}
	if ua, ok := s[secrets.KeyUserAgent]; ok && c.HTTP.UserAgent == types.DefaultConfig().HTTP.UserAgent {
		c.HTTP.UserAgent = ua
	}
}

// resolveOptions builds the shared HTTP client and identification used by
// every provider request.
func resolveOptions(c types.Config) resolve.Options {
	return resolve.Options{
		Client:    httputil.NewClient(c.HTTP.Timeout, c.HTTP.RequestsPerSecond, c.HTTP.MaxRetries),
		UserAgent: c.HTTP.UserAgent,
		Mailto:    c.HTTP.Mailto,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
