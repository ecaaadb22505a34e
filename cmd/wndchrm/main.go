package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/drakos74/wndchrm/infra/config"
	"github.com/drakos74/wndchrm/internal/metrics"
	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wndchrm",
	Short: "Nearest neighbor classification of image signatures",
	Long:  `wndchrm trains weighted nearest neighbor classifiers on image feature signatures and evaluates them with repeated train/test splits`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := setup(cmd)
		return err
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(weightsCmd)

	rootCmd.PersistentFlags().String("config", "", "experiment configuration file (toml), defaults to "+config.Path+" if present")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve prometheus metrics on the given address")
	rootCmd.PersistentFlags().String("store", storage.DefaultDir, "root directory of stored snapshots and reports")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the shared state of a command run.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	store string
}

var current *app

// setup loads the configuration once per run and applies the global flags.
func setup(cmd *cobra.Command) (*app, error) {
	if current != nil {
		return current, nil
	}
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if _, err := os.Stat(config.Path); err == nil {
		cfg = config.MustLoad(config.Path)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Address = addr
	}
	store, _ := cmd.Flags().GetString("store")

	current = &app{
		cfg:   cfg,
		log:   cfg.Logger(),
		store: store,
	}
	if cfg.Metrics.Address != "" {
		go func(addr string) {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				current.log.Error().Err(err).Str("address", addr).Msg("metrics server stopped")
			}
		}(cfg.Metrics.Address)
	}
	return current, nil
}

// must returns the app set up by the root command.
func must(cmd *cobra.Command) *app {
	a, err := setup(cmd)
	if err != nil {
		panic(fmt.Sprintf("could not set up: %+v", err))
	}
	return a
}
