package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "roast-my-looker",
		Short:         "Chat-style roast of a Looker instance's usage stats",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "roast_my_looker.toml", "path to TOML config file")

	return rootCmd
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		logError("service.config_failed", "error", err)
		return err
	}
	if cfg.SessionSecret == defaultSessionSecret {
		logWarn("service.default_session_secret", "hint", "set RML_SESSION_SECRET")
	}

	db, err := openSQLite(cfg.SQLiteDBPath)
	if err != nil {
		logError("service.start_failed", "error", err)
		return err
	}
	defer db.Close()

	vault := NewVaultStore(db)
	sessions := NewSessionCodec(cfg.CookieName, cfg.SessionSecret, cfg.CookieMaxAge, cfg.CookieSecure)
	stats := NewStatsClient(cfg.AnalysisBaseURL, cfg.LookerAPIPort)

	go runVaultSweeper(vault, time.Duration(cfg.VaultSweepSeconds)*time.Second)

	service := NewService(cfg, vault, sessions, stats)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	logInfo("service.start",
		"listen_addr", cfg.ListenAddr,
		"sqlite_db", cfg.SQLiteDBPath,
		"analysis_base_url", cfg.AnalysisBaseURL,
	)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logError("service.exit", "error", err)
		return err
	}
	return nil
}

// runVaultSweeper periodically deletes expired vault entries so abandoned
// credentials don't outlive their TTL on disk.
func runVaultSweeper(vault *VaultStore, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		removed, err := vault.SweepExpired()
		if err != nil {
			logWarn("vault.sweep_failed", "error", err)
			continue
		}
		if removed > 0 {
			logInfo("vault.sweep", "removed", removed)
		}
	}
}
