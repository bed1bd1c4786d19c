package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskdispatch/pkg/auth"
	"github.com/harrisonrobin/taskdispatch/pkg/config"
	"github.com/harrisonrobin/taskdispatch/pkg/google"
)

var revokeOnly bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Sheets, Docs and Gmail",
	Long: fmt.Sprintf(`Runs the OAuth flow with the desktop client in %s and caches the
token. Any cached token is discarded first.`, auth.ClientSecretsFile),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenFile := filepath.Join(appDir, auth.TokenFile)
		if _, err := os.Stat(tokenFile); err == nil {
			logger.Info("removing existing token file", zap.String("path", tokenFile))
		}
		if err := auth.Revoke(appDir); err != nil {
			return fmt.Errorf("could not delete token file %s, please delete it manually: %w", tokenFile, err)
		}
		if revokeOnly {
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
			return nil
		}
		if cfg.Google.ADC {
			return errors.New("google.adc is enabled; use `gcloud auth application-default login` instead")
		}
		if _, err := google.NewClient(cmd.Context(), auth.Options{Dir: appDir, Logger: logger, Prompt: cmd.OutOrStdout()}); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", tokenFile)
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write the default configuration and roster, and prepare the sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
		}

		r, err := openRoster()
		if err != nil {
			return err
		}
		if err := r.Save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Roster has %d contact(s); set channels with `taskdispatch roster set`.\n", len(r.List()))

		if cfg.Sheets.SpreadsheetID == "" {
			fmt.Fprintln(out, "No spreadsheet configured; the mirror step will be skipped.")
			return nil
		}
		srv, err := googleServices(cmd.Context())
		if err != nil {
			return err
		}
		mirror, err := google.NewSheetsMirror(srv.Sheets, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, logger)
		if err != nil {
			return err
		}
		if err := mirror.EnsureHeader(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Spreadsheet header is in place.")
		return nil
	},
}

func init() {
	authCmd.Flags().BoolVar(&revokeOnly, "revoke", false, "only remove the cached token")
}
