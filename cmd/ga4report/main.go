package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ga4report/internal/analytics"
	"ga4report/internal/config"
	"ga4report/internal/query"
	"ga4report/internal/results"
	"ga4report/internal/summary"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "ga4report",
		Short: "GA4 traffic reports with a Google service account",
		Long: `ga4report signs in to Google Analytics 4 with a service account key and
fetches the daily visitors and conversions per traffic source for a property.

Examples:
  ga4report config set --credentials-file ./service-account.json --property 263883430
  ga4report auth test
  ga4report report --days 28 --summary
  ga4report report --start-date 2024-01-01 --end-date 2024-01-31 --format csv --output jan.csv`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage service account configuration",
		Long:  "Configure the service account credential and default property",
	}

	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Check service account authentication",
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Fetch a traffic report",
		Long:  "Fetch date, source, visitors and conversions rows for a GA4 property",
		Run:   reportCmdHandler,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	// Config subcommands
	configSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Set service account credentials and defaults",
		Long:  "Store the service account credential and report defaults in ~/.ga4report/config.yaml",
		Run:   configSetCmdHandler,
	}
	configSetCmd.Flags().String("client-email", "", "Service account client email")
	configSetCmd.Flags().String("private-key-file", "", "Path to a PKCS#8 PEM private key")
	configSetCmd.Flags().String("credentials-file", "", "Path to a service account JSON key file")
	configSetCmd.Flags().String("property", "", "Default GA4 property ID")
	configSetCmd.Flags().Int("timeout-seconds", 0, "Default timeout for a report in seconds")

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration with environment overrides applied",
		Run:   configShowCmdHandler,
	}

	configCmd.AddCommand(configSetCmd, configShowCmd)

	// Auth subcommands
	authTestCmd := &cobra.Command{
		Use:   "test",
		Short: "Exchange a signed assertion for an access token",
		Long:  "Sign a fresh assertion with the configured service account and exchange it, without fetching data",
		Run:   authTestCmdHandler,
	}
	authTestCmd.Flags().Duration("timeout", 30*time.Second, "Timeout for the token exchange")
	authCmd.AddCommand(authTestCmd)

	// Report flags
	reportCmd.Flags().String("property", "", "Property ID to query (defaults to the configured property)")
	reportCmd.Flags().Int("days", query.DefaultWindowDays, "Trailing window in days ending today")
	reportCmd.Flags().String("start-date", "", "Start date (YYYY-MM-DD or relative, overrides --days)")
	reportCmd.Flags().String("end-date", "", "End date (YYYY-MM-DD or relative)")
	reportCmd.Flags().StringSlice("dimensions", []string{}, "Dimension names (comma-separated, date and source order)")
	reportCmd.Flags().StringSlice("metrics", []string{}, "Metric names (comma-separated, visitors and conversions order)")
	reportCmd.Flags().String("format", "table", "Output format (table, json, csv, tsv)")
	reportCmd.Flags().String("output", "", "Write the report to this file instead of stdout")
	reportCmd.Flags().Bool("summary", false, "Print a per-source summary after the rows")
	reportCmd.Flags().Duration("timeout", 0, "Timeout for the whole report (defaults to the configured timeout)")

	// Add all commands to root
	rootCmd.AddCommand(configCmd, authCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file and applies environment overrides
func loadConfig() *config.AppConfig {
	appConfig, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	appConfig.ApplyEnv(nil)
	return appConfig
}

// Command implementations
func configSetCmdHandler(cmd *cobra.Command, args []string) {
	fmt.Println("🔧 Setting service account configuration...")

	appConfig, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	changed := false
	if cmd.Flags().Changed("client-email") {
		appConfig.ClientEmail, _ = cmd.Flags().GetString("client-email")
		changed = true
	}
	if cmd.Flags().Changed("private-key-file") {
		appConfig.PrivateKeyFile, _ = cmd.Flags().GetString("private-key-file")
		changed = true
	}
	if cmd.Flags().Changed("credentials-file") {
		appConfig.CredentialsFile, _ = cmd.Flags().GetString("credentials-file")
		changed = true
	}
	if cmd.Flags().Changed("property") {
		propertyID, _ := cmd.Flags().GetString("property")
		appConfig.PropertyID = strings.TrimPrefix(strings.TrimSpace(propertyID), "properties/")
		changed = true
	}
	if cmd.Flags().Changed("timeout-seconds") {
		appConfig.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout-seconds")
		changed = true
	}

	if !changed {
		fmt.Fprintf(os.Stderr, "Error: nothing to set - pass at least one flag (see 'ga4report config set --help')\n")
		os.Exit(1)
	}

	// Fail early on unreadable key files
	if _, err := appConfig.Credential(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.SaveConfig(appConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to save configuration: %v\n", err)
		os.Exit(1)
	}

	configPath, _ := config.GetConfigPath()
	fmt.Printf("✅ Configuration saved successfully\n")
	fmt.Printf("📁 Config file: %s\n", configPath)
	fmt.Println("🚀 Run 'ga4report auth test' to verify the credential")
}

func configShowCmdHandler(cmd *cobra.Command, args []string) {
	fmt.Println("📋 Current GA4 Report Configuration:")
	fmt.Println()

	appConfig := loadConfig()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("📁 Config Location: %s\n", configPath)
	fmt.Println()

	if appConfig.ClientEmail != "" || appConfig.CredentialsFile != "" {
		account, err := appConfig.Credential()
		if err != nil {
			fmt.Printf("❌ Credential: %v\n", err)
		} else {
			fmt.Printf("👤 Client Email: %s\n", account.ClientEmail)
			if account.PrivateKeyPEM != "" {
				fmt.Printf("🔐 Private Key: [HIDDEN] (%s)\n", appConfig.CredentialSource())
			} else {
				fmt.Println("❌ Private Key: Not configured")
			}
		}
	} else {
		fmt.Println("❌ Service account: Not configured")
		fmt.Println()
		fmt.Println("💡 Run 'ga4report config set --credentials-file <key.json>' to configure")
	}

	if appConfig.PropertyID != "" {
		fmt.Printf("🎯 Default Property: %s\n", appConfig.PropertyID)
	} else {
		fmt.Println("📍 Default Property: None")
	}
	fmt.Printf("⏱️  Timeout: %s\n", appConfig.Timeout())

	if !appConfig.CreatedAt.IsZero() {
		fmt.Println()
		fmt.Printf("📅 Created: %s\n", appConfig.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("🔄 Updated: %s\n", appConfig.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func authTestCmdHandler(cmd *cobra.Command, args []string) {
	fmt.Println("🔐 Testing service account authentication...")

	appConfig := loadConfig()
	account, err := appConfig.Credential()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if account.ClientEmail != "" {
		fmt.Printf("👤 Service account: %s\n", account.ClientEmail)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	facade := analytics.New(analytics.Options{})
	token, err := facade.Authenticate(ctx, account)
	if err != nil {
		exitWithError(err, false)
	}

	fmt.Printf("✅ Token exchange successful!\n")
	fmt.Printf("🎯 Access Token: %s\n", maskToken(token.Value))
	if token.ExpiresIn > 0 {
		fmt.Printf("⏳ Valid for: %s\n", (time.Duration(token.ExpiresIn) * time.Second).String())
	}
	fmt.Println("✨ Service account authentication is working correctly!")
}

func reportCmdHandler(cmd *cobra.Command, args []string) {
	propertyID, _ := cmd.Flags().GetString("property")
	days, _ := cmd.Flags().GetInt("days")
	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	dimensions, _ := cmd.Flags().GetStringSlice("dimensions")
	metrics, _ := cmd.Flags().GetStringSlice("metrics")
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	showSummary, _ := cmd.Flags().GetBool("summary")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	format, err := results.ParseFormat(formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	jsonErrors := format == results.FormatJSON

	appConfig := loadConfig()
	if propertyID == "" {
		propertyID = appConfig.PropertyID
	}
	if timeout <= 0 {
		timeout = appConfig.Timeout()
	}

	q, err := query.Build(query.Options{
		PropertyID: propertyID,
		Days:       days,
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: dimensions,
		Metrics:    metrics,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid query: %v\n", err)
		os.Exit(1)
	}

	account, err := appConfig.Credential()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !jsonErrors && outputPath == "" {
		fmt.Fprintf(os.Stderr, "🔍 Fetching property %s (%s to %s)...\n",
			q.PropertyID, q.DateRange.StartDate, q.DateRange.EndDate)
	}

	facade := analytics.New(analytics.Options{})
	rows, err := facade.FetchReport(ctx, account, q)
	if err != nil {
		exitWithError(err, jsonErrors)
	}

	if outputPath != "" {
		if err := results.WriteFile(outputPath, rows, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Wrote %d rows to %s\n", len(rows), outputPath)
	} else if err := results.Write(os.Stdout, rows, format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to write report: %v\n", err)
		os.Exit(1)
	}

	if showSummary {
		s, err := summary.Summarize(ctx, rows)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to summarize report: %v\n", err)
			os.Exit(1)
		}
		// Keep stdout machine-readable for non-table formats
		out := os.Stdout
		if format != results.FormatTable && outputPath == "" {
			out = os.Stderr
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "📊 Summary by source:")
		for _, line := range results.FormatSummary(s, results.DefaultDisplayOptions()) {
			fmt.Fprintln(out, line)
		}
	}
}

// exitWithError prints a facade error and exits. Retryable failures get a hint.
func exitWithError(err error, asJSON bool) {
	var analyticsErr *analytics.Error
	if asJSON && errors.As(err, &analyticsErr) {
		encoded, _ := json.Marshal(analyticsErr)
		fmt.Fprintln(os.Stderr, string(encoded))
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.As(err, &analyticsErr) {
		switch {
		case analyticsErr.Kind == analytics.KindMissingCredentials:
			fmt.Fprintln(os.Stderr, "💡 Run 'ga4report config set' or export GA4_CLIENT_EMAIL and GA4_PRIVATE_KEY")
		case analyticsErr.Retryable():
			fmt.Fprintln(os.Stderr, "🔁 This failure is transient, try again shortly")
		}
	}
	os.Exit(1)
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:8] + "..." + token[len(token)-4:]
}
