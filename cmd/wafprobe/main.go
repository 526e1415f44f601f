// Package main is the entry point for the wafprobe CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

var (
	version = "1.0.0"
	cfgFile string
	config  *types.Config
)

// exitError carries a process exit code out of a command. A nil err means
// the failure has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	err := rootCmd.Execute()
	code := exitCode(err)

	switch {
	case code == exitInterrupted:
		printWarning("\nTest interrupted by user")
	case err != nil:
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			printError("%v", err)
		}
	}

	os.Exit(code)
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

var rootCmd = &cobra.Command{
	Use:   "wafprobe",
	Short: "wafprobe - WAF regression test harness",
	Long: `wafprobe sends a fixed catalog of attack and benign requests to a
web application firewall and checks that every attack is blocked (HTTP 403)
and every benign request is allowed.

The suite aborts before any test runs when GET /health does not answer 200.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSuite,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View the effective wafprobe configuration`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		updateConfigFromFlags(cmd)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wafprobe.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("catalog", "", "YAML test catalog (built-in catalog if empty)")

	addRunFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// addRunFlags defines the flags of a suite run on cmd
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "http://localhost:3000", "Base URL of the WAF under test")
	cmd.Flags().Int("timeout", 5, "Per-request timeout in seconds")
	cmd.Flags().Bool("json", false, "Print a JSON report instead of the console report")
	cmd.Flags().StringP("output", "o", "", "Also write the report to a file (format from extension, JSON by default)")
	cmd.Flags().String("xlsx", "", "Also write an XLSX workbook")
	cmd.Flags().String("metrics-file", "", "Also write Prometheus textfile metrics")

	cmd.Flags().Float64("rate-limit", 0, "Requests per second (0 disables pacing)")
	cmd.Flags().StringToString("header", map[string]string{}, "Extra header on every request (K=V)")
	cmd.Flags().String("user-agent", "", "User-Agent header")
	cmd.Flags().String("health-path", "", "Health check path")
	cmd.Flags().Bool("no-ssl-verify", false, "Skip SSL certificate verification")

	cmd.Flags().String("log-file", "", "Write JSON logs to a rotated file")
	cmd.Flags().BoolP("verbose", "v", false, "Debug logging to stderr")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".wafprobe")
		viper.SetConfigType("yaml")
	}

	setDefaults(types.DefaultConfig())

	viper.SetEnvPrefix("WAFPROBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			printWarning("Failed to read config: %v", err)
		}
	}

	config = types.DefaultConfig()
	if err := viper.Unmarshal(config, viper.DecodeHook(decodeHook())); err != nil {
		printWarning("Failed to parse config: %v", err)
	}
	if config.HTTP.Headers == nil {
		config.HTTP.Headers = make(map[string]string)
	}
}

// decodeHook reads bare numbers as seconds for duration keys, the unit of
// --timeout, and keeps viper's string hooks for "1500ms" style values
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		secondsToDuration,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

var secondsToDuration mapstructure.DecodeHookFuncType = func(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}

	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Second, nil
		}
	}
	return data, nil
}

// setDefaults registers every config key so environment variables are
// visible to Unmarshal
func setDefaults(d *types.Config) {
	viper.SetDefault("target.url", d.Target.URL)
	viper.SetDefault("target.timeout", d.Target.Timeout)
	viper.SetDefault("target.rate_limit", d.Target.RateLimit)
	viper.SetDefault("target.health_path", d.Target.HealthPath)
	viper.SetDefault("http.headers", d.HTTP.Headers)
	viper.SetDefault("http.user_agent", d.HTTP.UserAgent)
	viper.SetDefault("http.verify_ssl", d.HTTP.VerifySSL)
	viper.SetDefault("output.json", d.Output.JSON)
	viper.SetDefault("output.file", d.Output.File)
	viper.SetDefault("output.xlsx", d.Output.XLSX)
	viper.SetDefault("output.metrics_file", d.Output.MetricsFile)
	viper.SetDefault("output.color", d.Output.Color)
	viper.SetDefault("catalog.file", d.Catalog.File)
	viper.SetDefault("log.file", d.Log.File)
	viper.SetDefault("log.verbose", d.Log.Verbose)
	viper.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	viper.SetDefault("log.max_backups", d.Log.MaxBackups)
}

// updateConfigFromFlags applies explicitly set flags over file and
// environment values
func updateConfigFromFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("url") {
		config.Target.URL, _ = flags.GetString("url")
	}
	if flags.Changed("timeout") {
		v, _ := flags.GetInt("timeout")
		config.Target.Timeout = time.Duration(v) * time.Second
	}
	if flags.Changed("rate-limit") {
		config.Target.RateLimit, _ = flags.GetFloat64("rate-limit")
	}
	if flags.Changed("health-path") {
		config.Target.HealthPath, _ = flags.GetString("health-path")
	}
	if flags.Changed("header") {
		v, _ := flags.GetStringToString("header")
		for k, val := range v {
			config.HTTP.Headers[k] = val
		}
	}
	if flags.Changed("user-agent") {
		config.HTTP.UserAgent, _ = flags.GetString("user-agent")
	}
	if v, _ := flags.GetBool("no-ssl-verify"); v {
		config.HTTP.VerifySSL = false
	}
	if flags.Changed("json") {
		config.Output.JSON, _ = flags.GetBool("json")
	}
	if flags.Changed("output") {
		config.Output.File, _ = flags.GetString("output")
	}
	if flags.Changed("xlsx") {
		config.Output.XLSX, _ = flags.GetString("xlsx")
	}
	if flags.Changed("metrics-file") {
		config.Output.MetricsFile, _ = flags.GetString("metrics-file")
	}
	if v, _ := flags.GetBool("no-color"); v {
		config.Output.Color = false
	}
	if flags.Changed("catalog") {
		config.Catalog.File, _ = flags.GetString("catalog")
	}
	if flags.Changed("log-file") {
		config.Log.File, _ = flags.GetString("log-file")
	}
	if v, _ := flags.GetBool("verbose"); v {
		config.Log.Verbose = true
	}

	if !config.Output.Color {
		color.NoColor = true
	}
}

// Printing functions

func printBanner(w io.Writer) {
	banner := `
                 __                 _
 _      ______ _/ _|_ __  _ __ ___ | |__   ___
 \ \ /\ / / _` + "`" + ` | |_| '_ \| '__/ _ \| '_ \ / _ \
  \ V  V / (_| |  _| |_) | | | (_) | |_) |  __/
   \_/\_/ \__,_|_| | .__/|_|  \___/|_.__/ \___|
                   |_|
WAF Regression Test Harness v%s
`
	fmt.Fprintf(w, banner, version)
}

func printInfo(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(w, "[*] "+format+"\n", args...)
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "[+] "+format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "[!] "+format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "[-] "+format+"\n", args...)
}
