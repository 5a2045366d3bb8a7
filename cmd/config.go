package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/visloom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set visloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := loadedConfig()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "top_k: %d\n", c.TopK)
		fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		if c.Delimiter != "" {
			fmt.Fprintf(w, "delimiter: %q\n", c.Delimiter)
		}
		fmt.Fprintf(w, "parse_dates: %t\n", c.ParseDates)
		fmt.Fprintf(w, "parallel_actions: %t\n", c.ParallelActions)
		fmt.Fprintf(w, "action_timeout_ms: %d\n", c.ActionTimeoutMs)
		fmt.Fprintf(w, "profile_workers: %d\n", c.ProfileWorkers)
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		if c.ExportDir != "" {
			fmt.Fprintf(w, "export_dir: %s\n", c.ExportDir)
		}
		if c.SQLDriver != "" {
			fmt.Fprintf(w, "sql_driver: %s\n", c.SQLDriver)
		}
		if c.SQLDSN != "" {
			fmt.Fprintf(w, "sql_dsn: %s\n", mask(c.SQLDSN))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := loadedConfig()
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// mask hides the middle of a DSN, which may embed credentials.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
