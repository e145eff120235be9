package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/tubegrab-go/api/handlers"
	"github.com/yourusername/tubegrab-go/internal/app"
	"github.com/yourusername/tubegrab-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	jsonOutput  bool
	timeout     time.Duration
	serverCfg   string
	rootCmd     = &cobra.Command{
		Use:          "tubegrab",
		Short:        "TubeGrab CLI - analyze and download YouTube videos",
		Long:         `A command-line interface for a TubeGrab server: inspect formats, download files and review recent jobs.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&serverCfg, "config", "", "Config file for an auto-started server")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	starter := newServerStarter(strings.TrimRight(serverURL, "/"), serverCfg)
	if err := starter.ensure(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func client() *apiClient {
	return newAPIClient(strings.TrimRight(serverURL, "/"), timeout)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Show the title and available formats of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		info, err := client().Analyze(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(info)
		}

		fmt.Printf("Title:    %s\n", info.Title)
		fmt.Printf("Channel:  %s\n", info.Channel)
		fmt.Printf("Duration: %s\n", info.Duration)
		fmt.Printf("Views:    %s\n", info.Views)
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tEXT\tQUALITY\tSIZE\tVCODEC\tACODEC")
		for _, f := range info.Formats {
			size := domain.NotAvailable
			if f.FileSizeBytes != nil {
				size = domain.FormatSize(*f.FileSizeBytes)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				f.FormatID, f.Extension, f.QualityLabel, size, f.VideoCodec, f.AudioCodec)
		}
		return w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video on the server and fetch the file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		quality, _ := cmd.Flags().GetString("quality")
		formatID, _ := cmd.Flags().GetString("format-id")
		outDir, _ := cmd.Flags().GetString("out")

		c := client()
		fmt.Fprintln(os.Stderr, "Downloading on the server...")
		result, err := c.Download(handlers.DownloadRequest{
			URL:      args[0],
			Quality:  quality,
			FormatID: formatID,
		})
		if err != nil {
			return err
		}

		path, n, err := c.Fetch(result.DownloadURL, result.Filename, outDir)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", result.Filename, err)
		}

		if jsonOutput {
			return printJSON(map[string]interface{}{
				"filename": result.Filename,
				"path":     path,
				"size":     n,
			})
		}
		fmt.Printf("Saved %s (%s)\n", path, domain.FormatSize(n))
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent download jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		jobs, err := client().Jobs(status, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(jobs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATE\tQUALITY\tFILE\tCREATED")
		for _, j := range jobs {
			file := j.Filename
			if j.State == domain.StateFailed {
				file = fmt.Sprintf("(%s: %s)", j.FailedStage, truncate(j.ErrorMessage, 40))
			} else if j.Reaped {
				file += " (reaped)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(j.ID, 8),
				j.State,
				j.RequestedQuality,
				file,
				j.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		stats, err := client().Stats()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(stats)
		}

		fmt.Println("Job Statistics:")
		fmt.Printf("  Total:     %d\n", stats.Total)
		fmt.Printf("  Active:    %d\n", stats.Active)
		fmt.Printf("  Completed: %d\n", stats.Completed)
		fmt.Printf("  Failed:    %d\n", stats.Failed)
		fmt.Printf("  Reaped:    %d\n", stats.Reaped)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := client().Health()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(health)
		}

		fmt.Printf("Status:  %s\n", health.Status)
		fmt.Printf("Version: %s\n", health.Version)
		fmt.Printf("Reaper:  running=%t pending=%d\n", health.Reaper.Running, health.Reaper.Pending)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./configs/config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		config, err := app.LoadConfig("")
		if err != nil {
			return err
		}
		if err := app.SaveConfig(config, path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("quality", "q", domain.QualityAudio, "Quality: audio or a resolution such as 720p")
	downloadCmd.Flags().StringP("format-id", "f", "", "Explicit format id from analyze")
	downloadCmd.Flags().StringP("out", "o", ".", "Directory to save the file in")
	jobsCmd.Flags().StringP("status", "s", "", "Filter by state")
	jobsCmd.Flags().IntP("limit", "n", 20, "Number of jobs to show")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
