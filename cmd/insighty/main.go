package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found")
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "insighty",
		Short: "Aggregate trending content from Reddit, Twitter and Google Trends",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(trendsCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start daemon with refresh scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh()
		},
	}
}

func trendsCmd() *cobra.Command {
	var (
		jsonOutput bool
		src        string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show stored trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(jsonOutput, src, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&src, "source", "", "filter by source (reddit, twitter, google-trends)")
	cmd.Flags().IntVar(&limit, "limit", 20, "max trends to show")
	return cmd
}
