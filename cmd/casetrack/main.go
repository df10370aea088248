package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "casetrack",
		Short: "Investigate disinformation cases across social platforms",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(createCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(productsCmd())
	root.AddCommand(casesCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with ingest/analysis schedulers and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func createCmd() *cobra.Command {
	var (
		title     string
		query     string
		platforms []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new investigation case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(title, query, platforms)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "case title (5-140 characters)")
	cmd.Flags().StringVar(&query, "query", "", "investigation query (2-200 characters)")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "platforms to monitor (default: all)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect <case-id>",
		Short: "Collect content items for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(args[0])
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <case-id>",
		Short: "Score a case's items for disinformation risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0])
		},
	}
}

func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <case-id>",
		Short: "Generate alerts, evidence, media verification and the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(args[0])
		},
		Args: cobra.ExactArgs(1),
	}
}

func casesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List investigation cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
