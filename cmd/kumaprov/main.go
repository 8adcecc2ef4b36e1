package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kumaprov/internal/config"
	"kumaprov/internal/domains"
	"kumaprov/internal/kuma"
	"kumaprov/internal/provision"
	"kumaprov/internal/report"
	"kumaprov/internal/util"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
}

var (
	domainFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "kumaprov",
	Short: "Provision Uptime Kuma monitors and a Teams notification for a list of URLs",
	Long: `kumaprov reads URLs from a domain file, makes sure a Microsoft Teams
notification channel exists in Uptime Kuma, and creates an HTTP monitor for
every URL that is not monitored yet. Running it again changes nothing.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kumaprov %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.Flags().StringVar(&domainFile, "domains", "", "URL list to provision (default $DOMAIN_FILE or domain.txt next to the binary)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log Uptime Kuma traffic")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if domainFile != "" {
		cfg.DomainFile = domainFile
	}
	if verbose {
		cfg.VerboseLogging = true
	}

	logger := util.NewLogger(stderr, cfg.VerboseLogging)

	urls, err := domains.Read(cfg.DomainFile)
	if err != nil {
		return err
	}

	rep := report.New(stdout)
	rep.Found(len(urls))

	rep.Connecting(cfg.KumaURL)
	client, err := kuma.Dial(ctx, cfg.KumaURL, kuma.Options{
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Uptime Kuma: %w", err)
	}
	defer client.Close()

	rep.LoggingIn(cfg.Username)
	if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return err
	}
	rep.LoginSucceeded()

	summary, err := provision.New(client, rep, logger).Run(ctx, cfg.TeamsWebhook, urls)
	if err != nil {
		return err
	}

	if err := client.Close(); err != nil {
		logger.Debug("Disconnect failed", "error", err)
	}
	rep.Summary(summary)
	return nil
}
