package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/lexfrei/cloudflare-dns-controller/internal/controller"
	"github.com/lexfrei/cloudflare-dns-controller/internal/dns"
	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

//nolint:gochecknoglobals // set by SetVersion from main
var (
	version = "development"
	gitsha  = "development"
)

func SetVersion(ver, sha string) {
	version = ver
	gitsha = sha
}

//nolint:gochecknoglobals // cobra command pattern
var rootCmd = &cobra.Command{
	Use:   "cloudflare-dns-controller",
	Short: "Kubernetes controller syncing Ingress and Service hostnames to Cloudflare DNS",
	Long: `A Kubernetes controller that reconciles DNS records in a Cloudflare zone
with the hostnames exposed by cluster resources. It watches Ingresses and
annotated Services and keeps matching A/AAAA records up to date, marking
every name it manages with an ownership TXT record so it never touches
records it did not create.`,
	RunE:          runController,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.Flags().String("zone-name", "", "Cloudflare zone to reconcile (or use CF_ZONE_NAME env var)")
	rootCmd.Flags().String("api-token", "", "Cloudflare API token (or use CF_API_TOKEN env var)")
	rootCmd.Flags().String("hostname-annotation", resource.DefaultHostnameAnnotation,
		"Service annotation key selecting services for DNS management")
	rootCmd.Flags().String("owner-content", dns.DefaultOwnerContent,
		"TXT marker content identifying records owned by this controller")
	rootCmd.Flags().Duration("interval", controller.DefaultInterval, "Steady-state reconciliation interval")
	rootCmd.Flags().Duration("watch-backoff", resource.DefaultWatchBackoff, "Wait between failed watch streams")
	rootCmd.Flags().String("metrics-addr", ":8080", "Address for metrics endpoint")
	rootCmd.Flags().String("health-addr", ":8081", "Address for health probe endpoint")

	_ = viper.BindPFlags(rootCmd.Flags())
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("CF")
	viper.AutomaticEnv()

	viper.SetDefault("hostname-annotation", resource.DefaultHostnameAnnotation)
	viper.SetDefault("owner-content", dns.DefaultOwnerContent)
	viper.SetDefault("interval", controller.DefaultInterval)
	viper.SetDefault("watch-backoff", resource.DefaultWatchBackoff)
	viper.SetDefault("metrics-addr", ":8080")
	viper.SetDefault("health-addr", ":8081")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "json")
}

func Execute() error {
	return errors.Wrap(rootCmd.Execute(), "command execution failed")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if viper.GetString("log-format") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

//nolint:noinlineerr // inline error handling is fine here
func runController(_ *cobra.Command, _ []string) error {
	logger := setupLogger()
	slog.SetDefault(logger)

	klog.SetLogger(logr.FromSlogHandler(logger.Handler()))

	logger.Info("starting cloudflare-dns-controller",
		"version", version,
		"gitsha", gitsha,
	)

	zoneName := viper.GetString("zone-name")
	if zoneName == "" {
		return errors.New("zone-name is required (use --zone-name or CF_ZONE_NAME env var)")
	}

	apiToken := viper.GetString("api-token")
	if apiToken == "" {
		return errors.New("api-token is required (use --api-token or CF_API_TOKEN env var)")
	}

	cfg := controller.Config{
		ZoneName:           zoneName,
		APIToken:           apiToken,
		HostnameAnnotation: viper.GetString("hostname-annotation"),
		OwnerContent:       viper.GetString("owner-content"),
		Interval:           viper.GetDuration("interval"),
		WatchBackoff:       viper.GetDuration("watch-backoff"),
		MetricsAddr:        viper.GetString("metrics-addr"),
		HealthAddr:         viper.GetString("health-addr"),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := controller.Run(ctx, &cfg); err != nil {
		return errors.Wrap(err, "failed to run controller")
	}

	return nil
}
