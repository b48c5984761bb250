package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/lexfrei/cloudflare-dns-controller/internal/cloudflare"
	"github.com/lexfrei/cloudflare-dns-controller/internal/metrics"
	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

// changeBufferSize bounds the change-notification channel. Producers drop
// notifications when it is full; the interval timer covers the gap.
const changeBufferSize = 10

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config holds all configuration options for the controller.
// Values are typically populated from CLI flags or environment variables.
type Config struct {
	// ZoneName is the DNS zone to reconcile (required). Hostnames outside
	// this zone are ignored.
	ZoneName string

	// APIToken is the Cloudflare API token with DNS edit permissions
	// (required).
	APIToken string

	// HostnameAnnotation is the Service annotation key selecting which
	// Services receive DNS records.
	HostnameAnnotation string

	// OwnerContent is the TXT marker content identifying records managed
	// by this controller instance.
	OwnerContent string

	// Interval is the steady-state reconciliation period.
	Interval time.Duration

	// WatchBackoff is the wait between failed watch streams.
	WatchBackoff time.Duration

	// MetricsAddr is the address for the Prometheus metrics endpoint.
	MetricsAddr string

	// HealthAddr is the address for health and readiness probe endpoints.
	HealthAddr string
}

// Run wires the cache, the watch producers, the reconciliation loop and
// the metrics/health servers, then blocks until the context is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	logger := slog.Default().With("component", "controller")

	kubeClient, err := newKubeClient()
	if err != nil {
		return errors.Wrap(err, "failed to create kubernetes client")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector := metrics.NewCollector(registry)

	cfClient := cloudflare.NewClient(cfg.APIToken, cloudflare.WithMetrics(collector))

	cache := resource.NewCache()
	notify := make(chan struct{}, changeBufferSize)

	watchers := []*resource.Watcher{
		{
			ListWatch: resource.IngressListWatch(kubeClient),
			Cache:     cache,
			Notify:    notify,
			Backoff:   cfg.WatchBackoff,
			Metrics:   collector,
		},
		{
			ListWatch: resource.ServiceListWatch(kubeClient, cfg.HostnameAnnotation),
			Cache:     cache,
			Notify:    notify,
			Backoff:   cfg.WatchBackoff,
			Metrics:   collector,
		},
	}

	loop := &Loop{
		Cache:    cache,
		Provider: cfClient,
		ZoneName: cfg.ZoneName,
		Owner:    cfg.OwnerContent,
		Kinds:    []resource.Kind{resource.KindIngress, resource.KindService},
		Notify:   notify,
		Interval: cfg.Interval,
		Metrics:  collector,
	}

	logger.Info("starting reconciliation",
		"zone", cfg.ZoneName,
		"interval", cfg.Interval.String(),
		"hostnameAnnotation", cfg.HostnameAnnotation,
	)

	group, ctx := errgroup.WithContext(ctx)

	for _, watcher := range watchers {
		group.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	group.Go(func() error {
		return loop.Run(ctx)
	})

	group.Go(func() error {
		return serveMetrics(ctx, cfg.MetricsAddr, registry)
	})

	group.Go(func() error {
		return serveHealth(ctx, cfg.HealthAddr)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "controller stopped")
	}

	return nil
}

// newKubeClient builds a clientset from the in-cluster config, falling back
// to the local kubeconfig for development.
func newKubeClient() (kubernetes.Interface, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			clientcmd.NewDefaultClientConfigLoadingRules(),
			&clientcmd.ConfigOverrides{},
		).ClientConfig()
		if err != nil {
			return nil, errors.Wrap(err, "no in-cluster config and no kubeconfig")
		}
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build clientset")
	}

	return clientset, nil
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return serve(ctx, addr, mux)
}

func serveHealth(ctx context.Context, addr string) error {
	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", ok)
	mux.HandleFunc("/readyz", ok)

	return serve(ctx, addr, mux)
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "server on %s failed", addr)
	}

	return nil
}
