package resource

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/lexfrei/cloudflare-dns-controller/internal/metrics"
)

// DefaultWatchBackoff is how long a producer waits after a failed or closed
// watch stream before listing again.
const DefaultWatchBackoff = 30 * time.Second

// ListWatch describes how to enumerate and stream one resource kind.
type ListWatch struct {
	// Kind is the cache kind the streamed resources belong to.
	Kind Kind

	// List returns the current full set plus the resource version to start
	// watching from.
	List func(ctx context.Context) ([]Resource, string, error)

	// Watch opens an event stream starting at the given resource version.
	Watch func(ctx context.Context, resourceVersion string) (watch.Interface, error)

	// Convert turns a raw event object into its snapshot. It returns false
	// for objects of an unexpected type, which are skipped.
	Convert func(obj runtime.Object) (Resource, bool)
}

// ServiceListWatch returns the ListWatch for core/v1 Services across all
// namespaces.
func ServiceListWatch(client kubernetes.Interface, hostnameAnnotation string) ListWatch {
	return ListWatch{
		Kind: KindService,
		List: func(ctx context.Context) ([]Resource, string, error) {
			list, err := client.CoreV1().Services(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, "", errors.Wrap(err, "failed to list services")
			}

			resources := make([]Resource, 0, len(list.Items))
			for idx := range list.Items {
				resources = append(resources, FromService(&list.Items[idx], hostnameAnnotation))
			}

			return resources, list.ResourceVersion, nil
		},
		Watch: func(ctx context.Context, resourceVersion string) (watch.Interface, error) {
			stream, err := client.CoreV1().Services(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{
				ResourceVersion: resourceVersion,
			})
			if err != nil {
				return nil, errors.Wrap(err, "failed to watch services")
			}

			return stream, nil
		},
		Convert: func(obj runtime.Object) (Resource, bool) {
			svc, ok := obj.(*corev1.Service)
			if !ok {
				return nil, false
			}

			return FromService(svc, hostnameAnnotation), true
		},
	}
}

// IngressListWatch returns the ListWatch for networking.k8s.io/v1 Ingresses
// across all namespaces.
func IngressListWatch(client kubernetes.Interface) ListWatch {
	return ListWatch{
		Kind: KindIngress,
		List: func(ctx context.Context) ([]Resource, string, error) {
			list, err := client.NetworkingV1().Ingresses(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, "", errors.Wrap(err, "failed to list ingresses")
			}

			resources := make([]Resource, 0, len(list.Items))
			for idx := range list.Items {
				resources = append(resources, FromIngress(&list.Items[idx]))
			}

			return resources, list.ResourceVersion, nil
		},
		Watch: func(ctx context.Context, resourceVersion string) (watch.Interface, error) {
			stream, err := client.NetworkingV1().Ingresses(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{
				ResourceVersion: resourceVersion,
			})
			if err != nil {
				return nil, errors.Wrap(err, "failed to watch ingresses")
			}

			return stream, nil
		},
		Convert: func(obj runtime.Object) (Resource, bool) {
			ing, ok := obj.(*networkingv1.Ingress)
			if !ok {
				return nil, false
			}

			return FromIngress(ing), true
		},
	}
}

// Watcher is the producer for one resource kind: it lists into the cache,
// then applies watch events to it, waking the reconciler through the
// notification channel after every change. A broken stream is retried after
// Backoff without affecting other producers.
type Watcher struct {
	ListWatch ListWatch
	Cache     *Cache

	// Notify is the bounded change-notification channel. Sends never block;
	// a full channel drops the notification, which only delays the next
	// cycle, never loses state.
	Notify chan<- struct{}

	// Backoff between stream attempts. Defaults to DefaultWatchBackoff.
	Backoff time.Duration

	// Metrics records events and stream failures.
	Metrics metrics.Collector
}

// Run drives the list+watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	logger := slog.Default().With("component", "watcher", "kind", string(w.ListWatch.Kind))

	backoff := w.Backoff
	if backoff <= 0 {
		backoff = DefaultWatchBackoff
	}

	for {
		err := w.watchOnce(ctx, logger)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Error("watch stream failed, backing off",
			"error", err,
			"backoff", backoff.String(),
		)
		w.Metrics.RecordWatchError(ctx, string(w.ListWatch.Kind))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// watchOnce performs one full list followed by one watch stream. It returns
// when the stream errors or closes.
func (w *Watcher) watchOnce(ctx context.Context, logger *slog.Logger) error {
	resources, resourceVersion, err := w.ListWatch.List(ctx)
	if err != nil {
		return err
	}

	w.Cache.ReplaceAll(w.ListWatch.Kind, resources)
	w.wake()

	logger.Debug("resynced", "resources", len(resources), "resourceVersion", resourceVersion)
	w.Metrics.RecordWatchEvent(ctx, string(w.ListWatch.Kind), "resync")

	stream, err := w.ListWatch.Watch(ctx, resourceVersion)
	if err != nil {
		return err
	}
	defer stream.Stop()

	for event := range stream.ResultChan() {
		switch event.Type {
		case watch.Added, watch.Modified:
			res, ok := w.ListWatch.Convert(event.Object)
			if !ok {
				continue
			}

			w.Cache.Upsert(res)
			w.wake()
			w.Metrics.RecordWatchEvent(ctx, string(w.ListWatch.Kind), "update")
		case watch.Deleted:
			res, ok := w.ListWatch.Convert(event.Object)
			if !ok {
				continue
			}

			w.Cache.Remove(res.Key())
			w.wake()
			w.Metrics.RecordWatchEvent(ctx, string(w.ListWatch.Kind), "delete")
		case watch.Bookmark:
			// Only advances the resource version; nothing to apply.
		case watch.Error:
			return errors.Newf("watch stream error event: %v", event.Object)
		}
	}

	return errors.New("watch stream closed")
}

func (w *Watcher) wake() {
	select {
	case w.Notify <- struct{}{}:
	default:
	}
}
