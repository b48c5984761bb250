package resource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/lexfrei/cloudflare-dns-controller/internal/metrics"
	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

func annotatedService(name, hostname string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "default",
			Name:        name,
			Annotations: map[string]string{resource.DefaultHostnameAnnotation: hostname},
		},
		Spec: corev1.ServiceSpec{ClusterIPs: []string{"10.96.0.10"}},
	}
}

func TestWatcherListsThenAppliesEvents(t *testing.T) {
	t.Parallel()

	existing := annotatedService("api", "api.example.com")

	client := fake.NewClientset(existing)
	stream := watch.NewFake()
	client.PrependWatchReactor("services", k8stesting.DefaultWatchReactor(stream, nil))

	cache := resource.NewCache()
	notify := make(chan struct{}, 10)

	watcher := &resource.Watcher{
		ListWatch: resource.ServiceListWatch(client, resource.DefaultHostnameAnnotation),
		Cache:     cache,
		Notify:    notify,
		Backoff:   time.Hour, // a stream failure in this test should not retry
		Metrics:   metrics.NewNoopCollector(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = watcher.Run(ctx)
	}()

	// Initial list lands in the cache and marks the kind synced.
	require.Eventually(t, func() bool {
		return cache.Synced(resource.KindService)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, cache.Len())

	// An update event replaces the entry wholesale.
	stream.Modify(annotatedService("api", "renamed.example.com"))

	require.Eventually(t, func() bool {
		for _, res := range cache.Snapshot() {
			if svc, ok := res.(resource.Service); ok && svc.Hostname == "renamed.example.com" {
				return true
			}
		}

		return false
	}, time.Second, 10*time.Millisecond)

	// An add event inserts a new entry.
	stream.Add(annotatedService("web", "web.example.com"))

	require.Eventually(t, func() bool {
		return cache.Len() == 2
	}, time.Second, 10*time.Millisecond)

	// A delete event removes it again.
	stream.Delete(annotatedService("web", "web.example.com"))

	require.Eventually(t, func() bool {
		return cache.Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatcherNotifySendNeverBlocks(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset()
	stream := watch.NewFake()
	client.PrependWatchReactor("services", k8stesting.DefaultWatchReactor(stream, nil))

	cache := resource.NewCache()

	// Capacity one and nobody consuming: every further notification must be
	// dropped, not block the producer.
	notify := make(chan struct{}, 1)

	watcher := &resource.Watcher{
		ListWatch: resource.ServiceListWatch(client, resource.DefaultHostnameAnnotation),
		Cache:     cache,
		Notify:    notify,
		Backoff:   time.Hour,
		Metrics:   metrics.NewNoopCollector(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return cache.Synced(resource.KindService)
	}, time.Second, 10*time.Millisecond)

	for range 5 {
		stream.Add(annotatedService("svc", "svc.example.com"))
	}

	// All five events applied despite the saturated channel.
	require.Eventually(t, func() bool {
		return cache.Len() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Len(t, notify, 1)
}
