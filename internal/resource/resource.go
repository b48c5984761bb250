package resource

import (
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
)

// DefaultHostnameAnnotation selects Services that should receive DNS
// records. A Service without it is ignored entirely.
const DefaultHostnameAnnotation = "dns.cf.k8s.lex.la/hostname"

// Kind identifies a watched resource kind.
type Kind string

// Watched kinds. Adding a kind means adding a variant to Resource and a
// case to every switch over it; the compiler finds the rest.
const (
	KindIngress Kind = "Ingress"
	KindService Kind = "Service"
)

// Key uniquely identifies a watched resource in the cache.
type Key struct {
	Kind      Kind
	Namespace string
	Name      string
}

// Resource is the closed union of watched resource snapshots. Each variant
// carries only the fields the desired-state computation reads; an update
// event replaces the whole value, never parts of it.
type Resource interface {
	Key() Key

	// sealed restricts implementations to this package.
	sealed()
}

// Ingress is the snapshot of a networking.k8s.io/v1 Ingress: the hostnames
// its rules declare and the load-balancer addresses its status reports.
type Ingress struct {
	Namespace string
	Name      string

	// Hosts are the rule hosts; rules without a host are dropped at
	// conversion time.
	Hosts []string

	// LoadBalancerIPs are the IP addresses from status.loadBalancer.
	LoadBalancerIPs []string
}

// Key implements Resource.
func (i Ingress) Key() Key {
	return Key{Kind: KindIngress, Namespace: i.Namespace, Name: i.Name}
}

func (i Ingress) sealed() {}

// Service is the snapshot of a core/v1 Service: the hostname annotation
// value (empty when absent) and both candidate address lists.
type Service struct {
	Namespace string
	Name      string

	// Hostname is the value of the hostname annotation, or empty when the
	// Service does not participate in DNS management.
	Hostname string

	// LoadBalancerIPs are the IP addresses from status.loadBalancer,
	// preferred as the record targets when present.
	LoadBalancerIPs []string

	// ClusterIPs are the cluster-assigned addresses from spec.clusterIPs,
	// used when no load-balancer address exists.
	ClusterIPs []string
}

// Key implements Resource.
func (s Service) Key() Key {
	return Key{Kind: KindService, Namespace: s.Namespace, Name: s.Name}
}

func (s Service) sealed() {}

// FromIngress converts an Ingress object into its watched snapshot.
func FromIngress(ing *networkingv1.Ingress) Ingress {
	snapshot := Ingress{
		Namespace: ing.Namespace,
		Name:      ing.Name,
	}

	for _, rule := range ing.Spec.Rules {
		if rule.Host != "" {
			snapshot.Hosts = append(snapshot.Hosts, rule.Host)
		}
	}

	for _, lb := range ing.Status.LoadBalancer.Ingress {
		if lb.IP != "" {
			snapshot.LoadBalancerIPs = append(snapshot.LoadBalancerIPs, lb.IP)
		}
	}

	return snapshot
}

// FromService converts a Service object into its watched snapshot using the
// given hostname annotation key.
func FromService(svc *corev1.Service, hostnameAnnotation string) Service {
	snapshot := Service{
		Namespace: svc.Namespace,
		Name:      svc.Name,
		Hostname:  svc.Annotations[hostnameAnnotation],
	}

	for _, lb := range svc.Status.LoadBalancer.Ingress {
		if lb.IP != "" {
			snapshot.LoadBalancerIPs = append(snapshot.LoadBalancerIPs, lb.IP)
		}
	}

	snapshot.ClusterIPs = append(snapshot.ClusterIPs, svc.Spec.ClusterIPs...)

	return snapshot
}
