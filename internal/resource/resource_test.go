package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

func TestFromIngress(t *testing.T) {
	t.Parallel()

	ing := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web"},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{
				{Host: "foo.example.com"},
				{Host: ""},
				{Host: "bar.example.com"},
			},
		},
		Status: networkingv1.IngressStatus{
			LoadBalancer: networkingv1.IngressLoadBalancerStatus{
				Ingress: []networkingv1.IngressLoadBalancerIngress{
					{IP: "10.0.0.5"},
					{Hostname: "lb.example.com"}, // no IP, dropped
				},
			},
		},
	}

	snapshot := resource.FromIngress(ing)

	assert.Equal(t, resource.Key{Kind: resource.KindIngress, Namespace: "default", Name: "web"}, snapshot.Key())
	assert.Equal(t, []string{"foo.example.com", "bar.example.com"}, snapshot.Hosts)
	assert.Equal(t, []string{"10.0.0.5"}, snapshot.LoadBalancerIPs)
}

func TestFromService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		service          *corev1.Service
		expectedHostname string
		expectedLBs      []string
		expectedCluster  []string
	}{
		{
			name: "annotated service with load balancer",
			service: &corev1.Service{
				ObjectMeta: metav1.ObjectMeta{
					Namespace:   "default",
					Name:        "api",
					Annotations: map[string]string{resource.DefaultHostnameAnnotation: "api.example.com"},
				},
				Spec: corev1.ServiceSpec{ClusterIPs: []string{"10.96.0.10"}},
				Status: corev1.ServiceStatus{
					LoadBalancer: corev1.LoadBalancerStatus{
						Ingress: []corev1.LoadBalancerIngress{{IP: "203.0.113.7"}},
					},
				},
			},
			expectedHostname: "api.example.com",
			expectedLBs:      []string{"203.0.113.7"},
			expectedCluster:  []string{"10.96.0.10"},
		},
		{
			name: "service without annotation has empty hostname",
			service: &corev1.Service{
				ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "db"},
				Spec:       corev1.ServiceSpec{ClusterIPs: []string{"10.96.0.11"}},
			},
			expectedHostname: "",
			expectedCluster:  []string{"10.96.0.11"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			snapshot := resource.FromService(testCase.service, resource.DefaultHostnameAnnotation)

			assert.Equal(t, resource.KindService, snapshot.Key().Kind)
			assert.Equal(t, testCase.expectedHostname, snapshot.Hostname)
			assert.Equal(t, testCase.expectedLBs, snapshot.LoadBalancerIPs)
			assert.Equal(t, testCase.expectedCluster, snapshot.ClusterIPs)
		})
	}
}
