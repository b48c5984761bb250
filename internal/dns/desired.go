package dns

import (
	"net/netip"

	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

// Compute derives the desired record set from the watched resource
// snapshots. owner is the TXT marker content identifying this controller.
//
// Ingresses contribute one address record per rule host per valid
// load-balancer address. Services contribute records only when they carry a
// hostname annotation; load-balancer addresses are preferred, cluster IPs
// are the fallback. Addresses that do not parse as an IP are dropped
// without error. A host that ends up with at least one address record also
// gets exactly one ownership marker.
//
// The result is deduplicated by full record value, so two resources
// declaring the same hostname and address collapse to a single record.
func Compute(resources []resource.Resource, owner string) []Record {
	var records []Record

	seen := make(map[Record]struct{})

	add := func(recs []Record) {
		for _, rec := range recs {
			if _, ok := seen[rec]; ok {
				continue
			}

			seen[rec] = struct{}{}
			records = append(records, rec)
		}
	}

	for _, res := range resources {
		switch res := res.(type) {
		case resource.Ingress:
			for _, host := range res.Hosts {
				add(recordsForHost(host, res.LoadBalancerIPs, owner))
			}
		case resource.Service:
			if res.Hostname == "" {
				continue
			}

			addresses := res.LoadBalancerIPs
			if len(addresses) == 0 {
				addresses = res.ClusterIPs
			}

			add(recordsForHost(res.Hostname, addresses, owner))
		}
	}

	return records
}

// recordsForHost classifies each address and emits one A or AAAA record per
// valid address plus the ownership marker. A host with no valid address
// yields nothing at all: a marker must never exist without the address
// records it vouches for.
func recordsForHost(host string, addresses []string, owner string) []Record {
	var records []Record

	for _, address := range addresses {
		addr, err := netip.ParseAddr(address)
		if err != nil {
			continue
		}

		recordType := TypeAAAA
		if addr.Is4() {
			recordType = TypeA
		}

		records = append(records, Record{
			Type:    recordType,
			Name:    host,
			Content: address,
		})
	}

	if len(records) == 0 {
		return nil
	}

	records = append(records, Record{
		Type:    TypeTXT,
		Name:    host,
		Content: owner,
	})

	return records
}
