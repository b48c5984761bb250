package dns

// RecordType is a DNS record type managed by this controller.
type RecordType string

// Record types the controller knows how to manage. Everything else in a
// zone is left untouched.
const (
	TypeA    RecordType = "A"
	TypeAAAA RecordType = "AAAA"
	TypeTXT  RecordType = "TXT"
)

// DefaultOwnerContent is the TXT payload marking records managed by this
// controller. It is fixed for the lifetime of a deployment: changing it
// orphans every record the previous identity created.
const DefaultOwnerContent = "cloudflare-dns-controller"

// Record is a single DNS record, either desired (ID empty) or as reported
// by the provider (ID assigned on creation).
//
// Two records refer to the same provider-side entry when type and name
// match; content and ID are payload. The struct is comparable so desired
// records can be deduplicated by full value.
type Record struct {
	ID      string     `json:"id,omitempty"`
	Type    RecordType `json:"type"`
	Name    string     `json:"name"`
	Content string     `json:"content"`
}

// Matches reports whether two records refer to the same zone entry,
// ignoring content and provider ID.
func (r Record) Matches(other Record) bool {
	return r.Type == other.Type && r.Name == other.Name
}
