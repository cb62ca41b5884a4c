package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// DefaultName is the connection name reported to the NATS server.
const DefaultName = "pitwall"

// ResolveURL picks the server to dial: the explicit url when set, then the
// NATS_URL environment variable, then nats.DefaultURL.
func ResolveURL(url string) string {
	if url != "" {
		return url
	}
	if env := os.Getenv("NATS_URL"); env != "" {
		return env
	}
	return nats.DefaultURL
}

// NewClient connects to the NATS server at url (see ResolveURL). Without
// explicit options the connection is named "pitwall" and uses compression.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(DefaultName), nats.Compression(true))
	}
	return nats.Connect(ResolveURL(url), opts...)
}
