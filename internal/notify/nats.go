package notify

import (
	"context"       // Context for cancellation
	"encoding/json" // JSON encoding/decoding

	"artisanhub/internal/metrics" // Prometheus collectors

	"github.com/nats-io/nats.go" // NATS client
)

// SubjectPrefix is prepended to the event type to build the NATS subject
const SubjectPrefix = "artisanhub."

// Publisher is the subset of *nats.Conn the sink needs
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSSink publishes events on artisanhub.<event>
type NATSSink struct {
	pub Publisher
}

// NewNATSSink wraps an established publisher
func NewNATSSink(pub Publisher) *NATSSink {
	return &NATSSink{pub: pub}
}

// ConnectNATS dials the server with reconnects enabled
func ConnectNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("artisanhub"),
		nats.MaxReconnects(-1),
	)
}

// Name identifies the sink in logs and metrics
func (n *NATSSink) Name() string { return "nats" }

// Send publishes ev as JSON
func (n *NATSSink) Send(ctx context.Context, ev Event) (err error) {
	defer func() { metrics.Notifications.WithLabelValues(n.Name(), ev.Type, metrics.Outcome(err)).Inc() }()

	if err := ctx.Err(); err != nil {
		return err // Delivery budget already spent
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.pub.Publish(SubjectPrefix+ev.Type, data) // e.g. artisanhub.product.created
}
