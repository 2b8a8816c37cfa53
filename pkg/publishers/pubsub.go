package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubPublisher struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

// newPubSubPublisher dials Pub/Sub for the configured project. When
// PUBSUB_EMULATOR_HOST is set the client library targets the emulator.
func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubPublisher{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    ensureLogger(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypePubSub }

// Publish blocks until the server acknowledges the message.
func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attrs := evt.attributes()
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}

	serverID, err := p.topic.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs}).Get(ctx)
	if err != nil {
		p.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", deliveryFields(p.id, evt, err))
		return fmt.Errorf("publish to pubsub: %w", err)
	}

	fields := deliveryFields(p.id, evt, nil)
	fields["message_id"] = serverID
	p.log.DebugObj("pubsub publisher delivered event", "publisher_pubsub_delivery", fields)
	return nil
}

// Close flushes pending messages and releases the client connection.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
