package server

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/qdrant/go-client/qdrant"
)

// pooler is the subset of *pgxpool.Pool used for readiness.
type pooler interface {
	Ping(ctx context.Context) error
}

// PostgresPinger checks the token profile store.
type PostgresPinger struct {
	pool pooler
}

// NewPostgresPinger constructs a PostgresPinger for the given pool.
func NewPostgresPinger(pool pooler) *PostgresPinger {
	return &PostgresPinger{pool: pool}
}

// Name returns the dependency label used in readiness responses.
func (p *PostgresPinger) Name() string { return "postgres" }

// Ping acquires a connection and round-trips an empty statement.
func (p *PostgresPinger) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// OllamaPinger checks an Ollama daemon with its heartbeat endpoint, which
// costs no tokens.
type OllamaPinger struct {
	client *api.Client
	name   string
}

// NewOllamaPinger constructs an OllamaPinger. name distinguishes the chat
// daemon from the embedding daemon when both are checked.
func NewOllamaPinger(client *api.Client, name string) *OllamaPinger {
	return &OllamaPinger{client: client, name: name}
}

// Name returns the dependency label used in readiness responses.
func (p *OllamaPinger) Name() string { return p.name }

// Ping calls the Ollama heartbeat endpoint.
func (p *OllamaPinger) Ping(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	return nil
}

// QdrantPinger checks the embedding cache's Qdrant instance using its native
// HealthCheck RPC.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
