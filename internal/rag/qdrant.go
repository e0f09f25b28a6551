package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for the Qdrant embedding cache.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the cached embeddings.
	VectorSize uint64

	// Namespace separates vectors produced by different embedding models.
	// It is mixed into every point ID, so switching models never returns a
	// stale vector.
	Namespace string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantCache implements EmbeddingCache backed by a Qdrant collection. Only
// vectors are cached; the per-request Index is still built in memory.
type QdrantCache struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this cache.
	cfg *QdrantConfig
}

// NewQdrantCache creates a QdrantCache, ensuring the target collection exists
// (creating it if necessary).
func NewQdrantCache(ctx context.Context, cfg *QdrantConfig) (*QdrantCache, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name must not be empty")
	}
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("qdrant: vector size must be positive")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	cache := &QdrantCache{client: client, cfg: cfg}
	if err := cache.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return cache, nil
}

// Client exposes the gRPC client for readiness checks.
func (c *QdrantCache) Client() *qdrant.Client { return c.client }

// ensureCollection creates the Qdrant collection if it does not already exist.
func (c *QdrantCache) ensureCollection(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     c.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", c.cfg.Collection, err)
	}
	return nil
}

// pointID maps a cache key to a deterministic UUID within the namespace.
func (c *QdrantCache) pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.cfg.Namespace+"/"+key)).String()
}

// Lookup fetches the cached vectors for keys.
func (c *QdrantCache) Lookup(ctx context.Context, keys []string) (map[string][]float32, error) {
	if len(keys) == 0 {
		return map[string][]float32{}, nil
	}

	byID := make(map[string]string, len(keys))
	ids := make([]*qdrant.PointId, 0, len(keys))
	for _, k := range keys {
		id := c.pointID(k)
		byID[id] = k
		ids = append(ids, qdrant.NewIDUUID(id))
	}

	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.cfg.Collection,
		Ids:            ids,
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: lookup failed: %w", err)
	}

	out := make(map[string][]float32, len(points))
	for _, p := range points {
		key, ok := byID[p.GetId().GetUuid()]
		if !ok {
			continue
		}
		if data := p.GetVectors().GetVector().GetData(); len(data) > 0 {
			out[key] = data
		}
	}
	return out, nil
}

// Store upserts vectors[i] under keys[i].
func (c *QdrantCache) Store(ctx context.Context, keys []string, vectors [][]float32) error {
	if len(keys) != len(vectors) {
		return fmt.Errorf("qdrant: %d keys but %d vectors", len(keys), len(vectors))
	}
	if len(keys) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(keys))
	for i, k := range keys {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(c.pointID(k)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"key":       k,
				"namespace": c.cfg.Namespace,
			}),
		})
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (c *QdrantCache) Close() error {
	return c.client.Close()
}
