package vectorindex

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index using Qdrant with one collection per user.
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex creates a new Qdrant index client.
// url should be in format "host:port" (e.g., "localhost:6334").
func NewQdrantIndex(ctx context.Context, url string) (*QdrantIndex, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// If no port specified, assume default
		host = url
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client}, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}

func (s *QdrantIndex) collectionName(userID string) string {
	return fmt.Sprintf("user_%s", userID)
}

// EnsureNamespace creates the user's collection if it does not already exist.
func (s *QdrantIndex) EnsureNamespace(ctx context.Context, userID string, dimension int) error {
	name := s.collectionName(userID)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// Upsert inserts or replaces points in the user's collection.
func (s *QdrantIndex) Upsert(ctx context.Context, userID string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	name := s.collectionName(userID)

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := map[string]*qdrant.Value{
			"content_type": qdrant.NewValueString(p.ContentType),
		}
		if p.ProjectID != "" {
			payload["project_id"] = qdrant.NewValueString(p.ProjectID)
		}

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ChunkID),
			Payload: payload,
			Vectors: qdrant.NewVectors(p.Vector...),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search performs cosine similarity search in the user's collection.
func (s *QdrantIndex) Search(ctx context.Context, userID string, vector []float32, topK int, minScore float32) ([]Hit, error) {
	name := s.collectionName(userID)

	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(minScore),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]Hit, 0, len(response))
	for _, point := range response {
		hits = append(hits, Hit{
			ChunkID: point.Id.GetUuid(),
			Score:   point.Score,
		})
	}

	return hits, nil
}

// Delete removes points by chunk ID.
func (s *QdrantIndex) Delete(ctx context.Context, userID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	name := s.collectionName(userID)

	pointIDs := make([]*qdrant.PointId, len(chunkIDs))
	for i, id := range chunkIDs {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: pointIDs,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete by IDs: %w", err)
	}

	return nil
}

// DropNamespace deletes the user's collection.
func (s *QdrantIndex) DropNamespace(ctx context.Context, userID string) error {
	name := s.collectionName(userID)

	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return nil
}

// Ensure QdrantIndex implements Index.
var _ Index = (*QdrantIndex)(nil)
