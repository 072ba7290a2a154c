// Package vectorstore keeps one Postgres table per collection, with pgvector
// embeddings and a jsonb payload. Point ids are deterministic (see PointID),
// which is what makes upserts idempotent across pipeline retries.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Point is one vector plus its metadata payload.
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a query hit: cosine similarity in [0,1] plus the payload.
type ScoredPoint struct {
	ID      uuid.UUID
	Score   float64
	Payload map[string]interface{}
}

type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Collection names come from folder names and search types; they are
// interpolated into SQL, so anything else is rejected outright.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func tableName(collection string) (string, error) {
	if !collectionNamePattern.MatchString(collection) {
		return "", fmt.Errorf("invalid collection name: %q", collection)
	}
	return "points_" + collection, nil
}

// EnsureCollection creates the collection's table and cosine index when they
// do not exist yet and returns the current point count.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dimension int) (int64, error) {
	table, err := tableName(collection)
	if err != nil {
		return 0, err
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			payload jsonb NOT NULL DEFAULT '{}'::jsonb
		)`, table, dimension)
	if _, err := s.db.Exec(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_embedding
		ON %s USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`, table, table)
	if _, err := s.db.Exec(ctx, indexSQL); err != nil {
		return 0, fmt.Errorf("failed to create index for collection %s: %w", collection, err)
	}

	var count int64
	if err := s.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count points in collection %s: %w", collection, err)
	}

	s.logger.Info("Collection ready",
		slog.String("collection", collection),
		slog.Int64("point_count", count))
	return count, nil
}

// Upsert writes the points, overwriting any existing point with the same id.
// There is no transaction around the batch: last writer per id wins, which
// is safe because ids are content-derived.
func (s *Store) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	table, err := tableName(collection)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`, table)
	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload for point %s: %w", p.ID, err)
		}
		batch.Queue(upsertSQL, p.ID, pgvector.NewVector(p.Vector), payload)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert into collection %s: %w", collection, err)
		}
	}
	return nil
}

// Query returns the limit nearest points by cosine distance, optionally
// restricted to payloads whose filename matches one of sources.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, sources []string, limit int) ([]ScoredPoint, error) {
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}

	querySQL := fmt.Sprintf(`
		SELECT id, 1 - (embedding <=> $1) AS score, payload
		FROM %s`, table)
	args := []interface{}{pgvector.NewVector(vector)}
	if len(sources) > 0 {
		querySQL += "\n\t\tWHERE payload->>'filename' = ANY($2)"
		args = append(args, sources)
	}
	querySQL += fmt.Sprintf("\n\t\tORDER BY embedding <=> $1 LIMIT %d", limit)

	rows, err := s.db.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var results []ScoredPoint
	for rows.Next() {
		var sp ScoredPoint
		var payload []byte
		if err := rows.Scan(&sp.ID, &sp.Score, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan query result: %w", err)
		}
		if err := json.Unmarshal(payload, &sp.Payload); err != nil {
			s.logger.Error("Failed to parse point payload",
				slog.String("collection", collection),
				slog.String("point_id", sp.ID.String()),
				slog.String("error", err.Error()))
			sp.Payload = map[string]interface{}{}
		}
		results = append(results, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query results: %w", err)
	}
	return results, nil
}

// DropCollection removes a collection's table entirely. Used by operational
// tooling, never by the pipelines.
func (s *Store) DropCollection(ctx context.Context, collection string) error {
	table, err := tableName(collection)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", collection, err)
	}
	return nil
}

// SearchCollection composes the physical collection name for a search type,
// e.g. ("chunk", "form") -> "chunk_form".
func SearchCollection(searchType, collection string) string {
	return strings.ToLower(searchType) + "_" + collection
}
