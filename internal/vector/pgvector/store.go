package pgvector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

// Store keeps embeddings in per-model pgvector tables. Each embedding model
// gets its own table named chunk_embeddings__<slug> so that models with
// different output dimensions never collide; the table is created lazily on
// the first upsert, sized to that batch's dimension.
type Store struct {
	db  *gorm.DB
	log *logger.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{
		db:      db,
		log:     baseLog.With("component", "pgvector_store"),
		ensured: map[string]bool{},
	}
}

func (s *Store) Upsert(ctx context.Context, model string, profileID uuid.UUID, vectors []vector.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	table := tableName(model)
	if err := s.ensureTable(ctx, table, len(vectors[0].Values)); err != nil {
		return err
	}
	for _, v := range vectors {
		sql := fmt.Sprintf(`
			INSERT INTO %s (chunk_id, chunk_profile_id, embedding)
			VALUES (?, ?, ?::vector)
			ON CONFLICT (chunk_id) DO NOTHING`, table)
		if err := s.db.WithContext(ctx).Exec(sql, v.ChunkID, profileID, literal(v.Values)).Error; err != nil {
			return fmt.Errorf("upsert embedding into %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, model string, profileID uuid.UUID, q []float32, topK int) ([]vector.Match, error) {
	table := tableName(model)
	if !s.tableExists(ctx, table) {
		return nil, nil
	}
	type row struct {
		ChunkID uuid.UUID
		Score   float64
	}
	var rows []row
	sql := fmt.Sprintf(`
		SELECT chunk_id, 1 - (embedding <=> ?::vector) AS score
		FROM %s
		WHERE chunk_profile_id = ?
		ORDER BY embedding <=> ?::vector
		LIMIT ?`, table)
	lit := literal(q)
	if err := s.db.WithContext(ctx).Raw(sql, lit, profileID, lit, topK).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	matches := make([]vector.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, vector.Match{ChunkID: r.ChunkID, Score: r.Score})
	}
	return matches, nil
}

func (s *Store) ExistingChunkIDs(ctx context.Context, model string, profileID uuid.UUID, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return out, nil
	}
	table := tableName(model)
	if !s.tableExists(ctx, table) {
		return out, nil
	}
	var found []uuid.UUID
	sql := fmt.Sprintf(`SELECT chunk_id FROM %s WHERE chunk_profile_id = ? AND chunk_id IN ?`, table)
	if err := s.db.WithContext(ctx).Raw(sql, profileID, chunkIDs).Scan(&found).Error; err != nil {
		return nil, fmt.Errorf("lookup embeddings in %s: %w", table, err)
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (s *Store) ensureTable(ctx context.Context, table string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[table] {
		return nil
	}
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			chunk_id uuid NOT NULL UNIQUE,
			chunk_profile_id uuid NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, table, dim)
	if err := s.db.WithContext(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_profile ON %s (chunk_profile_id)`, table, table)
	if err := s.db.WithContext(ctx).Exec(idx).Error; err != nil {
		return fmt.Errorf("create index on %s: %w", table, err)
	}
	s.ensured[table] = true
	s.log.With("table", table, "dimension", dim).Info("embedding table ready")
	return nil
}

func (s *Store) tableExists(ctx context.Context, table string) bool {
	s.mu.Lock()
	if s.ensured[table] {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	var exists bool
	err := s.db.WithContext(ctx).
		Raw(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = ?)`, table).
		Scan(&exists).Error
	if err != nil {
		s.log.With("table", table, "error", err.Error()).Warn("table existence check failed")
		return false
	}
	if exists {
		s.mu.Lock()
		s.ensured[table] = true
		s.mu.Unlock()
	}
	return exists
}

// tableName derives a per-model table from the model identifier. Only the
// last path segment is kept, with characters outside [a-z0-9_] folded to
// underscores.
func tableName(model string) string {
	slug := model
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	slug = strings.ToLower(slug)
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return "chunk_embeddings__" + b.String()
}

func literal(values []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
