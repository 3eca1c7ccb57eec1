package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
)

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, sha string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:            uuid.New(),
		SHA256:        sha,
		OriginalName:  "doc.txt",
		Format:        "txt",
		Status:        types.DocumentStatusUploaded,
		ReadyProfiles: []byte("[]"),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, docID uuid.UUID, index int, sourceRef string) *types.DocumentSection {
	tb.Helper()
	s := &types.DocumentSection{
		ID:           uuid.New(),
		DocumentID:   docID,
		SectionIndex: index,
		SourceRef:    sourceRef,
		Text:         fmt.Sprintf("section %d text", index),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, size, overlap int, active bool) *types.ChunkProfile {
	tb.Helper()
	p := &types.ChunkProfile{
		ID:           uuid.New(),
		Name:         name,
		ChunkSize:    size,
		ChunkOverlap: overlap,
		IsActive:     active,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, docID, sectionID, profileID uuid.UUID, index int, sourceRef string) *types.DocumentChunk {
	tb.Helper()
	c := &types.DocumentChunk{
		ID:             uuid.New(),
		DocumentID:     docID,
		SectionID:      sectionID,
		ChunkProfileID: profileID,
		ChunkIndex:     index,
		Text:           fmt.Sprintf("chunk %d text", index),
		SourceRef:      sourceRef,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}
