package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos/testutil"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
)

func TestSectionRepoRedeliveryIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewSectionRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, "bbbb000000000000000000000000000000000000000000000000000000000001")

	batch := []*types.DocumentSection{
		{DocumentID: doc.ID, SectionIndex: 0, SourceRef: "page=1", Text: "first"},
		{DocumentID: doc.ID, SectionIndex: 1, SourceRef: "page=2", Text: "second"},
	}
	if err := repo.CreateIgnoreConflicts(dbc, batch); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	redelivered := []*types.DocumentSection{
		{DocumentID: doc.ID, SectionIndex: 0, SourceRef: "page=1", Text: "first"},
		{DocumentID: doc.ID, SectionIndex: 1, SourceRef: "page=2", Text: "second"},
	}
	if err := repo.CreateIgnoreConflicts(dbc, redelivered); err != nil {
		t.Fatalf("redelivered insert: %v", err)
	}

	rows, err := repo.GetByDocumentID(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("redelivery duplicated sections: got %d rows", len(rows))
	}
	if rows[0].SourceRef != "page=1" || rows[1].SourceRef != "page=2" {
		t.Fatalf("sections out of order: %q, %q", rows[0].SourceRef, rows[1].SourceRef)
	}
}

func TestChunkRepoGenerationsAreIsolated(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewChunkRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, "bbbb000000000000000000000000000000000000000000000000000000000002")
	sec := testutil.SeedSection(t, ctx, tx, doc.ID, 0, "page=1")
	profA := testutil.SeedProfile(t, ctx, tx, "gen-a", 100, 20, true)
	profB := testutil.SeedProfile(t, ctx, tx, "gen-b", 200, 40, false)

	genA := []*types.DocumentChunk{
		{DocumentID: doc.ID, SectionID: sec.ID, ChunkProfileID: profA.ID, ChunkIndex: 0, Text: "a0", SourceRef: sec.SourceRef},
		{DocumentID: doc.ID, SectionID: sec.ID, ChunkProfileID: profA.ID, ChunkIndex: 1, Text: "a1", SourceRef: sec.SourceRef},
	}
	if err := repo.CreateIgnoreConflicts(dbc, genA); err != nil {
		t.Fatalf("insert generation A: %v", err)
	}
	// Redelivery of the same generation is a no-op.
	if err := repo.CreateIgnoreConflicts(dbc, []*types.DocumentChunk{
		{DocumentID: doc.ID, SectionID: sec.ID, ChunkProfileID: profA.ID, ChunkIndex: 0, Text: "a0", SourceRef: sec.SourceRef},
	}); err != nil {
		t.Fatalf("redelivered insert: %v", err)
	}

	genB := []*types.DocumentChunk{
		{DocumentID: doc.ID, SectionID: sec.ID, ChunkProfileID: profB.ID, ChunkIndex: 0, Text: "b0", SourceRef: sec.SourceRef},
	}
	if err := repo.CreateIgnoreConflicts(dbc, genB); err != nil {
		t.Fatalf("insert generation B: %v", err)
	}

	rowsA, err := repo.GetByDocumentAndProfile(dbc, doc.ID, profA.ID)
	if err != nil || len(rowsA) != 2 {
		t.Fatalf("generation A: err=%v len=%d", err, len(rowsA))
	}
	rowsB, err := repo.GetByDocumentAndProfile(dbc, doc.ID, profB.ID)
	if err != nil || len(rowsB) != 1 {
		t.Fatalf("generation B: err=%v len=%d", err, len(rowsB))
	}

	n, err := repo.CountByDocumentAndProfile(dbc, doc.ID, profA.ID)
	if err != nil || n != 2 {
		t.Fatalf("CountByDocumentAndProfile: err=%v n=%d", err, n)
	}

	ids := []uuid.UUID{rowsA[0].ID, rowsB[0].ID}
	got, err := repo.GetByIDs(dbc, ids)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(got))
	}
}

func TestChunkRepoOrdersBySectionIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewChunkRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, "bbbb000000000000000000000000000000000000000000000000000000000003")
	prof := testutil.SeedProfile(t, ctx, tx, "order-check", 100, 20, false)

	// Section ids deliberately sort opposite to section_index.
	first := &types.DocumentSection{
		ID:           uuid.MustParse("ffffffff-ffff-4fff-8fff-ffffffffffff"),
		DocumentID:   doc.ID,
		SectionIndex: 0,
		SourceRef:    "heading=First",
		Text:         "first section",
	}
	second := &types.DocumentSection{
		ID:           uuid.MustParse("00000000-0000-4000-8000-000000000001"),
		DocumentID:   doc.ID,
		SectionIndex: 1,
		SourceRef:    "heading=Second",
		Text:         "second section",
	}
	for _, s := range []*types.DocumentSection{first, second} {
		if err := tx.WithContext(ctx).Create(s).Error; err != nil {
			t.Fatalf("seed section: %v", err)
		}
	}

	testutil.SeedChunk(t, ctx, tx, doc.ID, second.ID, prof.ID, 0, second.SourceRef)
	testutil.SeedChunk(t, ctx, tx, doc.ID, first.ID, prof.ID, 0, first.SourceRef)
	testutil.SeedChunk(t, ctx, tx, doc.ID, first.ID, prof.ID, 1, first.SourceRef)

	rows, err := repo.GetByDocumentAndProfile(dbc, doc.ID, prof.ID)
	if err != nil {
		t.Fatalf("GetByDocumentAndProfile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(rows))
	}
	want := []struct {
		sectionID  uuid.UUID
		chunkIndex int
	}{
		{first.ID, 0},
		{first.ID, 1},
		{second.ID, 0},
	}
	for i, w := range want {
		if rows[i].SectionID != w.sectionID || rows[i].ChunkIndex != w.chunkIndex {
			t.Fatalf("row %d: got section=%s index=%d, want section=%s index=%d",
				i, rows[i].SectionID, rows[i].ChunkIndex, w.sectionID, w.chunkIndex)
		}
	}
}
