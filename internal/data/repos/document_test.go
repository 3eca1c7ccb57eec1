package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos/testutil"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
)

func TestDocumentRepoDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewDocumentRepo(db, testutil.Logger(t))

	first := &types.Document{
		SHA256:       "aaaa000000000000000000000000000000000000000000000000000000000001",
		OriginalName: "report.txt",
		Format:       "txt",
		Status:       types.DocumentStatusUploaded,
	}
	created, wasNew, err := repo.CreateOrGetBySHA256(dbc, first)
	if err != nil || !wasNew {
		t.Fatalf("first CreateOrGetBySHA256: err=%v wasNew=%v", err, wasNew)
	}

	dup := &types.Document{
		SHA256:       first.SHA256,
		OriginalName: "report-copy.txt",
		Format:       "txt",
		Status:       types.DocumentStatusUploaded,
	}
	resolved, wasNew, err := repo.CreateOrGetBySHA256(dbc, dup)
	if err != nil {
		t.Fatalf("second CreateOrGetBySHA256: %v", err)
	}
	if wasNew {
		t.Fatalf("re-upload of identical bytes must not create a new document")
	}
	if resolved.ID != created.ID {
		t.Fatalf("dedup returned different identity: %s vs %s", resolved.ID, created.ID)
	}
	if resolved.OriginalName != "report.txt" {
		t.Fatalf("dedup must keep the original record, got name %q", resolved.OriginalName)
	}
}

func TestDocumentRepoStatusAndReadyProfiles(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewDocumentRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, "aaaa000000000000000000000000000000000000000000000000000000000002")

	if err := repo.SetStatus(dbc, doc.ID, types.DocumentStatusFailed, "boom"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := repo.GetByID(dbc, doc.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.Status != types.DocumentStatusFailed || got.ErrorMessage != "boom" {
		t.Fatalf("status not persisted verbatim: %q / %q", got.Status, got.ErrorMessage)
	}

	p1 := uuid.New()
	p2 := uuid.New()
	if err := repo.AddReadyProfile(dbc, doc.ID, p1); err != nil {
		t.Fatalf("AddReadyProfile p1: %v", err)
	}
	// Adding the same profile twice keeps the set a set.
	if err := repo.AddReadyProfile(dbc, doc.ID, p1); err != nil {
		t.Fatalf("AddReadyProfile p1 again: %v", err)
	}
	if err := repo.AddReadyProfile(dbc, doc.ID, p2); err != nil {
		t.Fatalf("AddReadyProfile p2: %v", err)
	}
	ids, err := repo.ReadyProfileIDs(dbc, doc.ID)
	if err != nil {
		t.Fatalf("ReadyProfileIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ready profiles, got %d", len(ids))
	}
}
