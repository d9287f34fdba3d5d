package effort_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/testutil"
)

func TestCreateAndGetGraph(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")

	graph := &effort.Graph{
		Name:        "Q3 Focus",
		Description: "Team allocation for Q3",
		AuthorID:    owner,
		Workstreams: []effort.Workstream{
			{Name: "Engineering", Effort: 60, Color: effort.Palette[0]},
			{Name: "Design", Effort: 40, Color: effort.Palette[1]},
		},
	}
	require.NoError(t, repo.CreateGraph(ctx, graph))
	require.NotEmpty(t, graph.ID)

	got, err := repo.GetGraphWithWorkstreams(ctx, graph.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q3 Focus", got.Name)
	assert.Equal(t, "Team allocation for Q3", got.Description)
	assert.Equal(t, owner, got.AuthorID)
	require.Len(t, got.Workstreams, 2)
	assert.Equal(t, "Engineering", got.Workstreams[0].Name)
	assert.Equal(t, 60.0, got.Workstreams[0].Effort)
}

func TestGetGraphNotFound(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)

	_, err := repo.GetGraph(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateGraphBumpsUpdatedAt(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")

	graph := &effort.Graph{
		Name:     "Before",
		AuthorID: owner,
		Workstreams: []effort.Workstream{
			{Name: "A", Effort: 100, Color: effort.Palette[0]},
		},
	}
	require.NoError(t, repo.CreateGraph(ctx, graph))
	created := graph.UpdatedAt

	time.Sleep(2 * time.Millisecond)

	graph.Name = "After"
	graph.Workstreams = []effort.Workstream{
		{Name: "A", Effort: 30, Color: effort.Palette[0]},
		{Name: "B", Effort: 70, Color: effort.Palette[1]},
	}
	require.NoError(t, repo.UpdateGraph(ctx, graph))

	got, err := repo.GetGraphWithWorkstreams(ctx, graph.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	require.Len(t, got.Workstreams, 2)
	assert.True(t, got.UpdatedAt.After(created), "updated_at %v should be after %v", got.UpdatedAt, created)
}

func TestUpdateMissingGraph(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)

	err := repo.UpdateGraph(context.Background(), &effort.Graph{ID: "missing", Name: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteGraphCascades(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")

	graph := &effort.Graph{
		Name:     "Doomed",
		AuthorID: owner,
		Workstreams: []effort.Workstream{
			{Name: "A", Effort: 100, Color: effort.Palette[0]},
		},
	}
	require.NoError(t, repo.CreateGraph(ctx, graph))

	// A share and a permission hanging off the graph must go with it.
	_, err := db.Exec(`
		INSERT INTO shared_efforts (id, graph_id, share_token, created_by, created_at)
		VALUES ('s1', ?, 'tok-1', ?, ?)
	`, graph.ID, owner, time.Now().UTC().Format(time.RFC3339Nano))
	require.NoError(t, err)
	viewer := testutil.SeedUser(t, db, "viewer@example.com")
	require.NoError(t, repo.GrantPermission(ctx, effort.Permission{
		GraphID: graph.ID, UserID: viewer, Level: effort.PermissionViewer,
	}))

	require.NoError(t, repo.DeleteGraph(ctx, graph.ID))

	_, err = repo.GetGraph(ctx, graph.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM workstreams WHERE graph_id = ?`, graph.ID).Scan(&count))
	assert.Zero(t, count, "workstreams should cascade")
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM shared_efforts WHERE graph_id = ?`, graph.ID).Scan(&count))
	assert.Zero(t, count, "shares should cascade")
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM graph_permissions WHERE graph_id = ?`, graph.ID).Scan(&count))
	assert.Zero(t, count, "permissions should cascade")
}

func TestFindGraphByName(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")
	other := testutil.SeedUser(t, db, "other@example.com")

	require.NoError(t, repo.CreateGraph(ctx, &effort.Graph{
		Name: "Sprint 12", AuthorID: owner,
		Workstreams: []effort.Workstream{{Name: "A", Effort: 100, Color: effort.Palette[0]}},
	}))

	got, err := repo.FindGraphByName(ctx, owner, "Sprint 12")
	require.NoError(t, err)
	assert.Len(t, got.Workstreams, 1)

	_, err = repo.FindGraphByName(ctx, other, "Sprint 12")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "name lookup is scoped to the author")
}

func TestListGraphsByAuthor(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")

	for _, name := range []string{"First", "Second"} {
		require.NoError(t, repo.CreateGraph(ctx, &effort.Graph{
			Name: name, AuthorID: owner,
			Workstreams: []effort.Workstream{{Name: "A", Effort: 1, Color: effort.Palette[0]}},
		}))
	}

	graphs, err := repo.ListGraphsByAuthor(ctx, owner)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	for _, g := range graphs {
		assert.Len(t, g.Workstreams, 1)
	}
}

func TestGrantPermissionUpsert(t *testing.T) {
	db := testutil.DB(t)
	repo := effort.NewLibsqlRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner@example.com")
	viewer := testutil.SeedUser(t, db, "viewer@example.com")

	graph := &effort.Graph{Name: "G", AuthorID: owner}
	require.NoError(t, repo.CreateGraph(ctx, graph))

	require.NoError(t, repo.GrantPermission(ctx, effort.Permission{
		GraphID: graph.ID, UserID: viewer, Level: effort.PermissionViewer,
	}))
	require.NoError(t, repo.GrantPermission(ctx, effort.Permission{
		GraphID: graph.ID, UserID: viewer, Level: effort.PermissionEditor,
	}))

	p, err := repo.GetPermission(ctx, graph.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, effort.PermissionEditor, p.Level)
}
