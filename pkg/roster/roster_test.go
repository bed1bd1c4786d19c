package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
)

func TestOpenSeedsMissingRoster(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, taxonomy.Default().LiaisonNames())
	require.NoError(t, err)

	entries := r.List()
	require.Len(t, entries, 5)
	assert.Equal(t, taxonomy.LiaisonA, entries[0].Name)
	assert.Len(t, r.MissingContact(), 5)

	require.NoError(t, r.Save())
	_, err = os.Stat(filepath.Join(dir, "roster.json"))
	assert.NoError(t, err)
}

func TestSetGetRemove(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, nil)
	require.NoError(t, err)

	require.NoError(t, r.Set(model.Assignee{Name: " 艾蜜莉 ", Email: "emily@example.com"}))
	require.NoError(t, r.Set(model.Assignee{Name: "班傑明", MessagingToken: "tok"}))
	require.NoError(t, r.Set(model.Assignee{Name: "艾蜜莉", Email: "emily@corp.example.com"}))
	assert.Error(t, r.Set(model.Assignee{Name: "  "}))

	a, ok := r.Get("艾蜜莉")
	require.True(t, ok)
	assert.Equal(t, "emily@corp.example.com", a.Email)
	assert.Len(t, r.List(), 2)

	assert.True(t, r.Remove("班傑明"))
	assert.False(t, r.Remove("班傑明"))
	_, ok = r.Get("班傑明")
	assert.False(t, ok)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, r.Set(model.Assignee{Name: "克蘿伊", MessagingToken: "line-token"}))
	require.NoError(t, r.Save())

	back, err := Open(dir, []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, []model.Assignee{{Name: "克蘿伊", MessagingToken: "line-token"}}, back.List())
	assert.Empty(t, back.MissingContact())
}

func TestSaveSkipsCleanRoster(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, r.Save())
	_, err = os.Stat(filepath.Join(dir, "roster.json"))
	assert.True(t, os.IsNotExist(err))
}
