package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilotx/copilotx-server/internal/model"
)

func TestSaveOpenDelete(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	saved, err := lib.Save("images", "u1", ".png", []byte("fake-png"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), saved.Size)
	assert.Equal(t, "/api/ai/images/u1/"+saved.Filename, saved.URL)

	data, err := lib.Open("images", "u1", saved.Filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)

	require.NoError(t, lib.Delete("images", "u1", saved.Filename))
	_, err = lib.Open("images", "u1", saved.Filename)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, lib.Delete("images", "u1", saved.Filename), model.ErrNotFound)
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	// Seed a file owned by another user.
	saved, err := lib.Save("images", "victim", ".png", []byte("secret"))
	require.NoError(t, err)

	_, err = lib.Open("images", "attacker", "../user-victim/"+saved.Filename)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = lib.Open("images", "attacker", "../../../../etc/passwd")
	assert.ErrorIs(t, err, model.ErrForbidden)

	assert.ErrorIs(t, lib.Delete("images", "attacker", "../user-victim/"+saved.Filename), model.ErrForbidden)
}

func TestListNewestFirst(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	// Missing directory is an empty list.
	files, err := lib.List("videos", "u1")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = lib.Save("videos", "u1", ".mp4", []byte("a"))
	require.NoError(t, err)
	_, err = lib.Save("videos", "u1", ".mp4", []byte("bb"))
	require.NoError(t, err)

	files, err = lib.List("videos", "u1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.False(t, files[0].ModTime.Before(files[1].ModTime))

	// Other users' files are not visible.
	files, err = lib.List("videos", "u2")
	require.NoError(t, err)
	assert.Empty(t, files)
}
