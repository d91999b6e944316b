package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/domain/mocks"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newImage(t *testing.T, dir, name string) *wallpaper.SavedImage {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	img, err := wallpaper.Load(path)
	require.NoError(t, err)
	return img
}

func TestStore_Load(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Record
	}{
		{name: "Missing File", expected: Record{}},
		{name: "Garbage", content: "this is = = not toml", expected: Record{}},
		{name: "Empty", content: "", expected: Record{}},
		{
			name:     "Image",
			content:  "[image]\nkind = \"image\"\npath = \"/tmp/a.png\"\n",
			expected: ImageRecord("/tmp/a.png"),
		},
		{
			name:     "Collection",
			content:  "[image]\nkind = \"collection\"\npath = \"/tmp/b.jpg\"\ncollection = \"nature\"\n",
			expected: CollectionRecord("nature", "/tmp/b.jpg"),
		},
		{
			name:     "Unknown Kind",
			content:  "[image]\nkind = \"video\"\npath = \"/tmp/c.mp4\"\n",
			expected: Record{},
		},
		{
			name:     "Externally Tagged Layout",
			content:  "[image.Collection]\nname = \"nature\"\nimage_path = \"/tmp/d.png\"\n",
			expected: Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.toml")
			if tt.name != "Missing File" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}
			require.Equal(t, tt.expected, NewStore(zap.NewNop(), path).Load())
		})
	}
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	img := newImage(t, dir, "wall.png")
	statePath := filepath.Join(dir, "data", "state.toml")

	err := NewStore(zap.NewNop(), statePath).Update(func(s *Session) error {
		s.SetImage(img)
		return nil
	})
	require.NoError(t, err)

	// a fresh store stands in for the next process
	err = NewStore(zap.NewNop(), statePath).Update(func(s *Session) error {
		current, err := s.Current()
		require.NoError(t, err)
		require.Equal(t, img.Path(), current.Path())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.Remove(img.Path()))
	sess := Open(zap.NewNop(), NewStore(zap.NewNop(), statePath))
	_, err = sess.Current()
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_CurrentUnset(t *testing.T) {
	sess := Open(zap.NewNop(), NewStore(zap.NewNop(), filepath.Join(t.TempDir(), "state.toml")))
	_, err := sess.Current()
	require.ErrorIs(t, err, domain.ErrNoImageSet)
	require.Equal(t, domain.KindState, domain.KindOf(err))
}

func TestStore_UpdateFlushesOnError(t *testing.T) {
	dir := t.TempDir()
	img := newImage(t, dir, "x.jpg")
	store := NewStore(zap.NewNop(), filepath.Join(dir, "state.toml"))

	boom := errors.New("boom")
	err := store.Update(func(s *Session) error {
		s.SetCollection("nature", img)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, CollectionRecord("nature", img.Path()), store.Load())
}

func TestStore_UpdateWritesWithoutMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	store := NewStore(zap.NewNop(), path)

	require.NoError(t, store.Update(func(*Session) error { return nil }))
	_, err := os.Stat(path)
	require.NoError(t, err, "state file is written even when nothing changed")
}

func TestStore_UpdateJoinsFlushError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	store := NewStore(zap.NewNop(), filepath.Join(blocker, "state.toml"))

	boom := errors.New("boom")
	err := store.Update(func(*Session) error { return boom })
	require.ErrorIs(t, err, boom)
	require.True(t, domain.IsKind(err, domain.KindFs), "flush failure is reported too: %v", err)
}

func TestSession_Assign(t *testing.T) {
	dir := t.TempDir()
	img := newImage(t, dir, "a.png")

	tests := []struct {
		name         string
		record       Record
		setupMock    func(*mocks.MockExecutor)
		expectedKind domain.Kind
	}{
		{
			name:      "Unset Is A No-op",
			record:    Record{},
			setupMock: func(m *mocks.MockExecutor) {},
		},
		{
			name:   "Success - Applies Recorded Path",
			record: ImageRecord(img.Path()),
			setupMock: func(m *mocks.MockExecutor) {
				m.EXPECT().SetWallpaper(gomock.Any(), img.Path()).Return(nil)
			},
		},
		{
			name:   "Error - Command Fails",
			record: ImageRecord(img.Path()),
			setupMock: func(m *mocks.MockExecutor) {
				m.EXPECT().SetWallpaper(gomock.Any(), img.Path()).Return(errors.New("exit status 1"))
			},
			expectedKind: domain.KindCommand,
		},
		{
			name:   "Error - No Set Command",
			record: ImageRecord(img.Path()),
			setupMock: func(m *mocks.MockExecutor) {
				m.EXPECT().SetWallpaper(gomock.Any(), img.Path()).Return(domain.ErrNoSetCommand)
			},
			expectedKind: domain.KindState,
		},
		{
			name:         "Error - File Gone",
			record:       ImageRecord(filepath.Join(dir, "gone.png")),
			setupMock:    func(m *mocks.MockExecutor) {},
			expectedKind: domain.KindFs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			exec := mocks.NewMockExecutor(ctrl)
			tt.setupMock(exec)

			sess := &Session{logger: zap.NewNop(), record: tt.record}
			err := sess.Assign(context.Background(), exec)
			if tt.expectedKind != "" {
				require.Error(t, err)
				require.Equal(t, tt.expectedKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSession_Reapply(t *testing.T) {
	dir := t.TempDir()
	recorded := newImage(t, dir, "recorded.png")
	fresh := newImage(t, dir, "fresh.png")
	record := CollectionRecord("nature", recorded.Path())

	sampler := func(name string) (*wallpaper.SavedImage, error) {
		require.Equal(t, "nature", name)
		return fresh, nil
	}

	t.Run("Resample Draws A New Image", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().SetWallpaper(gomock.Any(), fresh.Path()).Return(nil)

		sess := &Session{logger: zap.NewNop(), record: record}
		require.NoError(t, sess.Reapply(context.Background(), exec, ReapplyResample, sampler))
		require.Equal(t, record, sess.Record(), "reapply never mutates the record")
	})

	t.Run("Reuse Applies The Recorded Image", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().SetWallpaper(gomock.Any(), recorded.Path()).Return(nil)

		sess := &Session{logger: zap.NewNop(), record: record}
		require.NoError(t, sess.Reapply(context.Background(), exec, ReapplyReuse, sampler))
	})

	t.Run("Image Record Ignores Mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exec := mocks.NewMockExecutor(ctrl)
		exec.EXPECT().SetWallpaper(gomock.Any(), recorded.Path()).Return(nil)

		sess := &Session{logger: zap.NewNop(), record: ImageRecord(recorded.Path())}
		require.NoError(t, sess.Reapply(context.Background(), exec, ReapplyResample, sampler))
	})

	t.Run("Empty Collection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exec := mocks.NewMockExecutor(ctrl)

		sess := &Session{logger: zap.NewNop(), record: record}
		err := sess.Reapply(context.Background(), exec, ReapplyResample, func(string) (*wallpaper.SavedImage, error) {
			return nil, domain.E(domain.KindConfig, "collection.random", errors.New("collection is empty"))
		})
		require.ErrorContains(t, err, "collection is empty")
	})
}
