package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

func videoEntry(n int) VideoEntry {
	return VideoEntry{
		Collection: fmt.Sprintf("video_test_%d", n),
		Info:       model.VideoInfo{Title: fmt.Sprintf("Video %d", n)},
	}
}

func TestRegisterActivatesAndOrders(t *testing.T) {
	s := New(5, 20)
	require.Nil(t, s.Register(videoEntry(1)))
	require.Nil(t, s.Register(videoEntry(2)))

	active, ok := s.Active()
	require.True(t, ok)
	require.Equal(t, "video_test_2", active)

	lib := s.Library()
	require.Len(t, lib, 2)
	require.Equal(t, "video_test_1", lib[0].Collection)
	require.Equal(t, "video_test_2", lib[1].Collection)
}

func TestRegisterEvictsOldest(t *testing.T) {
	s := New(3, 20)
	for i := 1; i <= 3; i++ {
		require.Nil(t, s.Register(videoEntry(i)))
	}
	evicted := s.Register(videoEntry(4))
	require.NotNil(t, evicted)
	require.Equal(t, "video_test_1", evicted.Collection)
	require.Len(t, s.Library(), 3)
}

func TestRegisterEvictionDropsActiveSelection(t *testing.T) {
	s := New(2, 20)
	s.Register(videoEntry(1))
	s.Register(videoEntry(2))
	require.NoError(t, s.SetActive("video_test_1"))

	evicted := s.Register(videoEntry(3))
	require.NotNil(t, evicted)
	require.Equal(t, "video_test_1", evicted.Collection)

	// registration always activates the new video
	active, ok := s.Active()
	require.True(t, ok)
	require.Equal(t, "video_test_3", active)
}

func TestRegisterSameCollectionReplaces(t *testing.T) {
	s := New(5, 20)
	s.Register(videoEntry(1))
	s.Register(videoEntry(2))

	updated := videoEntry(1)
	updated.ChunkCount = 42
	require.Nil(t, s.Register(updated))

	lib := s.Library()
	require.Len(t, lib, 2)
	require.Equal(t, "video_test_1", lib[0].Collection)
	require.Equal(t, 42, lib[0].ChunkCount)
}

func TestSetActiveClearsChatOnSwitch(t *testing.T) {
	s := New(5, 20)
	s.Register(videoEntry(1))
	s.Register(videoEntry(2))

	s.AppendChat(model.RoleUser, "hello")
	s.AppendChat(model.RoleAssistant, "hi")
	require.Len(t, s.History(), 2)

	// re-activating the current video keeps history
	require.NoError(t, s.SetActive("video_test_2"))
	require.Len(t, s.History(), 2)

	// switching discards it
	require.NoError(t, s.SetActive("video_test_1"))
	require.Empty(t, s.History())
}

func TestSetActiveUnknownCollection(t *testing.T) {
	s := New(5, 20)
	s.Register(videoEntry(1))
	require.ErrorIs(t, s.SetActive("video_test_9"), appErr.ErrNotFound)
}

func TestRemove(t *testing.T) {
	s := New(5, 20)
	s.Register(videoEntry(1))
	s.Register(videoEntry(2))
	s.AppendChat(model.RoleUser, "question about video 2")

	wasActive, found := s.Remove("video_test_1")
	require.True(t, found)
	require.False(t, wasActive)
	require.Len(t, s.History(), 1)

	wasActive, found = s.Remove("video_test_2")
	require.True(t, found)
	require.True(t, wasActive)
	require.Empty(t, s.History())
	_, ok := s.Active()
	require.False(t, ok)

	_, found = s.Remove("video_test_2")
	require.False(t, found)
}

func TestChatHistoryBounded(t *testing.T) {
	s := New(5, 4)
	s.Register(videoEntry(1))
	for i := 0; i < 10; i++ {
		s.AppendChat(model.RoleUser, fmt.Sprintf("q%d", i))
	}
	history := s.History()
	require.Len(t, history, 4)
	require.Equal(t, "q6", history[0].Content)
	require.Equal(t, "q9", history[3].Content)
}

func TestActiveEntry(t *testing.T) {
	s := New(5, 20)
	_, ok := s.ActiveEntry()
	require.False(t, ok)

	s.Register(videoEntry(1))
	entry, ok := s.ActiveEntry()
	require.True(t, ok)
	require.Equal(t, "Video 1", entry.Info.Title)
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := NewManager(5, 20, 0, 0, nil)
	a := m.Get("alpha")
	b := m.Get("beta")
	require.NotSame(t, a, b)
	require.Same(t, a, m.Get("alpha"))

	a.Register(videoEntry(1))
	require.Empty(t, b.Library())
}

func TestManagerBoundsSessionCount(t *testing.T) {
	var evictedIDs []string
	m := NewManager(5, 20, 2, time.Hour, func(id string, sess *Session) {
		evictedIDs = append(evictedIDs, id)
		require.NotNil(t, sess)
	})

	first := m.Get("one")
	first.Register(videoEntry(1))
	m.Get("two")
	m.Get("three")

	require.Equal(t, []string{"one"}, evictedIDs)
	// the evicted id now maps to a fresh session
	require.Empty(t, m.Get("one").Library())
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.Len(t, id, 32)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
