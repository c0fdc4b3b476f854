// Package session tracks per-user state: the bounded video library, the
// active video selection and the chat history.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

const (
	DefaultMaxLibrary = 5
	DefaultMaxChat    = 20
)

// VideoEntry is one library slot. Collection is the vector collection name
// backing the video, which doubles as the entry's identity.
type VideoEntry struct {
	Collection  string          `json:"collection"`
	Info        model.VideoInfo `json:"info"`
	ChunkCount  int             `json:"chunk_count"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// Session is safe for concurrent use. The library is FIFO bounded:
// registering past capacity evicts the oldest entry so its collection can
// be removed from the store by the caller.
type Session struct {
	mu         sync.Mutex
	library    []VideoEntry
	active     string
	chat       []model.ChatMessage
	maxLibrary int
	maxChat    int
}

func New(maxLibrary, maxChat int) *Session {
	if maxLibrary <= 0 {
		maxLibrary = DefaultMaxLibrary
	}
	if maxChat <= 0 {
		maxChat = DefaultMaxChat
	}
	return &Session{maxLibrary: maxLibrary, maxChat: maxChat}
}

// Register adds a processed video to the library and makes it active.
// Re-registering an existing collection updates it in place. The returned
// entry is the evicted oldest video, if capacity forced one out; the caller
// owns tearing down its collection.
func (s *Session) Register(entry VideoEntry) *VideoEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.library {
		if s.library[i].Collection == entry.Collection {
			s.library[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.library = append(s.library, entry)
	}

	var evicted *VideoEntry
	if len(s.library) > s.maxLibrary {
		oldest := s.library[0]
		s.library = append(s.library[:0:0], s.library[1:]...)
		evicted = &oldest
		if s.active == oldest.Collection {
			s.active = ""
		}
	}

	s.activateLocked(entry.Collection)
	return evicted
}

// SetActive switches which video questions are answered against. Switching
// to a different video discards the chat history; re-activating the current
// one keeps it.
func (s *Session) SetActive(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.library {
		if s.library[i].Collection == collection {
			s.activateLocked(collection)
			return nil
		}
	}
	return fmt.Errorf("%w: video not in library: %s", appErr.ErrNotFound, collection)
}

func (s *Session) activateLocked(collection string) {
	if s.active != collection {
		s.chat = nil
	}
	s.active = collection
}

// Active returns the active collection name, or false when no video is
// selected.
func (s *Session) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// ActiveEntry returns the full library entry for the active video.
func (s *Session) ActiveEntry() (VideoEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.library {
		if s.library[i].Collection == s.active {
			return s.library[i], true
		}
	}
	return VideoEntry{}, false
}

// Remove drops a video from the library. wasActive tells the caller the
// active selection (and its chat) went with it; found is false when the
// collection was never in the library.
func (s *Session) Remove(collection string) (wasActive bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.library {
		if s.library[i].Collection != collection {
			continue
		}
		s.library = append(s.library[:i:i], s.library[i+1:]...)
		if s.active == collection {
			s.active = ""
			s.chat = nil
			return true, true
		}
		return false, true
	}
	return false, false
}

// Library returns the entries oldest first.
func (s *Session) Library() []VideoEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VideoEntry, len(s.library))
	copy(out, s.library)
	return out
}

// AppendChat records one exchange turn, discarding the oldest turns past
// the history bound.
func (s *Session) AppendChat(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, model.ChatMessage{Role: role, Content: content})
	if excess := len(s.chat) - s.maxChat; excess > 0 {
		s.chat = append(s.chat[:0:0], s.chat[excess:]...)
	}
}

func (s *Session) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}

func (s *Session) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = nil
}
