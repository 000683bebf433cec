package model

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"wheely/storage"
)

const testKey = "wheely_chats_guest"

type failingChatStore struct {
	saves int
}

func (f *failingChatStore) Load(string) ([]storage.Conversation, bool) { return nil, false }
func (f *failingChatStore) Save(string, []storage.Conversation) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingChatStore) Close() error { return nil }

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return NewStore(mem, testKey, WithClock(fixedClock())), mem
}

func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	list := s.List()
	if len(list) == 0 {
		t.Fatal("conversation set is empty")
	}
	seen := map[string]bool{}
	for _, c := range list {
		if c.ID == "" {
			t.Fatal("conversation with empty id")
		}
		if seen[c.ID] {
			t.Fatalf("duplicate conversation id %q", c.ID)
		}
		seen[c.ID] = true
	}
	if _, ok := s.Get(s.ActiveID()); !ok {
		t.Fatalf("active id %q not in set", s.ActiveID())
	}
}

func TestNewStoreFreshUser(t *testing.T) {
	s, _ := newTestStore(t)

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(list))
	}
	if list[0].Title != FirstConversationTitle {
		t.Errorf("title = %q, want %q", list[0].Title, FirstConversationTitle)
	}
	if len(list[0].Messages) != 0 {
		t.Error("first conversation should be empty")
	}
	if s.ActiveID() != list[0].ID {
		t.Error("first conversation should be active")
	}
}

func TestNewStoreCorruptHistory(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Put(testKey, []byte("{{{"))

	s := NewStore(mem, testKey)
	if s.Len() != 1 || s.Active().Title != FirstConversationTitle {
		t.Errorf("corrupt history should start fresh, got %+v", s.List())
	}
}

func TestNewStoreLoadsExisting(t *testing.T) {
	mem := storage.NewMemoryStore()
	set := []storage.Conversation{
		{ID: "a", Title: "Claims", Messages: []storage.Message{}},
		{ID: "b", Title: "Orders", Messages: []storage.Message{}},
	}
	if err := mem.Save(testKey, set); err != nil {
		t.Fatal(err)
	}

	s := NewStore(mem, testKey)
	if s.Len() != 2 || s.ActiveID() != "a" {
		t.Errorf("unexpected store: len=%d active=%q", s.Len(), s.ActiveID())
	}
}

func TestCreateAndSelect(t *testing.T) {
	s, mem := newTestStore(t)
	firstID := s.ActiveID()

	c := s.Create()
	if c.Title != NewConversationTitle {
		t.Errorf("title = %q, want %q", c.Title, NewConversationTitle)
	}
	if s.ActiveID() != c.ID {
		t.Error("created conversation should be active")
	}

	s.Select(firstID)
	if s.ActiveID() != firstID {
		t.Error("Select did not switch")
	}

	s.Select("does-not-exist")
	if s.ActiveID() != firstID {
		t.Error("Select of unknown id must be a no-op")
	}

	persisted, ok := mem.Load(testKey)
	if !ok || len(persisted) != 2 {
		t.Errorf("expected 2 persisted conversations, got %d", len(persisted))
	}
}

func TestDeleteOnlyConversation(t *testing.T) {
	s, mem := newTestStore(t)
	onlyID := s.ActiveID()

	s.Delete(onlyID)

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("expected one conversation, got %d", len(list))
	}
	if list[0].ID == onlyID {
		t.Error("deleted conversation still present")
	}
	if len(list[0].Messages) != 0 {
		t.Error("replacement should be empty")
	}
	if s.ActiveID() != list[0].ID {
		t.Error("replacement should be active")
	}

	persisted, _ := mem.Load(testKey)
	if len(persisted) != 1 || persisted[0].ID != list[0].ID {
		t.Error("delete was not persisted")
	}
}

func TestDeleteActiveSelectsFirstRemaining(t *testing.T) {
	s, _ := newTestStore(t)
	first := s.ActiveID()
	second := s.Create().ID
	third := s.Create().ID

	s.Delete(third)
	if s.ActiveID() != first {
		t.Errorf("active = %q, want first remaining %q", s.ActiveID(), first)
	}

	s.Select(second)
	s.Delete(first)
	if s.ActiveID() != second {
		t.Error("deleting an inactive conversation must keep the selection")
	}

	s.Delete("unknown")
	if s.Len() != 1 {
		t.Errorf("delete of unknown id changed the set: %d", s.Len())
	}
}

func TestCreateDeleteSequenceInvariants(t *testing.T) {
	s, _ := newTestStore(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		list := s.List()
		switch rng.Intn(3) {
		case 0:
			s.Create()
		case 1:
			s.Delete(list[rng.Intn(len(list))].ID)
		case 2:
			s.Select(list[rng.Intn(len(list))].ID)
		}
		assertInvariants(t, s)
	}
}

func TestIDCollisionIsRedrawn(t *testing.T) {
	ids := []string{"dup", "dup", "dup", "other", "third"}
	i := 0
	gen := func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}

	s := NewStore(storage.NewMemoryStore(), testKey, WithIDGenerator(gen))
	c := s.Create()
	if c.ID == "dup" {
		t.Error("colliding id was reused")
	}
	assertInvariants(t, s)
}

func TestAppendIsAppendOnly(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.ActiveID()

	var before []storage.Message
	for i := 0; i < 5; i++ {
		sender := storage.SenderUser
		if i%2 == 1 {
			sender = storage.SenderAssistant
		}
		if _, err := s.Append(id, storage.Message{Content: fmt.Sprintf("msg %d", i), Sender: sender}); err != nil {
			t.Fatal(err)
		}

		after := s.Active().Messages
		if len(after) != len(before)+1 {
			t.Fatalf("expected %d messages, got %d", len(before)+1, len(after))
		}
		for j := range before {
			if after[j] != before[j] {
				t.Fatalf("message %d changed after append", j)
			}
		}
		before = after
	}
}

func TestAppendDerivesTitleAndPreview(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.ActiveID()

	long := "Show me the status of every warranty claim filed this quarter"
	if _, err := s.Append(id, storage.Message{Content: long, Sender: storage.SenderUser}); err != nil {
		t.Fatal(err)
	}
	c := s.Active()
	if c.Title != "Show me the status of every wa..." {
		t.Errorf("title = %q", c.Title)
	}
	if c.LastMessage != "Show me the status of every warranty claim filed t..." {
		t.Errorf("preview = %q", c.LastMessage)
	}

	if _, err := s.Append(id, storage.Message{Content: "Two open claims.", Sender: storage.SenderAssistant}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(id, storage.Message{Content: "And last quarter?", Sender: storage.SenderUser}); err != nil {
		t.Fatal(err)
	}
	c = s.Active()
	if c.Title != "Show me the status of every wa..." {
		t.Errorf("later user messages must not retitle, got %q", c.Title)
	}
	if c.LastMessage != "And last quarter?" {
		t.Errorf("preview = %q", c.LastMessage)
	}
}

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	s, _ := newTestStore(t)
	msg, err := s.Append(s.ActiveID(), storage.Message{Content: "hi", Sender: storage.SenderUser})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Errorf("expected id and timestamp, got %+v", msg)
	}
}

func TestAppendUnknownConversation(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Append("gone", storage.Message{Content: "hi", Sender: storage.SenderUser})
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	s, mem := newTestStore(t)
	id := s.ActiveID()

	msg, err := s.Append(id, storage.Message{Content: "hi", Sender: storage.SenderUser})
	if err != nil {
		t.Fatal(err)
	}
	if s.Active().Messages[0].Confirmed {
		t.Fatal("message should start unconfirmed")
	}

	if err := s.Confirm(id, msg.ID); err != nil {
		t.Fatal(err)
	}
	if !s.Active().Messages[0].Confirmed {
		t.Error("message not confirmed")
	}
	persisted, _ := mem.Load(testKey)
	if !persisted[0].Messages[0].Confirmed {
		t.Error("confirmation not persisted")
	}

	if err := s.Confirm(id, "nope"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("unknown message: %v", err)
	}
}

func TestRename(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.ActiveID()

	s.Rename(id, "  Q3   claims ")
	if s.Active().Title != "Q3 claims" {
		t.Errorf("title = %q", s.Active().Title)
	}
	s.Rename(id, "   ")
	if s.Active().Title != "Q3 claims" {
		t.Error("blank rename should be ignored")
	}
}

func TestImport(t *testing.T) {
	s, _ := newTestStore(t)
	existing := s.ActiveID()

	c := s.Import(storage.Conversation{
		ID:    existing,
		Title: "Imported",
		Messages: []storage.Message{
			{ID: "m", Content: "a", Sender: storage.SenderUser},
			{ID: "m", Content: "b", Sender: storage.SenderAssistant},
		},
	})
	if c.ID == existing {
		t.Error("colliding conversation id kept")
	}
	if c.Messages[0].ID == c.Messages[1].ID {
		t.Error("duplicate message ids kept")
	}
	if s.ActiveID() != c.ID {
		t.Error("imported conversation should be active")
	}
	assertInvariants(t, s)
}

func TestSaveFailureKeepsState(t *testing.T) {
	failing := &failingChatStore{}
	s := NewStore(failing, testKey)

	c := s.Create()
	if _, err := s.Append(c.ID, storage.Message{Content: "hi", Sender: storage.SenderUser}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || len(s.Active().Messages) != 1 {
		t.Error("in-memory state should survive a failed save")
	}
	if failing.saves < 2 {
		t.Errorf("expected a save attempt per mutation, got %d", failing.saves)
	}
}

func TestSortedNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	first := s.ActiveID()
	s.Create()

	if _, err := s.Append(first, storage.Message{Content: "bump", Sender: storage.SenderUser}); err != nil {
		t.Fatal(err)
	}
	if sorted := s.Sorted(); sorted[0].ID != first {
		t.Errorf("most recently updated should sort first, got %q", sorted[0].Title)
	}
}

func TestReturnedConversationsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Append(s.ActiveID(), storage.Message{Content: "hi", Sender: storage.SenderUser}); err != nil {
		t.Fatal(err)
	}

	c := s.Active()
	c.Messages[0].Content = "tampered"
	if s.Active().Messages[0].Content != "hi" {
		t.Error("caller mutated store state through a returned copy")
	}
}
