package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/server/models"
)

// fakeMessagesRepo is an in-memory message store with auto-incrementing ids.
type fakeMessagesRepo struct {
	nextID int64
	items  []models.Message

	createErr error
}

func newFakeMessagesRepo() *fakeMessagesRepo {
	return &fakeMessagesRepo{}
}

func (f *fakeMessagesRepo) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	m.ID = f.nextID
	m.SentAt = time.Now()
	f.items = append(f.items, *m)
	return m, nil
}

func (f *fakeMessagesRepo) SetStatus(ctx context.Context, id int64, status models.MessageStatus) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeMessagesRepo) MarkAllAnswered(ctx context.Context, author string) error {
	for i := range f.items {
		if f.items[i].Author == author {
			f.items[i].Status = models.StatusAnswered
		}
	}
	return nil
}

func (f *fakeMessagesRepo) QueueAfter(ctx context.Context, sinceID int64) ([]models.Message, error) {
	result := []models.Message{}
	for _, m := range f.items {
		if m.Status == models.StatusQueued && m.ID > sinceID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeMessagesRepo) InboxAfter(ctx context.Context, author string, sinceID int64) ([]models.Message, error) {
	result := []models.Message{}
	for _, m := range f.items {
		if m.Author == author && m.ID > sinceID {
			result = append(result, m)
		}
	}
	return result, nil
}

func newMessageService(t *testing.T, repo *fakeMessagesRepo) *MessageService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	return NewMessageService(db, &fakeRepoManager{m: repo})
}

func TestSubmit_TooLongRejectedBeforeWrite(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	_, err := s.Submit(context.Background(), "alice", strings.Repeat("a", models.MaxTextLen+1), false)
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("nothing may be persisted on validation failure")
	}
}

func TestSubmit_BoundaryLength(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	// exactly the limit succeeds
	if _, err := s.Submit(context.Background(), "alice", strings.Repeat("a", models.MaxTextLen), false); err != nil {
		t.Fatalf("Submit at limit error: %v", err)
	}

	// one over fails
	_, err := s.Submit(context.Background(), "alice", strings.Repeat("a", models.MaxTextLen+1), false)
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
}

func TestSubmit_LengthIsCountedInRunes(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	// 1000 multi-byte characters are within the limit even though the
	// byte length is larger
	if _, err := s.Submit(context.Background(), "alice", strings.Repeat("я", models.MaxTextLen), false); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
}

func TestSubmit_PersistsQueued(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	got, err := s.Submit(context.Background(), "alice", "hello", false)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if got.Status != models.StatusQueued {
		t.Fatalf("submission must be Queued regardless of sender, got %v", got.Status)
	}
	if got.FromStaff {
		t.Fatalf("client submission must not be flagged from_staff")
	}
}

func TestReply_KeepsQueuedStatus(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	got, err := s.Reply(context.Background(), "alice", "take two aspirin")
	if err != nil {
		t.Fatalf("Reply error: %v", err)
	}
	if !got.FromStaff {
		t.Fatalf("reply must be flagged from_staff")
	}
	// no implicit status change on submission regardless of sender role
	if got.Status != models.StatusQueued {
		t.Fatalf("reply must be Queued, got %v", got.Status)
	}
	if got.Author != "alice" {
		t.Fatalf("reply must live in the recipient's thread, got %q", got.Author)
	}
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	s := newMessageService(t, newFakeMessagesRepo())

	err := s.SetStatus(context.Background(), 1, models.MessageStatus("Deleted"))
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	s := newMessageService(t, newFakeMessagesRepo())

	err := s.SetStatus(context.Background(), 404, models.StatusAnswered)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestAnsweredLeavesQueueButStaysInInbox(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)
	ctx := context.Background()

	m, err := s.Submit(ctx, "alice", "hello", false)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if err := s.SetStatus(ctx, m.ID, models.StatusAnswered); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	queue, err := s.StaffQueue(ctx, 0)
	if err != nil {
		t.Fatalf("StaffQueue error: %v", err)
	}
	for _, q := range queue {
		if q.ID == m.ID {
			t.Fatalf("answered message must never re-enter the staff queue")
		}
	}

	inbox, err := s.ClientInbox(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ClientInbox error: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != m.ID || inbox[0].Status != models.StatusAnswered {
		t.Fatalf("inbox must keep the answered message: %+v", inbox)
	}
}

func TestQueueAndInboxCursors(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)
	ctx := context.Background()

	first, _ := s.Submit(ctx, "alice", "one", false)
	second, _ := s.Submit(ctx, "bob", "two", false)

	queue, err := s.StaffQueue(ctx, first.ID)
	if err != nil {
		t.Fatalf("StaffQueue error: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != second.ID {
		t.Fatalf("cursor must skip already-seen ids: %+v", queue)
	}

	inbox, err := s.ClientInbox(ctx, "alice", first.ID)
	if err != nil {
		t.Fatalf("ClientInbox error: %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("inbox cursor must skip seen ids: %+v", inbox)
	}
}

// Mirrors the full product flow: client writes, staff sees it, staff
// replies, staff closes the thread.
func TestClientStaffExchange(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)
	ctx := context.Background()

	if _, err := s.Submit(ctx, "alice", "hello", false); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	queue, err := s.StaffQueue(ctx, 0)
	if err != nil {
		t.Fatalf("StaffQueue error: %v", err)
	}
	if len(queue) != 1 || queue[0].Author != "alice" || queue[0].Text != "hello" || queue[0].Status != models.StatusQueued {
		t.Fatalf("unexpected staff queue: %+v", queue)
	}

	if _, err := s.Reply(ctx, "alice", "hi alice"); err != nil {
		t.Fatalf("Reply error: %v", err)
	}

	inbox, err := s.ClientInbox(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ClientInbox error: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected both entries in insertion order, got %+v", inbox)
	}
	if inbox[0].Text != "hello" || inbox[1].Text != "hi alice" || !inbox[1].FromStaff {
		t.Fatalf("unexpected inbox order: %+v", inbox)
	}

	if err := s.MarkAllAnswered(ctx, "alice"); err != nil {
		t.Fatalf("MarkAllAnswered error: %v", err)
	}

	queue, err = s.StaffQueue(ctx, 0)
	if err != nil {
		t.Fatalf("StaffQueue error: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("queue must be empty after marking answered: %+v", queue)
	}

	inbox, err = s.ClientInbox(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ClientInbox error: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("inbox must keep both entries, got %+v", inbox)
	}
	for _, m := range inbox {
		if m.Status != models.StatusAnswered {
			t.Fatalf("all inbox entries must be Answered: %+v", m)
		}
	}
}

func TestResolve_MarksAndRepliesAtomically(t *testing.T) {
	repo := newFakeMessagesRepo()

	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := NewMessageService(db, &fakeRepoManager{m: repo})
	ctx := context.Background()

	if _, err := s.Submit(ctx, "alice", "hello", false); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	reply, err := s.Resolve(ctx, "alice", "all done")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if reply.Status != models.StatusAnswered || !reply.FromStaff {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	queue, err := s.StaffQueue(ctx, 0)
	if err != nil {
		t.Fatalf("StaffQueue error: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("resolve must leave no queued messages for the author: %+v", queue)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx expectations: %v", err)
	}
}

func TestResolve_RollsBackOnCreateError(t *testing.T) {
	repo := newFakeMessagesRepo()
	repo.createErr = errors.New("insert failed")

	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := NewMessageService(db, &fakeRepoManager{m: repo})

	_, err := s.Resolve(context.Background(), "alice", "oops")
	if err == nil {
		t.Fatalf("expected error from failed create")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx expectations: %v", err)
	}
}

func TestResolve_TooLongRejectedBeforeTx(t *testing.T) {
	repo := newFakeMessagesRepo()
	s := newMessageService(t, repo)

	_, err := s.Resolve(context.Background(), "alice", strings.Repeat("a", models.MaxTextLen+1))
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("nothing may be persisted on validation failure")
	}
}
