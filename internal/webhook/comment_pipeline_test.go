package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/page-engage-bot/internal/intent"
	"github.com/lueurxax/page-engage-bot/internal/moderation"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// fakeCommentStore is an in-memory CommentStore honoring the real store's
// contract: unique comment ids, hard deletes, append-only audit log.
type fakeCommentStore struct {
	comments map[string]*db.Comment
	deleted  []db.DeletedComment
	nextID   int64
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]*db.Comment)}
}

func (s *fakeCommentStore) GetCommentByID(_ context.Context, commentID string) (*db.Comment, error) {
	if c, ok := s.comments[commentID]; ok {
		clone := *c

		return &clone, nil
	}

	return nil, nil
}

func (s *fakeCommentStore) CreateComment(_ context.Context, c *db.Comment) (*db.Comment, error) {
	if _, ok := s.comments[c.CommentID]; ok {
		return nil, db.ErrDuplicateComment
	}

	s.nextID++
	clone := *c
	clone.ID = s.nextID
	s.comments[c.CommentID] = &clone

	return &clone, nil
}

func (s *fakeCommentStore) UpdateCommentIntent(_ context.Context, commentID, intentLabel, dmMessage string) (*db.Comment, error) {
	c, ok := s.comments[commentID]
	if !ok {
		return nil, nil
	}

	c.Intent = intentLabel
	c.DMMessage = dmMessage

	return c, nil
}

func (s *fakeCommentStore) MarkDMSent(_ context.Context, commentID, _ string) (*db.Comment, error) {
	c, ok := s.comments[commentID]
	if !ok {
		return nil, nil
	}

	now := c.CreatedTime
	c.DMSent = true
	c.DMSentTime = &now

	return c, nil
}

func (s *fakeCommentStore) DeleteCommentByID(_ context.Context, commentID string) (bool, error) {
	if _, ok := s.comments[commentID]; !ok {
		return false, nil
	}

	delete(s.comments, commentID)

	return true, nil
}

func (s *fakeCommentStore) LogDeletedComment(_ context.Context, d *db.DeletedComment) (*db.DeletedComment, error) {
	s.deleted = append(s.deleted, *d)

	return d, nil
}

// fakeClassifier returns a scripted verdict, counting calls.
type fakeClassifier struct {
	verdict   *intent.Verdict
	err       error
	chatReply string
	calls     int
	chatReqs  []intent.ChatReplyRequest
}

func (f *fakeClassifier) ClassifyComment(_ context.Context, _, _ string) (*intent.Verdict, error) {
	f.calls++

	if f.err != nil {
		return intent.DefaultVerdict(), f.err
	}

	return f.verdict, nil
}

func (f *fakeClassifier) GenerateChatReply(_ context.Context, req intent.ChatReplyRequest) string {
	f.chatReqs = append(f.chatReqs, req)

	if f.chatReply != "" {
		return f.chatReply
	}

	return intent.FallbackChatReply(req.Greet, req.FirstName)
}

type sentReply struct {
	pageID        string
	fullCommentID string
	text          string
}

type fakeSender struct {
	sent []sentReply
	err  error
}

func (f *fakeSender) SendPrivateReply(_ context.Context, pageID, fullCommentID, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	f.sent = append(f.sent, sentReply{pageID: pageID, fullCommentID: fullCommentID, text: text})

	return fmt.Sprintf("m_%d", len(f.sent)), nil
}

type deleterFunc func(ctx context.Context, id string) error

func (f deleterFunc) DeleteComment(ctx context.Context, id string) error {
	return f(ctx, id)
}

func newTestModerator(deleteErr error, deleted *[]string) *moderation.Moderator {
	logger := zerolog.Nop()

	return moderation.New([]string{"scam"}, deleterFunc(func(_ context.Context, id string) error {
		if deleteErr != nil {
			return deleteErr
		}

		*deleted = append(*deleted, id)

		return nil
	}), &logger)
}

func newCommentPipeline(store *fakeCommentStore, classifier *fakeClassifier, sender *fakeSender, mod *moderation.Moderator) *CommentPipeline {
	logger := zerolog.Nop()

	return NewCommentPipeline(store, classifier, sender, mod, &logger)
}

func interestedChange() FeedChange {
	return FeedChange{
		Item:        "comment",
		Verb:        "add",
		Message:     "How much do you charge?",
		CommentID:   "10111_20222",
		PostID:      "987654_10111",
		From:        WebhookUser{ID: "u1", Name: "Maria Lee"},
		CreatedTime: 1714760000,
	}
}

func TestCommentPipelineRepliesForInterestedIntent(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{
		Intent:     db.IntentInterested,
		DMMessage:  "Hey Maria, our rates are super student-friendly 💬",
		Confidence: 0.96,
	}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), []byte(`{"item":"comment"}`)))

	record := store.comments["20222"]
	require.NotNil(t, record, "record keyed by trailing comment id")
	assert.Equal(t, db.IntentInterested, record.Intent)
	assert.True(t, record.DMSent)
	assert.NotNil(t, record.DMSentTime)
	assert.Equal(t, "10111", record.PostID, "post id normalized to trailing segment")
	assert.Equal(t, []byte(`{"item":"comment"}`), record.RawJSON)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "987654", sender.sent[0].pageID, "page id derived from compound post id")
	assert.Equal(t, "10111_20222", sender.sent[0].fullCommentID, "API call keeps the full compound id")
	assert.Empty(t, deleted)
}

func TestCommentPipelineIdempotentUnderRedelivery(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentInterested, DMMessage: "Hey Maria, hi!", Confidence: 0.9}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	change := interestedChange()
	require.NoError(t, p.ProcessAdd(context.Background(), change, nil))
	require.NoError(t, p.ProcessAdd(context.Background(), change, nil))

	assert.Len(t, store.comments, 1)
	assert.Equal(t, 1, classifier.calls, "classification runs at most once")
	assert.Len(t, sender.sent, 1)
}

func TestCommentPipelineRemovesNegativeComment(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentNegative, Confidence: 0.92}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	change := interestedChange()
	change.Message = "Total scam, not happy with my last order."

	require.NoError(t, p.ProcessAdd(context.Background(), change, nil))

	assert.Empty(t, sender.sent, "removed comments get no reply")
	assert.Equal(t, []string{"10111_20222"}, deleted, "platform delete uses the full compound id")
	assert.NotContains(t, store.comments, "20222", "record hard-deleted after removal")

	require.Len(t, store.deleted, 1)
	audit := store.deleted[0]
	assert.Equal(t, "20222", audit.CommentID)
	assert.Contains(t, audit.RemovalReason, "intent:negative")
	assert.Contains(t, audit.RemovalReason, "keyword:scam")
}

func TestCommentPipelineKeepsRecordWhenPlatformDeleteFails(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentNegative, Confidence: 0.9}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(errors.New("api down"), &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), nil))

	assert.Contains(t, store.comments, "20222", "record kept for inspection")
	assert.Empty(t, store.deleted, "no audit entry without a successful delete")
	assert.Empty(t, sender.sent)
}

func TestCommentPipelineDropsReplyForOtherIntent(t *testing.T) {
	store := newFakeCommentStore()
	// Classifier drafted a DM anyway; the business rule must drop it.
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentOther, DMMessage: "Hey Maria, hi!", Confidence: 0.5}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), nil))

	record := store.comments["20222"]
	require.NotNil(t, record)
	assert.Equal(t, db.IntentOther, record.Intent)
	assert.Empty(t, record.DMMessage, "reply stored only for positive/interested intents")
	assert.Empty(t, sender.sent)
	assert.False(t, record.DMSent)
}

func TestCommentPipelineClassifierFailureDegrades(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{err: errors.New("llm timeout")}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), nil))

	record := store.comments["20222"]
	require.NotNil(t, record)
	assert.Equal(t, db.IntentOther, record.Intent)
	assert.Empty(t, record.DMMessage)
	assert.Empty(t, sender.sent)
	assert.Empty(t, deleted)
}

func TestCommentPipelineSendFailureLeavesPendingRecord(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentPositive, DMMessage: "Hey Maria, thanks!", Confidence: 0.95}}
	sender := &fakeSender{err: errors.New("send failed")}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), nil))

	record := store.comments["20222"]
	require.NotNil(t, record)
	assert.False(t, record.DMSent, "failed sends stay pending, eligible for manual inspection")
	assert.Equal(t, "Hey Maria, thanks!", record.DMMessage)
}

func TestCommentPipelineProcessRemove(t *testing.T) {
	store := newFakeCommentStore()
	classifier := &fakeClassifier{verdict: &intent.Verdict{Intent: db.IntentOther, Confidence: 0.5}}
	sender := &fakeSender{}

	var deleted []string

	p := newCommentPipeline(store, classifier, sender, newTestModerator(nil, &deleted))

	require.NoError(t, p.ProcessAdd(context.Background(), interestedChange(), nil))
	require.Contains(t, store.comments, "20222")

	remove := FeedChange{Item: "comment", Verb: "remove", CommentID: "10111_20222"}
	require.NoError(t, p.ProcessRemove(context.Background(), remove))
	assert.NotContains(t, store.comments, "20222")

	// Removing again is a logged no-op.
	require.NoError(t, p.ProcessRemove(context.Background(), remove))
}
