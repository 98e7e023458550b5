package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// Mock implementations

type mockBucketRepo struct {
	buckets map[int64]*domain.Bucket
	nextID  int64
}

func newMockBucketRepo(buckets ...*domain.Bucket) *mockBucketRepo {
	m := &mockBucketRepo{buckets: make(map[int64]*domain.Bucket)}
	for _, b := range buckets {
		_ = m.Create(context.Background(), b)
	}
	return m
}

func (m *mockBucketRepo) Create(ctx context.Context, b *domain.Bucket) error {
	m.nextID++
	b.ID = m.nextID
	cp := *b
	m.buckets[b.ID] = &cp
	return nil
}

func (m *mockBucketRepo) GetByID(ctx context.Context, id int64) (*domain.Bucket, error) {
	b, ok := m.buckets[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBucketRepo) GetByHandle(ctx context.Context, communityID, handle string) (*domain.Bucket, error) {
	for _, b := range m.buckets {
		if b.CommunityID == communityID && b.Handle == handle {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBucketRepo) ListByCommunity(ctx context.Context, communityID string) ([]*domain.Bucket, error) {
	var result []*domain.Bucket
	for _, b := range m.buckets {
		if b.CommunityID == communityID {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Handle < result[j].Handle })
	return result, nil
}

func (m *mockBucketRepo) Update(ctx context.Context, b *domain.Bucket) error {
	cp := *b
	m.buckets[b.ID] = &cp
	return nil
}

func (m *mockBucketRepo) SetAlertedEmptying(ctx context.Context, bucketID int64, alerted bool) error {
	if b, ok := m.buckets[bucketID]; ok {
		b.AlertedEmptying = alerted
	}
	return nil
}

type mockPromptRepo struct {
	prompts map[int64]*domain.Prompt
	nextID  int64
	buckets *mockBucketRepo
}

func newMockPromptRepo(buckets *mockBucketRepo) *mockPromptRepo {
	return &mockPromptRepo{prompts: make(map[int64]*domain.Prompt), buckets: buckets}
}

// add stores a prompt in the given state and returns its ID
func (m *mockPromptRepo) add(p *domain.Prompt) int64 {
	_ = m.Create(context.Background(), p)
	return p.ID
}

func (m *mockPromptRepo) get(id int64) *domain.Prompt {
	return m.prompts[id]
}

func (m *mockPromptRepo) sorted(keep func(*domain.Prompt) bool, less func(a, b *domain.Prompt) bool) []*domain.Prompt {
	var result []*domain.Prompt
	for _, p := range m.prompts {
		if keep(p) {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if less(result[i], result[j]) {
			return true
		}
		if less(result[j], result[i]) {
			return false
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func bySubmittedAt(a, b *domain.Prompt) bool { return a.SubmittedAt.Before(b.SubmittedAt) }

func (m *mockPromptRepo) Create(ctx context.Context, p *domain.Prompt) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.prompts[p.ID] = &cp
	return nil
}

func (m *mockPromptRepo) GetByID(ctx context.Context, id int64) (*domain.Prompt, error) {
	p, ok := m.prompts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPromptRepo) GetCurrent(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	posted := m.sorted(func(p *domain.Prompt) bool {
		return p.BucketID == bucketID && p.State == domain.PromptPosted
	}, func(a, b *domain.Prompt) bool { return a.PromptNumber > b.PromptNumber })
	if len(posted) == 0 {
		return nil, nil
	}
	return posted[0], nil
}

func (m *mockPromptRepo) GetNextQueued(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	queued, _ := m.ListQueued(ctx, bucketID, 0, 1)
	if len(queued) == 0 {
		return nil, nil
	}
	return queued[0], nil
}

func (m *mockPromptRepo) GetDustiest(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	lastUsed := func(p *domain.Prompt) time.Time {
		if !p.LastReusedAt.IsZero() {
			return p.LastReusedAt
		}
		return p.PostedAt
	}
	posted := m.sorted(func(p *domain.Prompt) bool {
		return p.BucketID == bucketID && p.State == domain.PromptPosted && p.RepostOfID == 0
	}, func(a, b *domain.Prompt) bool { return lastUsed(a).Before(lastUsed(b)) })
	if len(posted) == 0 {
		return nil, nil
	}
	return posted[0], nil
}

func (m *mockPromptRepo) ListUnconfirmed(ctx context.Context, bucketID int64, limit int) ([]*domain.Prompt, error) {
	pending := m.sorted(func(p *domain.Prompt) bool {
		return p.BucketID == bucketID && p.State == domain.PromptSubmitted
	}, bySubmittedAt)
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *mockPromptRepo) ListQueued(ctx context.Context, bucketID int64, offset, limit int) ([]*domain.Prompt, error) {
	queued := m.sorted(func(p *domain.Prompt) bool {
		return p.BucketID == bucketID && p.State == domain.PromptApproved
	}, bySubmittedAt)
	if offset >= len(queued) {
		return nil, nil
	}
	queued = queued[offset:]
	if len(queued) > limit {
		queued = queued[:limit]
	}
	return queued, nil
}

func (m *mockPromptRepo) CountQueued(ctx context.Context, bucketID int64) (int, error) {
	queued, _ := m.ListQueued(ctx, bucketID, 0, len(m.prompts)+1)
	return len(queued), nil
}

func (m *mockPromptRepo) NextPromptNumber(ctx context.Context, bucketID int64) (int, error) {
	highest := 0
	for _, p := range m.prompts {
		if p.BucketID == bucketID && p.PromptNumber > highest {
			highest = p.PromptNumber
		}
	}
	return highest + 1, nil
}

func (m *mockPromptRepo) UpdateState(ctx context.Context, p *domain.Prompt) error {
	stored, ok := m.prompts[p.ID]
	if !ok {
		return fmt.Errorf("prompt %d not found", p.ID)
	}
	for _, other := range m.prompts {
		if other.ID != p.ID && other.BucketID == p.BucketID && p.PromptNumber != 0 && other.PromptNumber == p.PromptNumber {
			return fmt.Errorf("duplicate prompt number %d", p.PromptNumber)
		}
	}
	stored.State = p.State
	stored.PromptNumber = p.PromptNumber
	stored.PostedAt = p.PostedAt
	return nil
}

func (m *mockPromptRepo) SaveRepost(ctx context.Context, repost *domain.Prompt, sourceID int64, reusedAt time.Time) error {
	source, ok := m.prompts[sourceID]
	if !ok {
		return fmt.Errorf("prompt %d not found", sourceID)
	}
	source.LastReusedAt = reusedAt
	return m.Create(ctx, repost)
}

func (m *mockPromptRepo) Delete(ctx context.Context, id int64) error {
	delete(m.prompts, id)
	return nil
}

func (m *mockPromptRepo) Leaderboard(ctx context.Context, communityID string, limit int) ([]domain.LeaderboardEntry, error) {
	counts := make(map[string]int)
	for _, p := range m.prompts {
		b := m.buckets.buckets[p.BucketID]
		if b == nil || b.CommunityID != communityID || p.State != domain.PromptPosted || p.IsAnonymous || p.RepostOfID != 0 {
			continue
		}
		counts[p.SubmittingUserID]++
	}
	var entries []domain.LeaderboardEntry
	for user, n := range counts {
		entries = append(entries, domain.LeaderboardEntry{UserID: user, PostedCount: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PostedCount != entries[j].PostedCount {
			return entries[i].PostedCount > entries[j].PostedCount
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type mockSessionRepo struct {
	sessions map[string]*domain.SubmissionSession
	deletes  int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.SubmissionSession)}
}

func (m *mockSessionRepo) GetByUser(ctx context.Context, userID string) (*domain.SubmissionSession, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) Save(ctx context.Context, s *domain.SubmissionSession) error {
	cp := *s
	m.sessions[s.UserID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, userID string) error {
	if _, ok := m.sessions[userID]; ok {
		m.deletes++
	}
	delete(m.sessions, userID)
	return nil
}

func (m *mockSessionRepo) IncrementSubmissions(ctx context.Context, userID string) error {
	if s, ok := m.sessions[userID]; ok {
		s.SubmissionCount++
	}
	return nil
}

func (m *mockSessionRepo) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if !s.IsLive(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type mockConfirmRepo struct {
	entries map[string]map[int]domain.ConfirmationEntry
}

func newMockConfirmRepo() *mockConfirmRepo {
	return &mockConfirmRepo{entries: make(map[string]map[int]domain.ConfirmationEntry)}
}

func (m *mockConfirmRepo) Replace(ctx context.Context, channelID string, entries []domain.ConfirmationEntry) error {
	rows := make(map[int]domain.ConfirmationEntry)
	for _, e := range entries {
		rows[e.ConfirmNumber] = e
	}
	m.entries[channelID] = rows
	return nil
}

func (m *mockConfirmRepo) Get(ctx context.Context, channelID string, n int) (*domain.ConfirmationEntry, error) {
	e, ok := m.entries[channelID][n]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *mockConfirmRepo) Delete(ctx context.Context, channelID string, n int) error {
	delete(m.entries[channelID], n)
	return nil
}

type mockReactableRepo struct {
	posts map[string]*domain.ReactablePost
}

func newMockReactableRepo() *mockReactableRepo {
	return &mockReactableRepo{posts: make(map[string]*domain.ReactablePost)}
}

func (m *mockReactableRepo) Get(ctx context.Context, messageID string) (*domain.ReactablePost, error) {
	return m.posts[messageID], nil
}

func (m *mockReactableRepo) Save(ctx context.Context, post *domain.ReactablePost) error {
	m.posts[post.MessageID] = post
	return nil
}

func (m *mockReactableRepo) Delete(ctx context.Context, messageID string) error {
	delete(m.posts, messageID)
	return nil
}

func (m *mockReactableRepo) FindByUserAndType(ctx context.Context, userID string, t domain.ReactableType) ([]*domain.ReactablePost, error) {
	var result []*domain.ReactablePost
	for _, p := range m.posts {
		if p.UserID == userID && p.Type() == t {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockReactableRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for id, p := range m.posts {
		if !p.IsLive(now) {
			delete(m.posts, id)
			n++
		}
	}
	return n, nil
}

func (m *mockReactableRepo) Close() error {
	return nil
}

type sentMessage struct {
	ChannelID string
	ID        string
	Text      string
	Embed     domain.Embed
}

type mockMessageRepo struct {
	sent      []sentMessage
	deleted   []string
	pinned    []string
	reactions []string
	removed   []string
	failSend  bool
	counter   int
}

func (m *mockMessageRepo) nextID() string {
	m.counter++
	return fmt.Sprintf("msg-%d", m.counter)
}

func (m *mockMessageRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	if m.failSend {
		return "", errors.New("send failed")
	}
	id := m.nextID()
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, ID: id, Text: text})
	return id, nil
}

func (m *mockMessageRepo) SendEmbed(ctx context.Context, channelID string, embed domain.Embed) (string, error) {
	if m.failSend {
		return "", errors.New("send failed")
	}
	id := m.nextID()
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, ID: id, Embed: embed})
	return id, nil
}

func (m *mockMessageRepo) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	m.reactions = append(m.reactions, messageID+":"+emoji)
	return nil
}

func (m *mockMessageRepo) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	m.removed = append(m.removed, messageID+":"+emoji+":"+userID)
	return nil
}

func (m *mockMessageRepo) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockMessageRepo) PinMessage(ctx context.Context, channelID, messageID string) error {
	m.pinned = append(m.pinned, messageID)
	return nil
}

func (m *mockMessageRepo) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	return "dm-" + userID, nil
}

type mockCommunityRepo struct {
	channels map[string]bool
	roles    map[string]bool
	members  map[string]bool // userID + ":" + roleID
	admins   map[string]bool
}

func newMockCommunityRepo() *mockCommunityRepo {
	return &mockCommunityRepo{
		channels: make(map[string]bool),
		roles:    make(map[string]bool),
		members:  make(map[string]bool),
		admins:   make(map[string]bool),
	}
}

func (m *mockCommunityRepo) IsKnownCommunity(ctx context.Context, communityID string) (bool, error) {
	return true, nil
}

func (m *mockCommunityRepo) ChannelExists(ctx context.Context, communityID, channelID string) bool {
	return m.channels[channelID]
}

func (m *mockCommunityRepo) RoleExists(ctx context.Context, communityID, roleID string) bool {
	return m.roles[roleID]
}

func (m *mockCommunityRepo) MemberHasRole(ctx context.Context, communityID, userID, roleID string) (bool, error) {
	return m.members[userID+":"+roleID], nil
}

func (m *mockCommunityRepo) IsAdmin(ctx context.Context, communityID, userID string) (bool, error) {
	return m.admins[userID], nil
}

type mockSettingsRepo struct {
	communities map[string]*domain.Community
}

func (m *mockSettingsRepo) Get(ctx context.Context, communityID string) (*domain.Community, error) {
	return m.communities[communityID], nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, c *domain.Community) error {
	m.communities[c.ID] = c
	return nil
}

type mockScreenRepo struct {
	flag bool
	err  error
}

func (m *mockScreenRepo) ShouldFlag(ctx context.Context, text string) (bool, error) {
	return m.flag, m.err
}

// Fixture

type fixture struct {
	buckets    *mockBucketRepo
	prompts    *mockPromptRepo
	sessions   *mockSessionRepo
	confirms   *mockConfirmRepo
	reactables *mockReactableRepo
	messages   *mockMessageRepo
	community  *mockCommunityRepo

	bucketUC    *BucketUsecase
	promptUC    *PromptUsecase
	confirmUC   *ConfirmationUsecase
	sessionUC   *SessionUsecase
	reactableUC *ReactableUsecase
}

const testCommunity = "guild-1"

func newFixture() *fixture {
	f := &fixture{
		buckets:    newMockBucketRepo(),
		sessions:   newMockSessionRepo(),
		confirms:   newMockConfirmRepo(),
		reactables: newMockReactableRepo(),
		messages:   &mockMessageRepo{},
		community:  newMockCommunityRepo(),
	}
	f.prompts = newMockPromptRepo(f.buckets)
	f.bucketUC = NewBucketUsecase(f.buckets, f.community)
	f.promptUC = NewPromptUsecase(f.prompts, f.messages, f.bucketUC)
	f.confirmUC = NewConfirmationUsecase(f.confirms, f.prompts, f.buckets, f.promptUC, 10)
	f.sessionUC = NewSessionUsecase(f.sessions, f.buckets, f.prompts, f.community, nil, domain.SessionConfig{
		IntroTemplate: "Send prompts for {bucket}. {minutes} minutes left.",
		EndedTemplate: "You submitted {count} prompt(s).",
	})
	f.reactableUC = NewReactableUsecase(f.reactables, f.messages, f.buckets, f.promptUC, f.sessionUC, 2)
	return f
}

// addBucket registers a valid bucket on its own channel
func (f *fixture) addBucket(handle string, freq domain.Frequency) *domain.Bucket {
	b := &domain.Bucket{
		CommunityID:  testCommunity,
		ChannelID:    "chan-" + handle,
		Handle:       handle,
		Frequency:    freq,
		AlertWhenLow: true,
	}
	_ = f.buckets.Create(context.Background(), b)
	f.community.channels[b.ChannelID] = true
	return b
}

// addPrompt stores a prompt in the given state
func (f *fixture) addPrompt(b *domain.Bucket, text string, state domain.PromptState, submittedAt time.Time) int64 {
	p := domain.NewSubmission(b.ID, "user-"+text, text, false, submittedAt)
	p.State = state
	return f.prompts.add(p)
}
