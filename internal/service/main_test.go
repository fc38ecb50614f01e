package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// assertAppCode asserts that err is an AppError carrying code.
func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]string
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, userIDs []uint, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[uint][]string{}
	}
	for _, id := range userIDs {
		p.events[id] = append(p.events[id], eventType)
	}
	return p.err
}

func (p *recordingPublisher) eventsFor(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[userID]
}

// fixture wires every service against one sqlite database.
type fixture struct {
	db         *gorm.DB
	users      repository.UserRepository
	follows    repository.FollowRepository
	circles    repository.CircleRepository
	tweetsRepo repository.TweetRepository
	publisher  *recordingPublisher

	visibility *VisibilityService
	follow     *FollowService
	user       *UserService
	tweets     *TweetService
	engagement *EngagementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:         db,
		users:      repository.NewUserRepository(db),
		follows:    repository.NewFollowRepository(db, 0),
		circles:    repository.NewCircleRepository(db),
		tweetsRepo: repository.NewTweetRepository(db),
		publisher:  &recordingPublisher{},
	}
	f.visibility = NewVisibilityService(f.tweetsRepo, f.users, f.follows, f.circles)
	f.follow = NewFollowService(f.users, f.follows)
	f.user = NewUserService(f.users, f.follows, f.circles)
	f.tweets = NewTweetService(f.tweetsRepo, repository.NewHashtagRepository(db), f.users, f.follows, f.circles, f.visibility, f.publisher, nil)
	f.engagement = NewEngagementService(repository.NewLikeRepository(db), repository.NewBookmarkRepository(db), f.visibility)
	return f
}

func (f *fixture) createUser(t *testing.T, email string, private bool) *models.User {
	t.Helper()
	u := &models.User{
		Name:      email,
		Email:     email,
		Password:  "hash",
		BirthDate: time.Date(1995, 5, 5, 0, 0, 0, 0, time.UTC),
		IsPrivate: private,
		Verify:    models.UserVerified,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) followEdge(t *testing.T, from, to uint) {
	t.Helper()
	_, err := f.follows.Create(context.Background(), &models.Follower{FollowerID: from, FollowingID: to, Status: models.FollowStatusFollowing})
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, authorID uint, in CreateTweetInput) *models.Tweet {
	t.Helper()
	tw, err := f.tweets.Create(context.Background(), authorID, in)
	require.NoError(t, err)
	return tw
}

func uintPtr(v uint) *uint { return &v }
