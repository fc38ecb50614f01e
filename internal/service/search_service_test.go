package service

import (
	"context"
	"testing"

	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchRepoStub is a stub for repository.SearchRepository.
type searchRepoStub struct {
	searchUsersFn func(context.Context, string, uint, []uint, int, int) ([]repository.UserHit, int64, error)
}

func (s *searchRepoStub) SearchUsers(ctx context.Context, q string, viewerID uint, scope []uint, page, limit int) ([]repository.UserHit, int64, error) {
	return s.searchUsersFn(ctx, q, viewerID, scope, page, limit)
}

// tweetRepoStub is a stub for repository.TweetRepository. Unset funcs return zero values.
type tweetRepoStub struct {
	repository.TweetRepository

	findFn           func(context.Context, repository.TweetQuery) ([]*models.Tweet, int64, error)
	incrementViewsFn func(context.Context, []uint) error
}

func (s *tweetRepoStub) Find(ctx context.Context, q repository.TweetQuery) ([]*models.Tweet, int64, error) {
	return s.findFn(ctx, q)
}
func (s *tweetRepoStub) IncrementViews(ctx context.Context, ids []uint) error {
	if s.incrementViewsFn == nil {
		return nil
	}
	return s.incrementViewsFn(ctx, ids)
}
func (s *tweetRepoStub) HashtagsFor(context.Context, []uint) (map[uint][]models.HashtagRef, error) {
	return map[uint][]models.HashtagRef{}, nil
}
func (s *tweetRepoStub) MentionsFor(context.Context, []uint) (map[uint][]models.Mention, error) {
	return map[uint][]models.Mention{}, nil
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	repository.FollowRepository

	followingIDsFn func(context.Context, uint) ([]uint, error)
}

func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}

func newSearchHarness(search *searchRepoStub, tweets *tweetRepoStub, following []uint) *SearchService {
	follows := &followRepoStub{followingIDsFn: func(context.Context, uint) ([]uint, error) { return following, nil }}
	ts := NewTweetService(tweets, nil, nil, follows, nil, nil, nil, nil)
	return NewSearchService(search, follows, ts)
}

func TestSearchService_AnonymousFollowingScopeIsEmpty(t *testing.T) {
	search := &searchRepoStub{searchUsersFn: func(context.Context, string, uint, []uint, int, int) ([]repository.UserHit, int64, error) {
		t.Fatal("search should not run")
		return nil, 0, nil
	}}
	tweets := &tweetRepoStub{findFn: func(context.Context, repository.TweetQuery) ([]*models.Tweet, int64, error) {
		t.Fatal("tweet query should not run")
		return nil, 0, nil
	}}
	svc := newSearchHarness(search, tweets, nil)

	for _, typ := range []SearchType{SearchTweets, SearchPeople, SearchMedia} {
		res, err := svc.Search(context.Background(), 0, SearchInput{
			Query: "go", Type: typ, PeopleFollow: models.PeopleFollowFollowing, Page: 1, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Total)
		assert.Empty(t, res.Tweets)
		assert.Empty(t, res.Users)
	}
}

func TestSearchService_PeopleScopeIncludesViewer(t *testing.T) {
	var gotScope []uint
	search := &searchRepoStub{searchUsersFn: func(_ context.Context, q string, viewerID uint, scope []uint, page, limit int) ([]repository.UserHit, int64, error) {
		gotScope = scope
		assert.Equal(t, "ann", q)
		assert.Equal(t, 2, page)
		assert.Equal(t, 5, limit)
		return []repository.UserHit{{User: models.User{ID: 3, Name: "Ann"}, IsFollowing: true}}, 6, nil
	}}
	svc := newSearchHarness(search, &tweetRepoStub{}, []uint{3, 4})

	res, err := svc.Search(context.Background(), 1, SearchInput{
		Query: " ann ", Type: SearchPeople, PeopleFollow: models.PeopleFollowFollowing, Page: 2, Limit: 5,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 3, 4}, gotScope)
	require.Len(t, res.Users, 1)
	assert.True(t, res.Users[0].IsFollowing)
	assert.Equal(t, int64(6), res.Total)
}

func TestSearchService_PeopleUnscoped(t *testing.T) {
	search := &searchRepoStub{searchUsersFn: func(_ context.Context, _ string, _ uint, scope []uint, _, _ int) ([]repository.UserHit, int64, error) {
		assert.Nil(t, scope)
		return nil, 0, nil
	}}
	svc := newSearchHarness(search, &tweetRepoStub{}, nil)

	_, err := svc.Search(context.Background(), 0, SearchInput{Query: "x", Type: SearchPeople, Page: 1, Limit: 10})
	require.NoError(t, err)
}

func TestSearchService_TweetModesCountViews(t *testing.T) {
	var stages int
	var viewed []uint
	tweets := &tweetRepoStub{
		findFn: func(_ context.Context, q repository.TweetQuery) ([]*models.Tweet, int64, error) {
			stages = len(q.Filters)
			return []*models.Tweet{{ID: 10, Views: 4}, {ID: 11}}, 2, nil
		},
		incrementViewsFn: func(_ context.Context, ids []uint) error {
			viewed = ids
			return nil
		},
	}
	svc := newSearchHarness(&searchRepoStub{}, tweets, nil)

	res, err := svc.Search(context.Background(), 0, SearchInput{Query: "cats", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, SearchTweets, res.Type)
	assert.Equal(t, 2, stages)
	assert.Equal(t, []uint{10, 11}, viewed)
	assert.Equal(t, int64(5), res.Tweets[0].Views)

	_, err = svc.Search(context.Background(), 0, SearchInput{Query: "cats", Type: SearchMedia, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, stages)
}

func TestSearchService_Validation(t *testing.T) {
	svc := newSearchHarness(&searchRepoStub{}, &tweetRepoStub{}, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, 0, SearchInput{Query: "  ", Page: 1, Limit: 10})
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.Search(ctx, 0, SearchInput{Query: "x", Type: "videos", Page: 1, Limit: 10})
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.Search(ctx, 0, SearchInput{Query: "x", Page: 1, Limit: 101})
	assertAppCode(t, err, models.CodeValidation)
}
