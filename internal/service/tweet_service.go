package service

import (
	"context"
	"log/slog"
	"strings"

	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const fanOutBatch = 500

// Publisher delivers realtime events to users.
type Publisher interface {
	PublishEvent(ctx context.Context, userIDs []uint, eventType string, payload any) error
}

// TweetService creates tweets and assembles enriched tweet views.
type TweetService struct {
	tweets     repository.TweetRepository
	hashtags   repository.HashtagRepository
	users      repository.UserRepository
	follows    repository.FollowRepository
	circles    repository.CircleRepository
	visibility *VisibilityService
	publisher  Publisher
	flags      *featureflags.Manager
}

type CreateTweetInput struct {
	Type     models.TweetType     `json:"type" validate:"gte=0,lte=3"`
	Audience models.TweetAudience `json:"audience" validate:"gte=0,lte=2"`
	Content  string               `json:"content" validate:"max=5000"`
	ParentID *uint                `json:"parent_id"`
	Hashtags []string             `json:"hashtags" validate:"max=20,dive,max=100"`
	Mentions []uint               `json:"mentions" validate:"max=50"`
	Medias   []models.Media       `json:"medias" validate:"max=4"`
}

// ListTweetsInput filters the public listing.
type ListTweetsInput struct {
	Type     *models.TweetType
	AuthorID uint
	Page     int
	Limit    int
}

// TweetCreatedEvent is the realtime payload sent to followers.
type TweetCreatedEvent struct {
	TweetID  uint             `json:"tweet_id"`
	AuthorID uint             `json:"author_id"`
	Type     models.TweetType `json:"type"`
}

func NewTweetService(
	tweets repository.TweetRepository,
	hashtags repository.HashtagRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	circles repository.CircleRepository,
	visibility *VisibilityService,
	publisher Publisher,
	flags *featureflags.Manager,
) *TweetService {
	return &TweetService{
		tweets:     tweets,
		hashtags:   hashtags,
		users:      users,
		follows:    follows,
		circles:    circles,
		visibility: visibility,
		publisher:  publisher,
		flags:      flags,
	}
}

// Create validates the structural rules, stores the tweet, links hashtags and mentions
// and notifies the author's followers.
func (s *TweetService) Create(ctx context.Context, authorID uint, in CreateTweetInput) (tweet *models.Tweet, err error) {
	ctx, span := observability.StartSpan(ctx, "TweetService.Create", attribute.Int64("user.id", int64(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	hashtags := normalizeHashtags(in.Hashtags)
	mentions, err := s.resolveMentions(ctx, dedupeIDs(in.Mentions))
	if err != nil {
		return nil, err
	}
	if err := checkTweetShape(in, hashtags, mentions); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		exists, err := s.tweets.Exists(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewNotFoundMessage("Parent tweet not found")
		}
	}

	tweet = &models.Tweet{
		UserID:   authorID,
		Type:     in.Type,
		Audience: in.Audience,
		Content:  in.Content,
		ParentID: in.ParentID,
		Medias:   in.Medias,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	observability.TweetsCreated.WithLabelValues(tweetTypeLabel(tweet.Type)).Inc()

	if err := s.linkHashtags(ctx, tweet.ID, hashtags); err != nil {
		logPartialWrite(ctx, "hashtags", tweet.ID, err)
		return nil, err
	}
	if err := s.linkMentions(ctx, tweet.ID, mentions); err != nil {
		logPartialWrite(ctx, "mentions", tweet.ID, err)
		return nil, err
	}

	s.fanOut(ctx, tweet)

	created, err := s.tweets.FindOne(ctx, tweet.ID, repository.WithEngagement(authorID))
	if err != nil {
		return nil, err
	}
	if err := s.attachRefs(ctx, []*models.Tweet{created}); err != nil {
		return nil, err
	}
	if err := s.attachCanReply(ctx, authorID, []*models.Tweet{created}); err != nil {
		return nil, err
	}
	return created, nil
}

func checkTweetShape(in CreateTweetInput, hashtags []string, mentions []uint) error {
	if in.Type != models.TweetTypeTweet && in.ParentID == nil {
		return models.NewUnprocessableError("Parent id is required for retweets, comments and quote tweets")
	}
	if in.Type == models.TweetTypeTweet && in.ParentID != nil {
		return models.NewUnprocessableError("Parent id must be empty for a tweet")
	}
	empty := strings.TrimSpace(in.Content) == "" && len(hashtags) == 0 && len(mentions) == 0
	switch in.Type {
	case models.TweetTypeRetweet:
		if in.Content != "" {
			return models.NewUnprocessableError("Content must be empty for a retweet")
		}
	default:
		if empty {
			return models.NewUnprocessableError("Content must not be empty")
		}
	}
	return nil
}

func (s *TweetService) linkHashtags(ctx context.Context, tweetID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tags, err := s.hashtags.Upsert(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return s.tweets.LinkHashtags(ctx, tweetID, ids)
}

// resolveMentions keeps the mentioned ids that belong to existing users.
func (s *TweetService) resolveMentions(ctx context.Context, userIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	users, err := s.users.GetMentionable(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *TweetService) linkMentions(ctx context.Context, tweetID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.tweets.LinkMentions(ctx, tweetID, userIDs)
}

// fanOut publishes tweet_created to every follower. Failures are logged; the tweet is already stored.
func (s *TweetService) fanOut(ctx context.Context, tweet *models.Tweet) {
	if s.publisher == nil || !s.flags.Enabled(featureflags.RealtimeFanout, tweet.UserID) {
		return
	}
	followers, err := s.follows.FollowerIDs(ctx, tweet.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "follower lookup for fan-out failed",
			slog.Uint64("tweet_id", uint64(tweet.ID)), slog.String("error", err.Error()))
		return
	}
	if len(followers) == 0 {
		return
	}

	event := TweetCreatedEvent{TweetID: tweet.ID, AuthorID: tweet.UserID, Type: tweet.Type}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(followers); start += fanOutBatch {
		batch := followers[start:min(start+fanOutBatch, len(followers))]
		g.Go(func() error {
			return s.publisher.PublishEvent(gctx, batch, notifications.EventTweetCreated, event)
		})
	}
	if err := g.Wait(); err != nil {
		middleware.Logger.WarnContext(ctx, "tweet fan-out failed",
			slog.Uint64("tweet_id", uint64(tweet.ID)), slog.String("error", err.Error()))
	}
}

// Get returns one enriched tweet and counts the view.
func (s *TweetService) Get(ctx context.Context, viewerID, tweetID uint) (*models.Tweet, error) {
	audit, err := s.visibility.Check(ctx, viewerID, tweetID)
	if err != nil {
		return nil, err
	}
	tweet, err := s.tweets.FindOne(ctx, tweetID, repository.WithEngagement(viewerID))
	if err != nil {
		return nil, err
	}
	if err := s.attachRefs(ctx, []*models.Tweet{tweet}); err != nil {
		return nil, err
	}
	if audit.CanReply {
		tweet.CanReply = &models.CanReply{ID: tweet.ID}
	}
	if err := s.countViews(ctx, []*models.Tweet{tweet}, "detail"); err != nil {
		return nil, err
	}
	return tweet, nil
}

// Children lists direct children of parentID with the given type, newest first.
func (s *TweetService) Children(ctx context.Context, viewerID, parentID uint, typ models.TweetType, page, limit int) (*models.TweetPage, error) {
	if err := ValidatePage(page, limit); err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, models.NewFieldValidationError("Validation failed", models.FieldError{Field: "type", Message: "must be between 0 and 3"})
	}
	if _, err := s.visibility.Check(ctx, viewerID, parentID); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, "children", repository.TweetQuery{
		Filters: []repository.Stage{repository.ChildrenOf(parentID, typ), repository.VisibleTo(viewerID)},
		Project: []repository.Stage{repository.WithEngagement(viewerID)},
		Order:   []repository.Stage{repository.OrderNewest()},
		Page:    page,
		Limit:   limit,
	})
}

// Timeline lists tweets by the viewer and everyone they follow, newest first.
func (s *TweetService) Timeline(ctx context.Context, viewerID uint, page, limit int) (*models.TweetPage, error) {
	if err := ValidatePage(page, limit); err != nil {
		return nil, err
	}
	following, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authors := append([]uint{viewerID}, following...)
	return s.page(ctx, viewerID, "timeline", repository.TweetQuery{
		Filters: []repository.Stage{repository.AuthoredBy(authors)},
		Project: []repository.Stage{repository.WithEngagement(viewerID)},
		Order:   []repository.Stage{repository.OrderNewest()},
		Page:    page,
		Limit:   limit,
	})
}

// List is the public listing, optionally narrowed by type and author.
func (s *TweetService) List(ctx context.Context, viewerID uint, in ListTweetsInput) (*models.TweetPage, error) {
	if err := ValidatePage(in.Page, in.Limit); err != nil {
		return nil, err
	}
	filters := []repository.Stage{repository.VisibleTo(viewerID)}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, models.NewFieldValidationError("Validation failed", models.FieldError{Field: "type", Message: "must be between 0 and 3"})
		}
		filters = append(filters, repository.OfType(*in.Type))
	}
	if in.AuthorID != 0 {
		filters = append(filters, repository.AuthoredBy([]uint{in.AuthorID}))
	}
	return s.page(ctx, viewerID, "list", repository.TweetQuery{
		Filters: filters,
		Project: []repository.Stage{repository.WithEngagement(viewerID)},
		Order:   []repository.Stage{repository.OrderNewest()},
		Page:    in.Page,
		Limit:   in.Limit,
	})
}

// Bookmarks lists the viewer's bookmarked tweets, most recently bookmarked first.
func (s *TweetService) Bookmarks(ctx context.Context, viewerID uint, page, limit int) (*models.TweetPage, error) {
	if err := ValidatePage(page, limit); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, "bookmarks", repository.TweetQuery{
		Filters: []repository.Stage{repository.BookmarkedBy(viewerID), repository.VisibleTo(viewerID)},
		Project: []repository.Stage{repository.WithEngagement(viewerID)},
		Order:   []repository.Stage{repository.OrderBookmarkedNewest()},
		Page:    page,
		Limit:   limit,
	})
}

func (s *TweetService) page(ctx context.Context, viewerID uint, path string, q repository.TweetQuery) (*models.TweetPage, error) {
	tweets, total, err := s.tweets.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, viewerID, tweets, path); err != nil {
		return nil, err
	}
	return &models.TweetPage{Tweets: tweets, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// enrich attaches hashtags, mentions and reply rights, then counts one view per tweet.
func (s *TweetService) enrich(ctx context.Context, viewerID uint, tweets []*models.Tweet, path string) error {
	if len(tweets) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.attachRefs(gctx, tweets) })
	g.Go(func() error { return s.attachCanReply(gctx, viewerID, tweets) })
	if err := g.Wait(); err != nil {
		return err
	}
	return s.countViews(ctx, tweets, path)
}

func (s *TweetService) attachRefs(ctx context.Context, tweets []*models.Tweet) error {
	ids := tweetIDs(tweets)
	var (
		tags     map[uint][]models.HashtagRef
		mentions map[uint][]models.Mention
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tags, err = s.tweets.HashtagsFor(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		mentions, err = s.tweets.MentionsFor(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	for _, t := range tweets {
		t.Hashtags = tags[t.ID]
		if t.Hashtags == nil {
			t.Hashtags = []models.HashtagRef{}
		}
		t.Mentions = mentions[t.ID]
		if t.Mentions == nil {
			t.Mentions = []models.Mention{}
		}
	}
	return nil
}

// attachCanReply resolves reply rights for a page using one following lookup and one
// circle lookup per distinct circle-audience author.
func (s *TweetService) attachCanReply(ctx context.Context, viewerID uint, tweets []*models.Tweet) error {
	if viewerID == 0 {
		for _, t := range tweets {
			if t.Audience == models.AudienceEveryone {
				t.CanReply = &models.CanReply{ID: t.ID}
			}
		}
		return nil
	}

	following, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return err
	}
	followingSet := make(map[uint]struct{}, len(following))
	for _, id := range following {
		followingSet[id] = struct{}{}
	}

	inCircle := map[uint]bool{}
	for _, t := range tweets {
		if t.Audience == models.AudienceCircle {
			if _, seen := inCircle[t.UserID]; !seen {
				member, err := s.circles.IsMember(ctx, t.UserID, viewerID)
				if err != nil {
					return err
				}
				inCircle[t.UserID] = member
			}
		}
	}

	for _, t := range tweets {
		_, follows := followingSet[t.UserID]
		allowed := false
		switch t.Audience {
		case models.AudienceEveryone:
			allowed = true
		case models.AudienceFollowers:
			allowed = follows
		case models.AudienceCircle:
			allowed = inCircle[t.UserID]
		}
		if allowed {
			t.CanReply = &models.CanReply{ID: t.ID}
		}
	}
	return nil
}

// countViews increments stored views once and mirrors the increment in the payload.
func (s *TweetService) countViews(ctx context.Context, tweets []*models.Tweet, path string) error {
	if err := s.tweets.IncrementViews(ctx, tweetIDs(tweets)); err != nil {
		return err
	}
	for _, t := range tweets {
		t.Views++
	}
	observability.TweetViews.WithLabelValues(path).Add(float64(len(tweets)))
	return nil
}

func tweetIDs(tweets []*models.Tweet) []uint {
	ids := make([]uint, 0, len(tweets))
	for _, t := range tweets {
		ids = append(ids, t.ID)
	}
	return ids
}

func normalizeHashtags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func tweetTypeLabel(t models.TweetType) string {
	switch t {
	case models.TweetTypeRetweet:
		return "retweet"
	case models.TweetTypeComment:
		return "comment"
	case models.TweetTypeQuoteTweet:
		return "quote"
	default:
		return "tweet"
	}
}

func logPartialWrite(ctx context.Context, step string, tweetID uint, err error) {
	middleware.Logger.ErrorContext(ctx, "tweet stored but follow-up write failed",
		slog.String("step", step), slog.Uint64("tweet_id", uint64(tweetID)), slog.String("error", err.Error()))
}
