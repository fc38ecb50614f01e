package repository

import (
	"context"
	"errors"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TweetRepository defines persistence and query operations for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	// GetByID loads the stored row without enrichment.
	GetByID(ctx context.Context, id uint) (*models.Tweet, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// Find runs q and returns one page plus the unpaged total.
	Find(ctx context.Context, q TweetQuery) ([]*models.Tweet, int64, error)
	// FindOne runs the projection stages for a single tweet.
	FindOne(ctx context.Context, id uint, project ...Stage) (*models.Tweet, error)
	IncrementViews(ctx context.Context, ids []uint) error
	LinkHashtags(ctx context.Context, tweetID uint, hashtagIDs []uint) error
	LinkMentions(ctx context.Context, tweetID uint, userIDs []uint) error
	HashtagsFor(ctx context.Context, tweetIDs []uint) (map[uint][]models.HashtagRef, error)
	MentionsFor(ctx context.Context, tweetIDs []uint) (map[uint][]models.Mention, error)
}

type tweetRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTweetRepository creates a new tweet repository
func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{db: db, log: observability.NewRepoLogger("tweets")}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	defer observability.TrackQuery("insert", "tweets")()
	if tweet.Medias == nil {
		tweet.Medias = []models.Media{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(tweet).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, "tweet_id", tweet.ID, "user_id", tweet.UserID)
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.db.WithContext(ctx).Select("tweets.*").First(&tweet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Tweet not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &tweet, nil
}

func (r *tweetRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *tweetRepository) Find(ctx context.Context, q TweetQuery) (_ []*models.Tweet, _ int64, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Find", "tweets")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "tweets")()

	var total int64
	if err = apply(r.db.WithContext(ctx).Model(&models.Tweet{}), q.Filters).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	tweets := []*models.Tweet{}
	if total == 0 {
		return tweets, 0, nil
	}

	page := []Stage{}
	if q.Limit > 0 {
		page = append(page, Paginate(q.Page, q.Limit))
	}
	if err = apply(r.db.WithContext(ctx).Model(&models.Tweet{}), q.Filters, q.Project, q.Order, page).
		Find(&tweets).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return tweets, total, nil
}

func (r *tweetRepository) FindOne(ctx context.Context, id uint, project ...Stage) (*models.Tweet, error) {
	var tweet models.Tweet
	err := apply(r.db.WithContext(ctx).Model(&models.Tweet{}), []Stage{ByID(id)}, project).
		Take(&tweet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Tweet not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &tweet, nil
}

// IncrementViews bumps views by one for every id in a single statement.
func (r *tweetRepository) IncrementViews(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	defer observability.TrackQuery("update", "tweets")()
	if err := r.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("id IN ?", ids).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) LinkHashtags(ctx context.Context, tweetID uint, hashtagIDs []uint) error {
	if len(hashtagIDs) == 0 {
		return nil
	}
	links := make([]models.TweetHashtag, 0, len(hashtagIDs))
	for _, id := range hashtagIDs {
		links = append(links, models.TweetHashtag{TweetID: tweetID, HashtagID: id})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) LinkMentions(ctx context.Context, tweetID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	links := make([]models.TweetMention, 0, len(userIDs))
	for _, id := range userIDs {
		links = append(links, models.TweetMention{TweetID: tweetID, UserID: id})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) HashtagsFor(ctx context.Context, tweetIDs []uint) (map[uint][]models.HashtagRef, error) {
	out := make(map[uint][]models.HashtagRef, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TweetID uint
		ID      uint
		Name    string
	}
	if err := r.db.WithContext(ctx).Table("tweet_hashtags th").
		Select("th.tweet_id, h.id, h.name").
		Joins("JOIN hashtags h ON h.id = th.hashtag_id").
		Where("th.tweet_id IN ?", tweetIDs).
		Order("th.tweet_id, h.name").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.TweetID] = append(out[row.TweetID], models.HashtagRef{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *tweetRepository) MentionsFor(ctx context.Context, tweetIDs []uint) (map[uint][]models.Mention, error) {
	out := make(map[uint][]models.Mention, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TweetID  uint
		ID       uint
		Name     string
		Username *string
		Email    string
	}
	if err := r.db.WithContext(ctx).Table("tweet_mentions tm").
		Select("tm.tweet_id, u.id, u.name, u.username, u.email").
		Joins("JOIN users u ON u.id = tm.user_id AND u.deleted_at IS NULL").
		Where("tm.tweet_id IN ?", tweetIDs).
		Order("tm.tweet_id, u.id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		m := models.Mention{ID: row.ID, Name: row.Name, Email: row.Email}
		if row.Username != nil {
			m.Username = *row.Username
		}
		out[row.TweetID] = append(out[row.TweetID], m)
	}
	return out, nil
}
