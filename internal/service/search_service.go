package service

import (
	"context"
	"strings"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// SearchType selects what a search returns.
type SearchType string

const (
	SearchTweets SearchType = "tweets"
	SearchPeople SearchType = "people"
	SearchMedia  SearchType = "media"
)

type SearchInput struct {
	Query        string              `json:"q" validate:"required,max=200"`
	Type         SearchType          `json:"type" validate:"omitempty,oneof=tweets people media"`
	PeopleFollow models.PeopleFollow `json:"people_follow" validate:"gte=0,lte=1"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
}

// SearchResult carries tweets for tweet modes and users for people mode.
type SearchResult struct {
	Type   SearchType             `json:"type"`
	Tweets []*models.Tweet        `json:"tweets,omitempty"`
	Users  []models.PublicProfile `json:"users,omitempty"`
	Total  int64                  `json:"total"`
	Page   int                    `json:"page"`
	Limit  int                    `json:"limit"`
}

// SearchService runs full-text search over tweets and people.
type SearchService struct {
	search  repository.SearchRepository
	follows repository.FollowRepository
	tweets  *TweetService
}

func NewSearchService(search repository.SearchRepository, follows repository.FollowRepository, tweets *TweetService) *SearchService {
	return &SearchService{search: search, follows: follows, tweets: tweets}
}

func (s *SearchService) Search(ctx context.Context, viewerID uint, in SearchInput) (res *SearchResult, err error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search",
		attribute.String("search.type", string(in.Type)))
	defer func() { observability.EndSpan(span, err) }()

	in.Query = strings.TrimSpace(in.Query)
	if in.Type == "" {
		in.Type = SearchTweets
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := ValidatePage(in.Page, in.Limit); err != nil {
		return nil, err
	}

	res = &SearchResult{Type: in.Type, Page: in.Page, Limit: in.Limit}

	var scope []uint
	if in.PeopleFollow == models.PeopleFollowFollowing {
		if viewerID == 0 {
			return res, nil
		}
		following, err := s.follows.FollowingIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		scope = append([]uint{viewerID}, following...)
	}

	if in.Type == SearchPeople {
		hits, total, err := s.search.SearchUsers(ctx, in.Query, viewerID, scope, in.Page, in.Limit)
		if err != nil {
			return nil, err
		}
		res.Users = make([]models.PublicProfile, 0, len(hits))
		for i := range hits {
			p := hits[i].User.Profile()
			p.IsFollowing = hits[i].IsFollowing
			res.Users = append(res.Users, p)
		}
		res.Total = total
		return res, nil
	}

	filters := []repository.Stage{repository.TextMatch(in.Query), repository.VisibleTo(viewerID)}
	if scope != nil {
		filters = append(filters, repository.AuthoredBy(scope))
	}
	if in.Type == SearchMedia {
		filters = append(filters, repository.HasMedia())
	}
	page, err := s.tweets.page(ctx, viewerID, "search", repository.TweetQuery{
		Filters: filters,
		Project: []repository.Stage{repository.WithEngagement(viewerID, repository.TextScore(in.Query))},
		Order:   []repository.Stage{repository.OrderRelevance()},
		Page:    in.Page,
		Limit:   in.Limit,
	})
	if err != nil {
		return nil, err
	}
	res.Tweets = page.Tweets
	res.Total = page.Total
	return res, nil
}
