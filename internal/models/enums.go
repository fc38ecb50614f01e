package models

// UserVerifyStatus tracks email verification and bans.
type UserVerifyStatus int

const (
	UserUnverified UserVerifyStatus = iota
	UserVerified
	UserBanned
)

// TokenType identifies which signing key and lifetime a token uses.
type TokenType int

const (
	AccessTokenKind TokenType = iota
	RefreshTokenKind
	ForgotPasswordTokenKind
	EmailVerifyTokenKind
)

func (t TokenType) String() string {
	switch t {
	case AccessTokenKind:
		return "access"
	case RefreshTokenKind:
		return "refresh"
	case ForgotPasswordTokenKind:
		return "forgot_password"
	case EmailVerifyTokenKind:
		return "email_verify"
	default:
		return "unknown"
	}
}

// FollowStatus is the state of a directed follow edge.
type FollowStatus int

const (
	FollowStatusFollowing FollowStatus = iota
	FollowStatusRequested
	FollowStatusBlocked
)

// MediaType classifies an attached media item.
type MediaType int

const (
	MediaTypeImage MediaType = iota
	MediaTypeVideo
	MediaTypeHLS
)

// TweetType distinguishes root tweets from the three child kinds.
type TweetType int

const (
	TweetTypeTweet TweetType = iota
	TweetTypeRetweet
	TweetTypeComment
	TweetTypeQuoteTweet
)

// Valid reports whether t is a known tweet type.
func (t TweetType) Valid() bool {
	return t >= TweetTypeTweet && t <= TweetTypeQuoteTweet
}

// TweetAudience controls who may reply to a tweet.
type TweetAudience int

const (
	AudienceEveryone TweetAudience = iota
	AudienceFollowers
	AudienceCircle
)

func (a TweetAudience) Valid() bool {
	return a >= AudienceEveryone && a <= AudienceCircle
}

// PeopleFollow scopes search results.
type PeopleFollow int

const (
	PeopleFollowAnyone PeopleFollow = iota
	PeopleFollowFollowing
)

func (p PeopleFollow) Valid() bool {
	return p == PeopleFollowAnyone || p == PeopleFollowFollowing
}
