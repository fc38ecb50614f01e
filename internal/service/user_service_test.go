package service

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "me@example.com", false)

	private := true
	updated, err := f.user.UpdateMe(ctx, u.ID, UpdateMeInput{
		Name:      strPtr("  New Name "),
		Bio:       strPtr("hello"),
		Username:  strPtr("new_name"),
		IsPrivate: &private,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "new_name", updated.UsernameValue())
	assert.True(t, updated.IsPrivate)

	// Untouched fields survive a partial update.
	updated, err = f.user.UpdateMe(ctx, u.ID, UpdateMeInput{Location: strPtr("Hanoi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "Hanoi", updated.Location)
}

func TestUserService_UpdateMeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "v@example.com", false)

	_, err := f.user.UpdateMe(ctx, u.ID, UpdateMeInput{Username: strPtr("no spaces")})
	assertAppCode(t, err, models.CodeValidation)

	_, err = f.user.UpdateMe(ctx, u.ID, UpdateMeInput{Website: strPtr("not a url")})
	assertAppCode(t, err, models.CodeValidation)
}

func TestUserService_UsernameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, "first@example.com", false)
	b := f.createUser(t, "second@example.com", false)

	_, err := f.user.UpdateMe(ctx, a.ID, UpdateMeInput{Username: strPtr("taken")})
	require.NoError(t, err)

	_, err = f.user.UpdateMe(ctx, b.ID, UpdateMeInput{Username: strPtr("taken")})
	assertAppCode(t, err, models.CodeConflict)

	// Re-saving your own username is fine.
	_, err = f.user.UpdateMe(ctx, a.ID, UpdateMeInput{Username: strPtr("taken")})
	require.NoError(t, err)
}

func TestUserService_GetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, "prof@example.com", false)
	viewer := f.createUser(t, "looker@example.com", false)
	_, err := f.user.UpdateMe(ctx, a.ID, UpdateMeInput{Username: strPtr("prof")})
	require.NoError(t, err)

	anon, err := f.user.GetProfile(ctx, 0, "prof")
	require.NoError(t, err)
	assert.Equal(t, a.ID, anon.ID)
	assert.False(t, anon.IsFollowing)

	f.followEdge(t, viewer.ID, a.ID)
	seen, err := f.user.GetProfile(ctx, viewer.ID, "prof")
	require.NoError(t, err)
	assert.True(t, seen.IsFollowing)

	_, err = f.user.GetProfile(ctx, 0, "ghost")
	assertAppCode(t, err, models.CodeNotFound)
}

func TestUserService_Circle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "owner@example.com", false)
	member := f.createUser(t, "member@example.com", false)

	assertAppCode(t, f.user.AddCircleMember(ctx, owner.ID, owner.ID), models.CodeValidation)
	assertAppCode(t, f.user.AddCircleMember(ctx, owner.ID, 999), models.CodeNotFound)

	require.NoError(t, f.user.AddCircleMember(ctx, owner.ID, member.ID))
	require.NoError(t, f.user.AddCircleMember(ctx, owner.ID, member.ID))

	circle, err := f.user.ListCircle(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, circle, 1)
	assert.Equal(t, member.ID, circle[0].ID)

	require.NoError(t, f.user.RemoveCircleMember(ctx, owner.ID, member.ID))
	circle, err = f.user.ListCircle(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, circle)
}
