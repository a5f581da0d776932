package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventradar/pkg/geo"
)

type fakeStore struct {
	users map[uuid.UUID]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]*User)}
}

func (f *fakeStore) add(u *User) *User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.PreferredLanguage == "" {
		u.PreferredLanguage = "en"
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, u *User) error {
	if _, ok := f.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) FindByInterestNear(_ context.Context, _ []string, _ geo.Point, _ float64) ([]*User, error) {
	return nil, nil
}

func TestGetProfile(t *testing.T) {
	store := newFakeStore()
	u := store.add(&User{Username: "ada", Name: "Ada"})
	svc := NewService(store)

	got, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	_, err = svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	store := newFakeStore()
	u := store.add(&User{Username: "ada", Name: "Ada"})
	svc := NewService(store)

	name := "Ada L."
	lang := "fr"
	loc := &geo.Point{Longitude: 2.35, Latitude: 48.85}
	got, err := svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{
		Name:                &name,
		Location:            loc,
		PreferredCategories: []string{"music", "tech"},
		PreferredLanguage:   &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "fr", got.PreferredLanguage)
	require.NotNil(t, got.Location)
	assert.Equal(t, 48.85, got.Location.Latitude)
}

func TestUpdateProfileRejectsUnsupportedLanguage(t *testing.T) {
	store := newFakeStore()
	u := store.add(&User{Username: "ada", Name: "Ada"})
	svc := NewService(store)

	lang := "de"
	_, err := svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{PreferredLanguage: &lang})
	assert.Error(t, err)
}

func TestUpdateProfileRejectsInvalidLocation(t *testing.T) {
	store := newFakeStore()
	u := store.add(&User{Username: "ada", Name: "Ada"})
	svc := NewService(store)

	_, err := svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{
		Location: &geo.Point{Longitude: 300, Latitude: 0},
	})
	assert.Error(t, err)
}
