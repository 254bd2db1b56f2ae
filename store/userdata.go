package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hustle-genie/chat"
	"hustle-genie/db"
	"hustle-genie/goals"
	"hustle-genie/llm"
)

var (
	// ErrNoUserData is returned when a user has no stored record
	ErrNoUserData = errors.New("no data stored for user")
	// ErrKeysUnsupported is returned by backends that cannot list keys
	ErrKeysUnsupported = errors.New("storage backend cannot list keys")
)

// DataOwners returns the emails that have a stored record
func (s *Store) DataOwners(ctx context.Context) ([]string, error) {
	lister, ok := s.kv.(db.KeyLister)
	if !ok {
		return nil, ErrKeysUnsupported
	}
	keys, err := lister.Keys(ctx, userDataPrefix)
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(keys))
	for _, k := range keys {
		owners = append(owners, strings.TrimPrefix(k, userDataPrefix))
	}
	return owners, nil
}

// LoadUserData reads the record of email. A stored record without a
// personality is given the default one.
func (s *Store) LoadUserData(ctx context.Context, email string) (*UserData, error) {
	var data UserData
	ok, err := s.getJSON(ctx, UserDataKey(NormalizeEmail(email)), &data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoUserData
	}

	if data.Settings.Personality == "" {
		data.Settings.Personality = llm.DefaultPersonality
	}
	if data.Settings.Theme == "" {
		data.Settings.Theme = ThemeDefault
	}
	if data.Settings.Font == "" {
		data.Settings.Font = FontNunito
	}
	return &data, nil
}

// SaveUserData replaces the record of email
func (s *Store) SaveUserData(ctx context.Context, email string, data UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setJSON(ctx, UserDataKey(NormalizeEmail(email)), data)
}

// update applies fn to the stored record, starting from the defaults when
// none exists
func (s *Store) update(ctx context.Context, email string, fn func(*UserData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := UserDataKey(NormalizeEmail(email))
	data := NewUserData()
	if _, err := s.getJSON(ctx, key, &data); err != nil {
		return err
	}
	fn(&data)
	return s.setJSON(ctx, key, data)
}

// SaveSettings stores the settings of email
func (s *Store) SaveSettings(ctx context.Context, email string, settings Settings) error {
	return s.update(ctx, email, func(d *UserData) {
		d.Settings = settings
	})
}

// SaveGoals stores the goal list of email
func (s *Store) SaveGoals(ctx context.Context, email string, list []goals.Goal) error {
	return s.update(ctx, email, func(d *UserData) {
		d.Goals = list
	})
}

// SaveCatalog stores the conversation catalog of email
func (s *Store) SaveCatalog(ctx context.Context, email string, catalog []chat.Conversation) error {
	if catalog == nil {
		catalog = []chat.Conversation{}
	}
	return s.update(ctx, email, func(d *UserData) {
		d.ChatHistory = catalog
	})
}

// ClearCatalog empties the stored conversation catalog of email
func (s *Store) ClearCatalog(ctx context.Context, email string) error {
	return s.SaveCatalog(ctx, email, nil)
}

// UserStore binds a Store to one user. It satisfies chat.CatalogStore and
// goals.Sink.
type UserStore struct {
	store *Store
	email string
}

// ForUser returns the adapter for email
func (s *Store) ForUser(email string) *UserStore {
	return &UserStore{store: s, email: NormalizeEmail(email)}
}

// Email of the bound user
func (u *UserStore) Email() string {
	return u.email
}

func (u *UserStore) SaveCatalog(catalog []chat.Conversation) error {
	return u.store.SaveCatalog(context.Background(), u.email, catalog)
}

func (u *UserStore) ClearCatalog() error {
	return u.store.ClearCatalog(context.Background(), u.email)
}

func (u *UserStore) SaveGoals(list []goals.Goal) error {
	return u.store.SaveGoals(context.Background(), u.email, list)
}

func (u *UserStore) SaveSettings(settings Settings) error {
	return u.store.SaveSettings(context.Background(), u.email, settings)
}

// Load reads the bound user's record
func (u *UserStore) Load(ctx context.Context) (*UserData, error) {
	data, err := u.store.LoadUserData(ctx, u.email)
	if err != nil {
		return nil, fmt.Errorf("failed to load data for %s: %w", u.email, err)
	}
	return data, nil
}
