package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"hustle-genie/chat"
	"hustle-genie/db"
	"hustle-genie/goals"
	"hustle-genie/llm"
	"hustle-genie/utils"
)

// Storage keys
const (
	UsersKey          = "hustleGenieUsers"
	ActiveUserKey     = "hustleGenieActiveUser"
	LegacySettingsKey = "hustleGenieSettings"
	LegacyHistoryKey  = "hustleGenieChatHistory"

	userDataPrefix = "hustleGenieData_"
)

// UserDataKey is the key holding the UserData of email
func UserDataKey(email string) string {
	return userDataPrefix + email
}

// Theme identifies a color theme
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeLight   Theme = "light"
	ThemeDark    Theme = "dark"
	ThemeRed     Theme = "red"
	ThemeGreen   Theme = "green"
	ThemeBlue    Theme = "blue"
	ThemePurple  Theme = "purple"
)

// Themes lists every theme in display order
var Themes = []Theme{ThemeDefault, ThemeLight, ThemeDark, ThemeRed, ThemeGreen, ThemeBlue, ThemePurple}

// Font identifies a font theme
type Font string

const (
	FontNunito        Font = "nunito"
	FontInter         Font = "inter"
	FontLora          Font = "lora"
	FontMono          Font = "mono"
	FontPoppins       Font = "poppins"
	FontPlayfair      Font = "playfair"
	FontSourceCodePro Font = "source-code-pro"
)

// Fonts lists every font in display order
var Fonts = []Font{FontNunito, FontInter, FontLora, FontMono, FontPoppins, FontPlayfair, FontSourceCodePro}

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

// Valid reports whether f is a known font
func (f Font) Valid() bool {
	for _, v := range Fonts {
		if v == f {
			return true
		}
	}
	return false
}

// Settings are the per-user preferences
type Settings struct {
	Theme       Theme  `json:"theme"`
	Font        Font   `json:"font"`
	Personality string `json:"personality"`
}

// DefaultSettings returns the settings of a new account
func DefaultSettings() Settings {
	return Settings{Theme: ThemeDefault, Font: FontNunito, Personality: llm.DefaultPersonality}
}

// UserData is everything persisted for one user
type UserData struct {
	Settings    Settings            `json:"settings"`
	Goals       []goals.Goal        `json:"goals"`
	ChatHistory []chat.Conversation `json:"chatHistory"`
}

// NewUserData returns the data written for a new account
func NewUserData() UserData {
	return UserData{
		Settings:    DefaultSettings(),
		Goals:       []goals.Goal{goals.Default},
		ChatHistory: []chat.Conversation{},
	}
}

// Store maps users and their data onto a key-value backend
type Store struct {
	kv       db.KV
	logger   *utils.Logger
	hashCost int

	// serializes read-modify-write of user records
	mu sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithHashCost sets the bcrypt cost for new passwords
func WithHashCost(cost int) Option {
	return func(s *Store) {
		s.hashCost = cost
	}
}

// New creates a Store over kv
func New(kv db.KV, logger *utils.Logger, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		logger:   logger.With("component", "store"),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KV returns the backend
func (s *Store) KV() db.KV {
	return s.kv
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
