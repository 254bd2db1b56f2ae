package store

import (
	"context"
	"encoding/json"

	"hustle-genie/chat"
)

// MigrateLegacy moves the unscoped settings and history keys of old
// installs into the active user's record, then deletes them. Failures are
// logged; the keys are removed either way.
func (s *Store) MigrateLegacy(ctx context.Context) {
	rawSettings, hasSettings, err := s.kv.Get(ctx, LegacySettingsKey)
	if err != nil {
		s.logger.Error("failed to read legacy settings", "error", err)
		return
	}
	rawHistory, hasHistory, err := s.kv.Get(ctx, LegacyHistoryKey)
	if err != nil {
		s.logger.Error("failed to read legacy history", "error", err)
		return
	}
	if !hasSettings && !hasHistory {
		return
	}

	if user, err := s.ActiveUser(ctx); err == nil {
		s.mergeLegacy(ctx, user.Email, rawSettings, hasSettings, rawHistory, hasHistory)
	} else {
		s.logger.Warn("legacy data found without an active user", "error", err)
	}

	for _, key := range []string{LegacySettingsKey, LegacyHistoryKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("failed to delete legacy key", "key", key, "error", err)
		}
	}
}

func (s *Store) mergeLegacy(ctx context.Context, email, rawSettings string, hasSettings bool, rawHistory string, hasHistory bool) {
	var legacySettings *Settings
	if hasSettings {
		var parsed Settings
		if err := json.Unmarshal([]byte(rawSettings), &parsed); err != nil {
			s.logger.Error("failed to decode legacy settings", "error", err)
		} else if parsed.Personality != "" {
			legacySettings = &parsed
		}
	}

	var history []chat.Conversation
	if hasHistory {
		if err := json.Unmarshal([]byte(rawHistory), &history); err != nil {
			s.logger.Error("failed to decode legacy history", "error", err)
			history = nil
		}
	}

	data, err := s.LoadUserData(ctx, email)
	if err != nil {
		s.logger.Warn("active user has no data to migrate into", "email", email, "error", err)
		return
	}

	if legacySettings != nil {
		data.Settings = *legacySettings
		if !data.Settings.Theme.Valid() {
			data.Settings.Theme = ThemeDefault
		}
		if !data.Settings.Font.Valid() {
			data.Settings.Font = FontNunito
		}
	}
	if len(data.ChatHistory) == 0 && history != nil {
		data.ChatHistory = history
	}

	if err := s.SaveUserData(ctx, email, *data); err != nil {
		s.logger.Error("failed to save migrated data", "email", email, "error", err)
		return
	}
	s.logger.Info("migrated legacy data", "email", email, "conversations", len(data.ChatHistory))
}
