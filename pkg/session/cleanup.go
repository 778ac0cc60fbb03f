package session

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/browseragent/pkg/llm"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCleanupAge = 7 * 24 * time.Hour // 7 days
	DefaultMaxEntries = 500
)

// PruneOptions bounds what Prune keeps
type PruneOptions struct {
	// MaxAge deletes sessions not modified for this long. Zero disables.
	MaxAge time.Duration
	// MaxEntries trims longer sessions to their most recent entries. Zero disables.
	MaxEntries int
}

// PruneStats reports what Prune did
type PruneStats struct {
	Deleted []string `json:"deleted"`
	Trimmed []string `json:"trimmed"`
}

// Prune deletes stale sessions and trims oversized ones
func (sm *SessionManager) Prune(ctx context.Context, opts PruneOptions) (*PruneStats, error) {
	sessions, err := sm.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	stats := &PruneStats{Deleted: []string{}, Trimmed: []string{}}
	now := time.Now()

	for _, sessionKey := range sessions {
		info, err := sm.Stat(ctx, sessionKey)
		if err != nil {
			log.Warn().Str("session_key", sessionKey).Err(err).Msg("Failed to get session info")
			continue
		}

		if opts.MaxAge > 0 && now.Sub(info.LastModified) >= opts.MaxAge {
			if err := sm.Delete(ctx, sessionKey); err != nil {
				log.Error().Str("session_key", sessionKey).Err(err).Msg("Failed to delete session")
				continue
			}
			stats.Deleted = append(stats.Deleted, sessionKey)
			continue
		}

		if opts.MaxEntries > 0 && info.MessageCount > opts.MaxEntries {
			if err := sm.trim(ctx, sessionKey, opts.MaxEntries); err != nil {
				log.Warn().Str("session_key", sessionKey).Err(err).Msg("Failed to prune session")
				continue
			}
			stats.Trimmed = append(stats.Trimmed, sessionKey)
		}
	}

	if len(stats.Deleted) > 0 || len(stats.Trimmed) > 0 {
		log.Info().
			Int("deleted", len(stats.Deleted)).
			Int("trimmed", len(stats.Trimmed)).
			Msg("Sessions pruned")
	}

	return stats, nil
}

func (sm *SessionManager) trim(ctx context.Context, sessionKey string, maxEntries int) error {
	entries, err := sm.Load(ctx, sessionKey)
	if err != nil {
		return err
	}
	if len(entries) <= maxEntries {
		return nil
	}

	pruned := TrimToUserTurn(entries[len(entries)-maxEntries:])
	if err := sm.Replace(ctx, sessionKey, pruned); err != nil {
		return err
	}

	log.Debug().
		Str("session_key", sessionKey).
		Int("from_entries", len(entries)).
		Int("to_entries", len(pruned)).
		Msg("Session pruned")

	return nil
}

// TrimToUserTurn drops leading entries until the first user message so a
// kept transcript never opens with an orphaned tool result.
func TrimToUserTurn(entries []Entry) []Entry {
	for i, entry := range entries {
		if entry.Message.Role == llm.RoleUser {
			return entries[i:]
		}
	}
	return []Entry{}
}
