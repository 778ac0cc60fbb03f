package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harun/browseragent/internal/tracing"
	"github.com/harun/browseragent/pkg/llm"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "browseragent.session"

// Entry is one persisted transcript message
type Entry struct {
	SessionKey string      `json:"sessionKey"`
	RunID      string      `json:"runId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Message    llm.Message `json:"message"`
}

// Info describes a stored session
type Info struct {
	SessionKey   string    `json:"sessionKey"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	MessageCount int       `json:"messageCount"`
}

// SessionManager persists transcripts as one JSONL file per session
type SessionManager struct {
	sessionsDir string
	writeLocks  map[string]*sync.Mutex
	locksMu     sync.Mutex
}

// New creates a SessionManager rooted at sessionsDir
func New(sessionsDir string) (*SessionManager, error) {
	if sessionsDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		sessionsDir = filepath.Join(homeDir, ".browseragent", "sessions")
	}

	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	log.Debug().Str("dir", sessionsDir).Msg("Session manager initialized")

	return &SessionManager{
		sessionsDir: sessionsDir,
		writeLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the sessions directory
func (sm *SessionManager) Dir() string {
	return sm.sessionsDir
}

// ValidateSessionKey rejects keys that are empty or not path-safe
func ValidateSessionKey(sessionKey string) error {
	if sessionKey == "" {
		return fmt.Errorf("session key cannot be empty")
	}
	if strings.Contains(sessionKey, "..") {
		return fmt.Errorf("session key cannot contain '..'")
	}
	if strings.ContainsAny(sessionKey, "/\\") {
		return fmt.Errorf("session key cannot contain path separators")
	}
	if strings.Contains(sessionKey, "\x00") {
		return fmt.Errorf("session key cannot contain null bytes")
	}
	return nil
}

func (sm *SessionManager) sessionPath(sessionKey string) string {
	return filepath.Join(sm.sessionsDir, sessionKey+".jsonl")
}

func (sm *SessionManager) writeLock(sessionKey string) *sync.Mutex {
	sm.locksMu.Lock()
	defer sm.locksMu.Unlock()

	if lock, exists := sm.writeLocks[sessionKey]; exists {
		return lock
	}
	lock := &sync.Mutex{}
	sm.writeLocks[sessionKey] = lock
	return lock
}

// Append appends messages to a session, creating it if needed
func (sm *SessionManager) Append(ctx context.Context, sessionKey string, messages ...llm.Message) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.append",
		attribute.String("session_key", sessionKey),
		attribute.Int("messages", len(messages)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	runID := tracing.GetRunID(ctx)
	now := time.Now().UTC()

	var buf []byte
	for _, msg := range messages {
		if msg.Role == "" {
			return fmt.Errorf("message role cannot be empty")
		}
		data, err := json.Marshal(Entry{
			SessionKey: sessionKey,
			RunID:      runID,
			Timestamp:  now,
			Message:    msg,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	lock := sm.writeLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	file, err := os.OpenFile(sm.sessionPath(sessionKey), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("failed to write messages: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("session_key", sessionKey).
		Int("messages", len(messages)).
		Msg("Messages appended")

	return nil
}

// Load returns all entries of a session. A missing session is empty.
// Unparseable lines are skipped.
func (sm *SessionManager) Load(ctx context.Context, sessionKey string) (entries []Entry, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.load",
		attribute.String("session_key", sessionKey),
	)
	defer func() { tracing.EndSpan(span, err) }()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, err
	}

	file, err := os.Open(sm.sessionPath(sessionKey))
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	entries = []Entry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.Warn().
				Str("session_key", sessionKey).
				Int("line", lineNum).
				Err(err).
				Msg("Failed to parse line, skipping")
			continue
		}
		if entry.Message.Role == "" {
			logger.Warn().
				Str("session_key", sessionKey).
				Int("line", lineNum).
				Msg("Invalid entry, skipping")
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return entries, nil
}

// LoadMessages returns the session transcript as model messages
func (sm *SessionManager) LoadMessages(ctx context.Context, sessionKey string) ([]llm.Message, error) {
	entries, err := sm.Load(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	messages := make([]llm.Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, entry.Message)
	}
	return messages, nil
}

// Replace atomically rewrites a session with entries
func (sm *SessionManager) Replace(ctx context.Context, sessionKey string, entries []Entry) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}

	lock := sm.writeLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	sessionPath := sm.sessionPath(sessionKey)
	tempPath := sessionPath + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	writer := bufio.NewWriter(file)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err == nil {
			_, err = writer.Write(append(data, '\n'))
		}
		if err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush session file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, sessionPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("session_key", sessionKey).
		Int("entries", len(entries)).
		Msg("Session rewritten")

	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (sm *SessionManager) Delete(ctx context.Context, sessionKey string) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}

	lock := sm.writeLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(sm.sessionPath(sessionKey)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Info().Str("session_key", sessionKey).Msg("Session deleted")

	return nil
}

// List returns the stored session keys, sorted
func (sm *SessionManager) List() ([]string, error) {
	dirEntries, err := os.ReadDir(sm.sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	sessions := []string{}
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(entry.Name(), ".jsonl"))
	}
	sort.Strings(sessions)

	return sessions, nil
}

// Stat returns metadata about a session
func (sm *SessionManager) Stat(ctx context.Context, sessionKey string) (*Info, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, err
	}

	fi, err := os.Stat(sm.sessionPath(sessionKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s does not exist", sessionKey)
		}
		return nil, fmt.Errorf("failed to stat session file: %w", err)
	}

	entries, err := sm.Load(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	return &Info{
		SessionKey:   sessionKey,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
		MessageCount: len(entries),
	}, nil
}
