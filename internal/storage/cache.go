package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kalambet/giftwise/internal/profile"
)

// labelsKey encodes a candidate label list. Order matters: the same labels
// in a different order are a different prompt.
func labelsKey(labels []string) (string, error) {
	b, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encoding labels: %w", err)
	}
	return string(b), nil
}

// GetClassification returns the cached ranking of phrase against labels.
func (s *Store) GetClassification(ctx context.Context, phrase string, labels []string) ([]profile.Label, error) {
	key, err := labelsKey(labels)
	if err != nil {
		return nil, err
	}
	var raw string
	err = s.db.QueryRowContext(ctx,
		"SELECT ranking_json FROM classifications WHERE phrase = ? AND labels = ?", phrase, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var ranking []profile.Label
	if err := json.Unmarshal([]byte(raw), &ranking); err != nil {
		return nil, fmt.Errorf("decoding cached ranking: %w", err)
	}
	return ranking, nil
}

// SaveClassification stores ranking, replacing any previous entry.
func (s *Store) SaveClassification(ctx context.Context, phrase string, labels []string, ranking []profile.Label) error {
	key, err := labelsKey(labels)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(ranking)
	if err != nil {
		return fmt.Errorf("encoding ranking: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications (phrase, labels, ranking_json) VALUES (?, ?, ?)
		ON CONFLICT(phrase, labels) DO UPDATE SET ranking_json = excluded.ranking_json, created_at = CURRENT_TIMESTAMP`,
		phrase, key, string(raw),
	)
	return err
}

// GetSentiment returns the cached sentiment of phrase.
func (s *Store) GetSentiment(ctx context.Context, phrase string) (profile.Sentiment, error) {
	var out profile.Sentiment
	err := s.db.QueryRowContext(ctx,
		"SELECT label, score FROM sentiments WHERE phrase = ?", phrase,
	).Scan(&out.Label, &out.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Sentiment{}, ErrNotFound
	}
	if err != nil {
		return profile.Sentiment{}, err
	}
	return out, nil
}

// SaveSentiment stores the sentiment of phrase, replacing any previous entry.
func (s *Store) SaveSentiment(ctx context.Context, phrase string, sent profile.Sentiment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sentiments (phrase, label, score) VALUES (?, ?, ?)
		ON CONFLICT(phrase) DO UPDATE SET label = excluded.label, score = excluded.score, created_at = CURRENT_TIMESTAMP`,
		phrase, sent.Label, sent.Score,
	)
	return err
}

// CacheStats counts the cached entries.
func (s *Store) CacheStats(ctx context.Context) (CacheStats, error) {
	var st CacheStats
	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM classifications), (SELECT COUNT(*) FROM sentiments)",
	).Scan(&st.Classifications, &st.Sentiments)
	if err != nil {
		return CacheStats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return st, nil
}

// PurgeCache deletes every cached answer and reports how many were removed.
func (s *Store) PurgeCache(ctx context.Context) (CacheStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CacheStats{}, fmt.Errorf("beginning purge: %w", err)
	}
	defer tx.Rollback()

	var removed CacheStats
	res, err := tx.ExecContext(ctx, "DELETE FROM classifications")
	if err != nil {
		return CacheStats{}, fmt.Errorf("purging classifications: %w", err)
	}
	n, _ := res.RowsAffected()
	removed.Classifications = int(n)

	res, err = tx.ExecContext(ctx, "DELETE FROM sentiments")
	if err != nil {
		return CacheStats{}, fmt.Errorf("purging sentiments: %w", err)
	}
	n, _ = res.RowsAffected()
	removed.Sentiments = int(n)

	if err := tx.Commit(); err != nil {
		return CacheStats{}, fmt.Errorf("committing purge: %w", err)
	}
	return removed, nil
}
