package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

// SQLitePreferenceStore はSQLiteを使用した嗜好リストのキーバリューストア。
// クライアントIDをキーとし、嗜好リストをJSONで1行に保存する。
type SQLitePreferenceStore struct {
	db *sql.DB
}

// NewSQLitePreferenceStore はSQLitePreferenceStoreを生成し、テーブルが無ければ作成する。
func NewSQLitePreferenceStore(db *sql.DB) (*SQLitePreferenceStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_preferences (
			client_id  TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("嗜好テーブルの作成に失敗しました: %w", err)
	}
	return &SQLitePreferenceStore{db: db}, nil
}

var _ PreferenceStore = (*SQLitePreferenceStore)(nil)

// Get はクライアントの嗜好リストを返す。未登録の場合は空のリストを返す。
func (s *SQLitePreferenceStore) Get(ctx context.Context, clientID string) ([]model.UserPreference, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_preferences WHERE client_id = ?`, clientID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return []model.UserPreference{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("嗜好リストの取得に失敗しました: %w", err)
	}

	var prefs []model.UserPreference
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return nil, fmt.Errorf("嗜好リストのデコードに失敗しました: %w", err)
	}
	return prefs, nil
}

// Set はクライアントの嗜好リストを置き換える。
func (s *SQLitePreferenceStore) Set(ctx context.Context, clientID string, prefs []model.UserPreference) error {
	if prefs == nil {
		prefs = []model.UserPreference{}
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("嗜好リストのエンコードに失敗しました: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (client_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(client_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		clientID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("嗜好リストの保存に失敗しました: %w", err)
	}
	return nil
}

// Remove はクライアントの嗜好リストを削除する。
func (s *SQLitePreferenceStore) Remove(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_preferences WHERE client_id = ?`, clientID,
	); err != nil {
		return fmt.Errorf("嗜好リストの削除に失敗しました: %w", err)
	}
	return nil
}
