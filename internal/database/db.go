package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open は記事・速報ストアとして使うPostgreSQLデータベース接続を開く。
// databaseURLはPostgreSQLの接続URLを指定する（例: "postgres://newspulse:newspulse@db:5432/newspulse?sslmode=disable"）。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
