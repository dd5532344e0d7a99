package main

import (
	"crypto/sha256"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"

	"github.com/nemonet1337/zaikoGo/internal/config"
)

// migration is one SQL file on disk paired with its content checksum
// ディスク上のSQLファイル一件とそのチェックサム
type migration struct {
	name     string
	path     string
	checksum string
}

func main() {
	dir := flag.String("dir", "migrations", "マイグレーションSQLのディレクトリ")
	statusOnly := flag.Bool("status", false, "適用状況の表示のみ行う")
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML設定ファイルのパス（環境変数を上書き）")
	flag.Parse()

	log.Println("zaikoGo スキーママイグレーション")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal("データベース接続に失敗しました:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("データベースpingに失敗しました:", err)
	}
	log.Printf("接続先: %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if err := ensureHistoryTable(db); err != nil {
		log.Fatal("マイグレーション履歴テーブル作成に失敗しました:", err)
	}

	pending, err := loadMigrations(*dir)
	if err != nil {
		log.Fatal(err)
	}

	applied, err := appliedChecksums(db)
	if err != nil {
		log.Fatal("実行済みマイグレーション取得に失敗しました:", err)
	}

	if *statusOnly {
		printStatus(pending, applied)
		return
	}

	ran := 0
	for _, m := range pending {
		recorded, done := applied[m.name]
		if done {
			// 適用済みファイルの書き換えは即エラーにする
			if recorded != m.checksum {
				log.Fatalf("チェックサム不一致: %s は適用後に変更されています", m.name)
			}
			continue
		}

		log.Printf("適用中: %s", m.name)
		if err := applyMigration(db, m); err != nil {
			log.Fatal(err)
		}
		ran++
	}

	log.Printf("完了: %d件適用 (%d件は適用済み)", ran, len(pending)-ran)
}

// loadConfig reads the environment and layers the YAML file on top when given
// 環境変数を読み、指定があればYAMLファイルを重ねる
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// ensureHistoryTable creates the migration history table if missing
// マイグレーション履歴テーブルを確認・作成
func ensureHistoryTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) NOT NULL UNIQUE,
			executed_at TIMESTAMP NOT NULL DEFAULT NOW(),
			checksum VARCHAR(64) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("マイグレーション履歴テーブル作成エラー: %w", err)
	}
	return nil
}

// loadMigrations reads the directory and returns migrations in lexical order
// ディレクトリを読み、ファイル名順のマイグレーション一覧を返す
func loadMigrations(dir string) ([]migration, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("マイグレーションディレクトリが見つかりません: %s", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("マイグレーションファイル検索エラー: %w", err)
	}
	sort.Strings(paths)

	migrations := make([]migration, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("ファイル読み込みエラー %s: %w", p, err)
		}
		migrations = append(migrations, migration{
			name:     filepath.Base(p),
			path:     p,
			checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}
	return migrations, nil
}

// applyMigration executes one file and records it, both in one transaction
// 一件のマイグレーション実行と履歴記録を単一トランザクションで行う
func applyMigration(db *sql.DB, m migration) error {
	content, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みエラー %s: %w", m.name, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始エラー %s: %w", m.name, err)
	}

	if _, err := tx.Exec(string(content)); err != nil {
		tx.Rollback()
		return fmt.Errorf("マイグレーション実行エラー %s: %w", m.name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (filename, checksum) VALUES ($1, $2)",
		m.name, m.checksum,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("マイグレーション履歴記録エラー %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションコミットエラー %s: %w", m.name, err)
	}
	return nil
}

// appliedChecksums returns filename → recorded checksum for executed migrations
// 実行済みマイグレーションのファイル名とチェックサムを返す
func appliedChecksums(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT filename, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var name, sum string
		if err := rows.Scan(&name, &sum); err != nil {
			return nil, err
		}
		applied[name] = sum
	}
	return applied, rows.Err()
}

// printStatus lists each migration with its applied state
// 各マイグレーションの適用状況を表示
func printStatus(migrations []migration, applied map[string]string) {
	for _, m := range migrations {
		state := "未適用"
		if sum, ok := applied[m.name]; ok {
			state = "適用済み"
			if sum != m.checksum {
				state = "適用済み (チェックサム不一致)"
			}
		}
		log.Printf("%-40s %s", m.name, state)
	}
}
