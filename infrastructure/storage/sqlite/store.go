// ABOUTME: SQLite-backed ArticleStore for canonical articles
// ABOUTME: URL uniqueness is enforced by the primary key; duplicates are ignored, never overwritten

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/interfaces"
)

// Store implements interfaces.ArticleStore and interfaces.ArticleReader.
type Store struct {
	db     *sqlx.DB
	logger interfaces.Logger
}

// articleRow is the table shape. Times are unix seconds so range queries compare integers.
type articleRow struct {
	URL             string          `db:"url"`
	SourceCode      string          `db:"source_code"`
	Title           string          `db:"title"`
	Content         string          `db:"content"`
	Author          sql.NullString  `db:"author"`
	PublishedAt     sql.NullInt64   `db:"published_at"`
	DateSource      string          `db:"date_source"`
	Symbols         string          `db:"symbols"`
	TradingPairs    string          `db:"trading_pairs"`
	BreakingScore   float64         `db:"breaking_score"`
	IsBreaking      bool            `db:"is_breaking"`
	BreakingReasons string          `db:"breaking_reasons"`
	SentimentScore  sql.NullFloat64 `db:"sentiment_score"`
	SentimentLabel  sql.NullString  `db:"sentiment_label"`
	CreatedAt       int64           `db:"created_at"`
}

const schema = `
	CREATE TABLE IF NOT EXISTS articles (
		url TEXT PRIMARY KEY,
		source_code TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author TEXT,
		published_at INTEGER,
		date_source TEXT NOT NULL DEFAULT '',
		symbols TEXT NOT NULL DEFAULT '[]',
		trading_pairs TEXT NOT NULL DEFAULT '[]',
		breaking_score REAL NOT NULL DEFAULT 0,
		is_breaking INTEGER NOT NULL DEFAULT 0,
		breaking_reasons TEXT NOT NULL DEFAULT '[]',
		sentiment_score REAL,
		sentiment_label TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles(source_code, published_at);
`

const insertArticle = `
	INSERT OR IGNORE INTO articles (
		url, source_code, title, content, author, published_at, date_source,
		symbols, trading_pairs, breaking_score, is_breaking, breaking_reasons,
		sentiment_score, sentiment_label, created_at
	) VALUES (
		:url, :source_code, :title, :content, :author, :published_at, :date_source,
		:symbols, :trading_pairs, :breaking_score, :is_breaking, :breaking_reasons,
		:sentiment_score, :sentiment_label, :created_at
	)
`

// NewStore opens (or creates) the article database at filePath.
func NewStore(filePath string, logger interfaces.Logger) (*Store, error) {
	if filePath == "" {
		filePath = "articles.db"
	}
	if logger == nil {
		logger = interfaces.NopLogger{}
	}

	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite article store ready", map[string]interface{}{"path": filePath})
	return &Store{db: db, logger: logger}, nil
}

// Exists reports whether url is already stored.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM articles WHERE url = ?`, url); err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return n > 0, nil
}

// Save inserts article. An existing URL yields errors.ErrDuplicateArticle.
func (s *Store) Save(ctx context.Context, article *domain.CanonicalArticle) (*domain.CanonicalArticle, error) {
	if !article.IsValid() {
		return nil, &errors.ValidationError{Field: "article", Message: "url and content are required"}
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	row, err := toRow(article)
	if err != nil {
		return nil, err
	}

	res, err := s.db.NamedExecContext(ctx, insertArticle, row)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	if n == 0 {
		return nil, errors.ErrDuplicateArticle
	}
	return article, nil
}

// ListBetween returns articles of sourceCode published in [start, end], oldest first.
// An empty sourceCode lists every source.
func (s *Store) ListBetween(ctx context.Context, sourceCode string, start, end time.Time) ([]*domain.CanonicalArticle, error) {
	query := `SELECT * FROM articles WHERE published_at BETWEEN ? AND ?`
	args := []interface{}{start.UTC().Unix(), end.UTC().Unix()}
	if sourceCode != "" {
		query += ` AND source_code = ?`
		args = append(args, sourceCode)
	}
	query += ` ORDER BY published_at ASC`

	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out := make([]*domain.CanonicalArticle, 0, len(rows))
	for i := range rows {
		a, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func toRow(a *domain.CanonicalArticle) (*articleRow, error) {
	symbols, err := encodeList(a.Symbols)
	if err != nil {
		return nil, err
	}
	pairs, err := encodeList(a.TradingPairs)
	if err != nil {
		return nil, err
	}
	reasons, err := encodeList(a.BreakingReasons)
	if err != nil {
		return nil, err
	}

	row := &articleRow{
		URL:             a.URL,
		SourceCode:      a.SourceCode,
		Title:           a.Title,
		Content:         a.Content,
		DateSource:      string(a.DateSource),
		Symbols:         symbols,
		TradingPairs:    pairs,
		BreakingScore:   domain.ClampScore(a.BreakingScore),
		IsBreaking:      a.IsBreaking,
		BreakingReasons: reasons,
		CreatedAt:       a.CreatedAt.UTC().Unix(),
	}
	if a.Author != nil {
		row.Author = sql.NullString{String: *a.Author, Valid: true}
	}
	if a.PublishedAt != nil {
		row.PublishedAt = sql.NullInt64{Int64: a.PublishedAt.UTC().Unix(), Valid: true}
	}
	if a.Sentiment != nil {
		row.SentimentScore = sql.NullFloat64{Float64: a.Sentiment.Score, Valid: true}
		row.SentimentLabel = sql.NullString{String: a.Sentiment.Label, Valid: true}
	}
	return row, nil
}

func fromRow(r *articleRow) (*domain.CanonicalArticle, error) {
	a := &domain.CanonicalArticle{
		URL:           r.URL,
		SourceCode:    r.SourceCode,
		Title:         r.Title,
		Content:       r.Content,
		DateSource:    domain.DateSource(r.DateSource),
		BreakingScore: r.BreakingScore,
		IsBreaking:    r.IsBreaking,
		CreatedAt:     time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.Author.Valid {
		author := r.Author.String
		a.Author = &author
	}
	if r.PublishedAt.Valid {
		t := time.Unix(r.PublishedAt.Int64, 0).UTC()
		a.PublishedAt = &t
	}
	if r.SentimentScore.Valid || r.SentimentLabel.Valid {
		a.Sentiment = &domain.Sentiment{Score: r.SentimentScore.Float64, Label: r.SentimentLabel.String}
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{r.Symbols, &a.Symbols},
		{r.TradingPairs, &a.TradingPairs},
		{r.BreakingReasons, &a.BreakingReasons},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decode article %s: %w", r.URL, err)
		}
	}
	return a, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
