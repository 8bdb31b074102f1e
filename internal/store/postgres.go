package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
)

// PostgresSchema creates the tables used by PostgresStore.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS bets (
	id             TEXT PRIMARY KEY,
	bet_date       TEXT NOT NULL,
	outcome        TEXT NOT NULL DEFAULT 'OPEN',
	back_odds      NUMERIC NOT NULL DEFAULT 0,
	back_stake     NUMERIC NOT NULL DEFAULT 0,
	lay_odds       NUMERIC NOT NULL DEFAULT 0,
	lay_liability  NUMERIC NOT NULL DEFAULT 0,
	commission     NUMERIC NOT NULL DEFAULT 0,
	event          TEXT NOT NULL DEFAULT '',
	selection      TEXT NOT NULL DEFAULT '',
	sport          TEXT NOT NULL DEFAULT '',
	tipster        TEXT NOT NULL DEFAULT '',
	sportsbook     TEXT NOT NULL DEFAULT '',
	session_timing TEXT NOT NULL DEFAULT '',
	position_mode  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bets_date ON bets(bet_date);

CREATE TABLE IF NOT EXISTS matches (
	id         BIGINT PRIMARY KEY,
	match_date TEXT NOT NULL,
	home_team  TEXT NOT NULL,
	away_team  TEXT NOT NULL,
	league     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'SCHEDULED',
	home_goals INTEGER,
	away_goals INTEGER
);

CREATE TABLE IF NOT EXISTS predictions (
	id          BIGINT PRIMARY KEY,
	match_id    BIGINT REFERENCES matches(id),
	lambda_home DOUBLE PRECISION,
	lambda_away DOUBLE PRECISION,
	p_over_25   DOUBLE PRECISION,
	p_under_25  DOUBLE PRECISION,
	over_odds   DOUBLE PRECISION,
	under_odds  DOUBLE PRECISION,
	edge_over   DOUBLE PRECISION,
	edge_under  DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	approved   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("postgres schema migration: %w", err)
	}
	return nil
}

const betColumns = `id, bet_date, outcome,
	back_odds::TEXT, back_stake::TEXT, lay_odds::TEXT, lay_liability::TEXT, commission::TEXT,
	event, selection, sport, tipster, sportsbook, session_timing, position_mode, created_at`

func (s *PostgresStore) CreateBet(ctx context.Context, b *model.Bet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bets (id, bet_date, outcome, back_odds, back_stake, lay_odds, lay_liability, commission,
		                   event, selection, sport, tipster, sportsbook, session_timing, position_mode, created_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC,
		         $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.Date, string(b.Outcome),
		b.BackOdds.String(), b.BackStake.String(), b.LayOdds.String(), b.LayLiability.String(), b.Commission.String(),
		b.Event, b.Selection, b.Sport, b.Tipster, b.Sportsbook,
		string(b.SessionTiming), string(b.PositionMode), b.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetBet(ctx context.Context, id string) (*model.Bet, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	b, err := scanBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bet %s: %w", id, err)
	}
	return &b, nil
}

func (s *PostgresStore) ListBets(ctx context.Context, q BetQuery) ([]model.Bet, error) {
	var where []string
	var args []any
	if q.Filter.From != "" {
		args = append(args, q.Filter.From)
		where = append(where, fmt.Sprintf("LEFT(bet_date, 10) >= $%d", len(args)))
	}
	if q.Filter.To != "" {
		args = append(args, q.Filter.To)
		where = append(where, fmt.Sprintf("LEFT(bet_date, 10) <= $%d", len(args)))
	}
	if q.Filter.Outcome != "" {
		args = append(args, string(q.Filter.Outcome))
		where = append(where, fmt.Sprintf("outcome = $%d", len(args)))
	}

	sql := `SELECT ` + betColumns + ` FROM bets`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY bet_date DESC, created_at DESC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var bets []model.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return finish(bets, q), nil
}

func (s *PostgresStore) UpdateOutcome(ctx context.Context, id string, outcome model.Outcome) error {
	tag, err := s.pool.Exec(ctx, `UPDATE bets SET outcome = $2 WHERE id = $1`, id, string(outcome))
	if err != nil {
		return fmt.Errorf("update outcome %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteBet(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) UpsertPrediction(ctx context.Context, p *model.Prediction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.MatchID != nil {
		m := p.Match
		if _, err := tx.Exec(ctx,
			`INSERT INTO matches (id, match_date, home_team, away_team, league, status, home_goals, away_goals)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
			   match_date = EXCLUDED.match_date, home_team = EXCLUDED.home_team,
			   away_team = EXCLUDED.away_team, league = EXCLUDED.league, status = EXCLUDED.status,
			   home_goals = EXCLUDED.home_goals, away_goals = EXCLUDED.away_goals`,
			*p.MatchID, m.MatchDate, m.HomeTeam, m.AwayTeam, m.League, m.Status, m.HomeGoals, m.AwayGoals,
		); err != nil {
			return fmt.Errorf("upsert match %d: %w", *p.MatchID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO predictions (id, match_id, lambda_home, lambda_away, p_over_25, p_under_25,
		                          over_odds, under_odds, edge_over, edge_under)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   match_id = EXCLUDED.match_id, lambda_home = EXCLUDED.lambda_home, lambda_away = EXCLUDED.lambda_away,
		   p_over_25 = EXCLUDED.p_over_25, p_under_25 = EXCLUDED.p_under_25,
		   over_odds = EXCLUDED.over_odds, under_odds = EXCLUDED.under_odds,
		   edge_over = EXCLUDED.edge_over, edge_under = EXCLUDED.edge_under`,
		p.ID, p.MatchID, p.LambdaHome, p.LambdaAway, p.POver25, p.PUnder25,
		p.OverOdds, p.UnderOdds, p.EdgeOver, p.EdgeUnder,
	); err != nil {
		return fmt.Errorf("upsert prediction %d: %w", p.ID, err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListPredictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	if limit <= 0 {
		limit = 4000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.match_id, p.lambda_home, p.lambda_away, p.p_over_25, p.p_under_25,
		        p.over_odds, p.under_odds, p.edge_over, p.edge_under,
		        m.match_date, m.home_team, m.away_team, m.league, m.status, m.home_goals, m.away_goals
		 FROM predictions p
		 JOIN matches m ON m.id = p.match_id
		 ORDER BY p.id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(&p.ID, &p.MatchID, &p.LambdaHome, &p.LambdaAway, &p.POver25, &p.PUnder25,
			&p.OverOdds, &p.UnderOdds, &p.EdgeOver, &p.EdgeUnder,
			&p.Match.MatchDate, &p.Match.HomeTeam, &p.Match.AwayTeam, &p.Match.League,
			&p.Match.Status, &p.Match.HomeGoals, &p.Match.AwayGoals); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, email, approved, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, approved = EXCLUDED.approved`,
		p.ID, p.Email, p.Approved, p.CreatedAt)
	return err
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, approved, created_at FROM profiles ORDER BY approved ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Approved, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetApproval(ctx context.Context, id string, approved bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("set approval %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by pgx.Row, pgx.Rows and *sql.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBet reads one bet selected with betColumns. NUMERIC columns arrive as
// text and are parsed into decimals.
func scanBet(row rowScanner) (model.Bet, error) {
	var b model.Bet
	var outcome, timing, mode string
	var backOdds, backStake, layOdds, layLiability, commission string

	if err := row.Scan(&b.ID, &b.Date, &outcome,
		&backOdds, &backStake, &layOdds, &layLiability, &commission,
		&b.Event, &b.Selection, &b.Sport, &b.Tipster, &b.Sportsbook,
		&timing, &mode, &b.CreatedAt); err != nil {
		return b, err
	}

	b.Outcome = model.Outcome(outcome)
	b.SessionTiming = model.SessionTiming(timing)
	b.PositionMode = model.PositionMode(mode)
	b.BackOdds, _ = decimal.NewFromString(backOdds)
	b.BackStake, _ = decimal.NewFromString(backStake)
	b.LayOdds, _ = decimal.NewFromString(layOdds)
	b.LayLiability, _ = decimal.NewFromString(layLiability)
	b.Commission, _ = decimal.NewFromString(commission)
	return b, nil
}
