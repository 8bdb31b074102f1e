package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ddtips/dashboard/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bets (
	id             TEXT PRIMARY KEY,
	bet_date       TEXT NOT NULL,
	outcome        TEXT NOT NULL DEFAULT 'OPEN',
	back_odds      TEXT NOT NULL DEFAULT '0',
	back_stake     TEXT NOT NULL DEFAULT '0',
	lay_odds       TEXT NOT NULL DEFAULT '0',
	lay_liability  TEXT NOT NULL DEFAULT '0',
	commission     TEXT NOT NULL DEFAULT '0',
	event          TEXT NOT NULL DEFAULT '',
	selection      TEXT NOT NULL DEFAULT '',
	sport          TEXT NOT NULL DEFAULT '',
	tipster        TEXT NOT NULL DEFAULT '',
	sportsbook     TEXT NOT NULL DEFAULT '',
	session_timing TEXT NOT NULL DEFAULT '',
	position_mode  TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_date ON bets(bet_date);

CREATE TABLE IF NOT EXISTS matches (
	id         INTEGER PRIMARY KEY,
	match_date TEXT NOT NULL,
	home_team  TEXT NOT NULL,
	away_team  TEXT NOT NULL,
	league     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'SCHEDULED',
	home_goals INTEGER,
	away_goals INTEGER
);

CREATE TABLE IF NOT EXISTS predictions (
	id          INTEGER PRIMARY KEY,
	match_id    INTEGER REFERENCES matches(id),
	lambda_home REAL,
	lambda_away REAL,
	p_over_25   REAL,
	p_under_25  REAL,
	over_odds   REAL,
	under_odds  REAL,
	edge_over   REAL,
	edge_under  REAL
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	approved   BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
`

// SQLiteStore implements Store on an embedded SQLite database. Money is
// stored as decimal text so no precision is lost in REAL columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBet(ctx context.Context, b *model.Bet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bets (id, bet_date, outcome, back_odds, back_stake, lay_odds, lay_liability, commission,
			event, selection, sport, tipster, sportsbook, session_timing, position_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, string(b.Outcome),
		b.BackOdds.String(), b.BackStake.String(), b.LayOdds.String(), b.LayLiability.String(), b.Commission.String(),
		b.Event, b.Selection, b.Sport, b.Tipster, b.Sportsbook,
		string(b.SessionTiming), string(b.PositionMode), b.CreatedAt.UTC(),
	)
	return err
}

const sqliteBetColumns = `id, bet_date, outcome, back_odds, back_stake, lay_odds, lay_liability, commission,
	event, selection, sport, tipster, sportsbook, session_timing, position_mode, created_at`

func (s *SQLiteStore) GetBet(ctx context.Context, id string) (*model.Bet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteBetColumns+` FROM bets WHERE id = ?`, id)
	b, err := scanSQLiteBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bet %s: %w", id, err)
	}
	return &b, nil
}

func (s *SQLiteStore) ListBets(ctx context.Context, q BetQuery) ([]model.Bet, error) {
	from, to := q.Filter.From, q.Filter.To
	if from == "" {
		from = "0000-00-00"
	}
	if to == "" {
		to = "9999-99-99"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteBetColumns+` FROM bets
		WHERE substr(bet_date, 1, 10) BETWEEN ? AND ?
		ORDER BY bet_date DESC, created_at DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var bets []model.Bet
	for rows.Next() {
		b, err := scanSQLiteBet(rows)
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

func (s *SQLiteStore) UpdateOutcome(ctx context.Context, id string, outcome model.Outcome) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bets SET outcome = ? WHERE id = ?`, string(outcome), id)
	if err != nil {
		return fmt.Errorf("update outcome %s: %w", id, err)
	}
	return requireRow(res, "bet", id)
}

func (s *SQLiteStore) DeleteBet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bet %s: %w", id, err)
	}
	return requireRow(res, "bet", id)
}

func (s *SQLiteStore) UpsertPrediction(ctx context.Context, p *model.Prediction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.MatchID != nil {
		m := p.Match
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO matches (id, match_date, home_team, away_team, league, status, home_goals, away_goals)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				match_date = excluded.match_date, home_team = excluded.home_team,
				away_team = excluded.away_team, league = excluded.league, status = excluded.status,
				home_goals = excluded.home_goals, away_goals = excluded.away_goals`,
			*p.MatchID, m.MatchDate, m.HomeTeam, m.AwayTeam, m.League, m.Status,
			nullInt(m.HomeGoals), nullInt(m.AwayGoals),
		); err != nil {
			return fmt.Errorf("upsert match %d: %w", *p.MatchID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO predictions (id, match_id, lambda_home, lambda_away, p_over_25, p_under_25,
			over_odds, under_odds, edge_over, edge_under)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			match_id = excluded.match_id, lambda_home = excluded.lambda_home, lambda_away = excluded.lambda_away,
			p_over_25 = excluded.p_over_25, p_under_25 = excluded.p_under_25,
			over_odds = excluded.over_odds, under_odds = excluded.under_odds,
			edge_over = excluded.edge_over, edge_under = excluded.edge_under`,
		p.ID, nullInt64(p.MatchID),
		nullFloat(p.LambdaHome), nullFloat(p.LambdaAway), nullFloat(p.POver25), nullFloat(p.PUnder25),
		nullFloat(p.OverOdds), nullFloat(p.UnderOdds), nullFloat(p.EdgeOver), nullFloat(p.EdgeUnder),
	); err != nil {
		return fmt.Errorf("upsert prediction %d: %w", p.ID, err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	if limit <= 0 {
		limit = 4000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.match_id, p.lambda_home, p.lambda_away, p.p_over_25, p.p_under_25,
			p.over_odds, p.under_odds, p.edge_over, p.edge_under,
			m.match_date, m.home_team, m.away_team, m.league, m.status, m.home_goals, m.away_goals
		FROM predictions p
		JOIN matches m ON m.id = p.match_id
		ORDER BY p.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var matchID sql.NullInt64
		var lh, la, po, pu, oo, uo, eo, eu sql.NullFloat64
		var hg, ag sql.NullInt64
		if err := rows.Scan(&p.ID, &matchID, &lh, &la, &po, &pu, &oo, &uo, &eo, &eu,
			&p.Match.MatchDate, &p.Match.HomeTeam, &p.Match.AwayTeam, &p.Match.League,
			&p.Match.Status, &hg, &ag); err != nil {
			return nil, err
		}
		if matchID.Valid {
			p.MatchID = &matchID.Int64
		}
		p.LambdaHome, p.LambdaAway = floatPtr(lh), floatPtr(la)
		p.POver25, p.PUnder25 = floatPtr(po), floatPtr(pu)
		p.OverOdds, p.UnderOdds = floatPtr(oo), floatPtr(uo)
		p.EdgeOver, p.EdgeUnder = floatPtr(eo), floatPtr(eu)
		p.Match.HomeGoals, p.Match.AwayGoals = intPtr(hg), intPtr(ag)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, approved, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, approved = excluded.approved`,
		p.ID, p.Email, p.Approved, p.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
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

func (s *SQLiteStore) SetApproval(ctx context.Context, id string, approved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET approved = ? WHERE id = ?`, approved, id)
	if err != nil {
		return fmt.Errorf("set approval %s: %w", id, err)
	}
	return requireRow(res, "profile", id)
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	return requireRow(res, "profile", id)
}

func scanSQLiteBet(row rowScanner) (model.Bet, error) {
	var b model.Bet
	var outcome, timing, mode string
	var backOdds, backStake, layOdds, layLiability, commission string
	var createdAt time.Time

	if err := row.Scan(&b.ID, &b.Date, &outcome,
		&backOdds, &backStake, &layOdds, &layLiability, &commission,
		&b.Event, &b.Selection, &b.Sport, &b.Tipster, &b.Sportsbook,
		&timing, &mode, &createdAt); err != nil {
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
	b.CreatedAt = createdAt
	return b, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
