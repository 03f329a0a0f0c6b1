package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stockwatch/internal/alert"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrAlertNotFound indicates no alert row matched the given id.
	ErrAlertNotFound = errors.New("storage: alert not found")
)

const alertColumns = `id,
        user_id,
        symbol,
        condition_kind,
        target_value,
        timeframe,
        absolute,
        status,
        is_active,
        channels,
        frequency,
        max_sends,
        cooldown_minutes,
        last_sent,
        send_count,
        start_date,
        end_date,
        snooze_until,
        is_muted,
        triggered_at,
        trigger_count,
        price_at_trigger,
        volume_at_trigger,
        change_at_trigger,
        priority,
        version,
        created_at,
        updated_at`

const (
	listCandidatesSQL = `SELECT ` + alertColumns + `
    FROM alerts
    WHERE symbol = $1
      AND is_active
      AND status = 'active'
      AND (end_date IS NULL OR end_date > $2)
    ORDER BY created_at
    LIMIT $3;`

	listActiveSymbolsSQL = `SELECT DISTINCT symbol
    FROM alerts
    WHERE is_active
      AND status = 'active'
      AND (end_date IS NULL OR end_date > $1)
    ORDER BY symbol;`

	getAlertSQL = `SELECT ` + alertColumns + `
    FROM alerts
    WHERE id = $1;`

	insertAlertSQL = `INSERT INTO alerts (
        id, user_id, symbol, condition_kind, target_value, timeframe, absolute,
        status, is_active, channels, frequency, max_sends, cooldown_minutes,
        last_sent, send_count, start_date, end_date, snooze_until, is_muted,
        triggered_at, trigger_count, price_at_trigger, volume_at_trigger,
        change_at_trigger, priority, version, created_at, updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
        $20,$21,$22,$23,$24,$25,$26,$27,$28
    );`

	commitAlertSQL = `UPDATE alerts
    SET status            = $1,
        is_active         = $2,
        last_sent         = $3,
        send_count        = $4,
        snooze_until      = $5,
        triggered_at      = $6,
        trigger_count     = $7,
        price_at_trigger  = $8,
        volume_at_trigger = $9,
        change_at_trigger = $10,
        updated_at        = $11,
        version           = version + 1
    WHERE id = $12
      AND version = $13;`

	insertTriggerSQL = `INSERT INTO alert_triggers (
        alert_id, user_id, symbol, description, price_at_trigger,
        volume_at_trigger, change_at_trigger, priority, triggered_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	listRecentTriggersSQL = `SELECT
        id, alert_id, user_id, symbol, description, price_at_trigger,
        volume_at_trigger, change_at_trigger, priority, triggered_at, created_at
    FROM alert_triggers
    ORDER BY triggered_at DESC
    LIMIT $1;`

	listTriggersBetweenSQL = `SELECT
        id, alert_id, user_id, symbol, description, price_at_trigger,
        volume_at_trigger, change_at_trigger, priority, triggered_at, created_at
    FROM alert_triggers
    WHERE triggered_at >= $1
      AND triggered_at < $2
    ORDER BY triggered_at;`

	insertNotificationSQL = `INSERT INTO notifications (
        user_id, alert_id, symbol, message, priority
    ) VALUES (
        $1,$2,$3,$4,$5
    );`

	deleteTriggersBeforeSQL = `DELETE FROM alert_triggers WHERE triggered_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// CandidateStore serves the per-symbol batch read the scan loop depends on.
type CandidateStore interface {
	ListCandidates(ctx context.Context, symbol string, now time.Time, limit int) ([]alert.Alert, error)
	ListActiveSymbols(ctx context.Context, now time.Time) ([]string, error)
}

// AlertCommitter performs the conditional writes of alert commit fields. A
// write whose expected version no longer matches fails with
// alert.ErrConcurrentModification and changes nothing.
type AlertCommitter interface {
	CommitAlert(ctx context.Context, a alert.Alert, expectedVersion int64) (alert.Alert, error)
	GetAlert(ctx context.Context, id uuid.UUID) (alert.Alert, error)
}

// TriggerStore records committed triggers for audit and display.
type TriggerStore interface {
	InsertTrigger(ctx context.Context, rec TriggerRecord) (TriggerRecord, error)
	ListRecentTriggers(ctx context.Context, limit int) ([]TriggerRecord, error)
	ListTriggersBetween(ctx context.Context, from, to time.Time) ([]TriggerRecord, error)
	DeleteTriggersBefore(ctx context.Context, olderThan time.Time) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, rec NotificationRecord) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to alerts, trigger history, and notifications.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListCandidates returns the scannable alerts for one symbol: active, armed,
// and inside their scheduling window. The limit caps per-tick load.
func (s *Store) ListCandidates(ctx context.Context, symbol string, now time.Time, limit int) ([]alert.Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listCandidatesSQL, symbol, now, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list candidates: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]alert.Alert, 0, limit)
	for rows.Next() {
		a, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// ListActiveSymbols returns the distinct symbols with at least one scannable alert.
func (s *Store) ListActiveSymbols(ctx context.Context, now time.Time) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveSymbolsSQL, now)
	if queryErr != nil {
		return nil, fmt.Errorf("list active symbols: %w", queryErr)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return symbols, nil
}

// GetAlert fetches one alert by id.
func (s *Store) GetAlert(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return alert.Alert{}, err
	}

	rows, queryErr := pool.Query(ctx, getAlertSQL, id)
	if queryErr != nil {
		return alert.Alert{}, fmt.Errorf("get alert: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return alert.Alert{}, rows.Err()
		}
		return alert.Alert{}, ErrAlertNotFound
	}
	return scanAlert(rows)
}

// InsertAlert persists a newly created alert.
func (s *Store) InsertAlert(ctx context.Context, a alert.Alert) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, insertAlertSQL,
		a.ID,
		a.UserID,
		a.Symbol,
		string(a.Condition.Kind),
		a.Condition.Target.String(),
		a.Condition.Timeframe,
		a.Condition.Absolute,
		string(a.Status),
		a.IsActive,
		channelStrings(a.Channels),
		a.Frequency,
		a.MaxSends,
		a.CooldownMinutes,
		a.LastSent,
		a.SendCount,
		a.StartDate,
		a.EndDate,
		a.SnoozeUntil,
		a.IsMuted,
		a.TriggeredAt,
		a.TriggerCount,
		decimalArg(a.PriceAtTrigger),
		decimalArg(a.VolumeAtTrigger),
		decimalArg(a.ChangeAtTrigger),
		string(a.Priority),
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	); execErr != nil {
		return fmt.Errorf("insert alert: %w", execErr)
	}
	return nil
}

// CommitAlert conditionally writes the commit fields of an alert, guarded by
// the version observed at read time. A zero-row update means another writer
// got there first; the caller sees alert.ErrConcurrentModification and the
// row is untouched.
func (s *Store) CommitAlert(ctx context.Context, a alert.Alert, expectedVersion int64) (alert.Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return alert.Alert{}, err
	}

	cmdTag, execErr := pool.Exec(ctx, commitAlertSQL,
		string(a.Status),
		a.IsActive,
		a.LastSent,
		a.SendCount,
		a.SnoozeUntil,
		a.TriggeredAt,
		a.TriggerCount,
		decimalArg(a.PriceAtTrigger),
		decimalArg(a.VolumeAtTrigger),
		decimalArg(a.ChangeAtTrigger),
		a.UpdatedAt,
		a.ID,
		expectedVersion,
	)
	if execErr != nil {
		return alert.Alert{}, fmt.Errorf("commit alert: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return alert.Alert{}, alert.ErrConcurrentModification
	}

	a.Version = expectedVersion + 1
	return a, nil
}

// InsertTrigger persists a trigger audit row.
func (s *Store) InsertTrigger(ctx context.Context, rec TriggerRecord) (TriggerRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return TriggerRecord{}, err
	}

	row := pool.QueryRow(ctx, insertTriggerSQL,
		rec.AlertID,
		rec.UserID,
		rec.Symbol,
		rec.Description,
		rec.PriceAtTrigger.String(),
		decimalArg(rec.VolumeAtTrigger),
		decimalArg(rec.ChangeAtTrigger),
		rec.Priority,
		rec.TriggeredAt,
	)
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return TriggerRecord{}, fmt.Errorf("insert trigger: %w", scanErr)
	}
	return rec, nil
}

// ListRecentTriggers lists the most recent trigger audit rows.
func (s *Store) ListRecentTriggers(ctx context.Context, limit int) ([]TriggerRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentTriggersSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent triggers: %w", queryErr)
	}
	defer rows.Close()

	return collectTriggers(rows, limit)
}

// ListTriggersBetween lists trigger audit rows within a time window.
func (s *Store) ListTriggersBetween(ctx context.Context, from, to time.Time) ([]TriggerRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listTriggersBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list triggers between: %w", queryErr)
	}
	defer rows.Close()

	return collectTriggers(rows, 0)
}

// DeleteTriggersBefore deletes historical trigger rows.
func (s *Store) DeleteTriggersBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteTriggersBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete triggers before: %w", execErr)
	}
	return nil
}

// InsertNotification persists an in-app notification row.
func (s *Store) InsertNotification(ctx context.Context, rec NotificationRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertNotificationSQL,
		rec.UserID,
		rec.AlertID,
		rec.Symbol,
		rec.Message,
		rec.Priority,
	); execErr != nil {
		return fmt.Errorf("insert notification: %w", execErr)
	}
	return nil
}

func collectTriggers(rows pgx.Rows, sizeHint int) ([]TriggerRecord, error) {
	records := make([]TriggerRecord, 0, sizeHint)
	for rows.Next() {
		var (
			rec       TriggerRecord
			priceStr  string
			volumeStr sql.NullString
			changeStr sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.AlertID,
			&rec.UserID,
			&rec.Symbol,
			&rec.Description,
			&priceStr,
			&volumeStr,
			&changeStr,
			&rec.Priority,
			&rec.TriggeredAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse price at trigger: %w", convErr)
		}
		rec.PriceAtTrigger = price
		if rec.VolumeAtTrigger, convErr = nullDecimal(volumeStr); convErr != nil {
			return nil, fmt.Errorf("parse volume at trigger: %w", convErr)
		}
		if rec.ChangeAtTrigger, convErr = nullDecimal(changeStr); convErr != nil {
			return nil, fmt.Errorf("parse change at trigger: %w", convErr)
		}

		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanAlert(rows pgx.Rows) (alert.Alert, error) {
	var (
		a           alert.Alert
		kind        string
		targetStr   string
		status      string
		channels    []string
		priceStr    sql.NullString
		volumeStr   sql.NullString
		changeStr   sql.NullString
		priority    string
		lastSent    sql.NullTime
		endDate     sql.NullTime
		snoozeUntil sql.NullTime
		triggeredAt sql.NullTime
	)

	if err := rows.Scan(
		&a.ID,
		&a.UserID,
		&a.Symbol,
		&kind,
		&targetStr,
		&a.Condition.Timeframe,
		&a.Condition.Absolute,
		&status,
		&a.IsActive,
		&channels,
		&a.Frequency,
		&a.MaxSends,
		&a.CooldownMinutes,
		&lastSent,
		&a.SendCount,
		&a.StartDate,
		&endDate,
		&snoozeUntil,
		&a.IsMuted,
		&triggeredAt,
		&a.TriggerCount,
		&priceStr,
		&volumeStr,
		&changeStr,
		&priority,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return alert.Alert{}, err
	}

	target, err := decimal.NewFromString(targetStr)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("parse target value: %w", err)
	}

	a.Condition.Kind = alert.ConditionKind(kind)
	a.Condition.Target = target
	a.Status = alert.Status(status)
	a.Priority = alert.Priority(priority)
	a.Channels = alertChannels(channels)

	if lastSent.Valid {
		t := lastSent.Time
		a.LastSent = &t
	}
	if endDate.Valid {
		t := endDate.Time
		a.EndDate = &t
	}
	if snoozeUntil.Valid {
		t := snoozeUntil.Time
		a.SnoozeUntil = &t
	}
	if triggeredAt.Valid {
		t := triggeredAt.Time
		a.TriggeredAt = &t
	}

	if a.PriceAtTrigger, err = nullDecimal(priceStr); err != nil {
		return alert.Alert{}, fmt.Errorf("parse price at trigger: %w", err)
	}
	if a.VolumeAtTrigger, err = nullDecimal(volumeStr); err != nil {
		return alert.Alert{}, fmt.Errorf("parse volume at trigger: %w", err)
	}
	if a.ChangeAtTrigger, err = nullDecimal(changeStr); err != nil {
		return alert.Alert{}, fmt.Errorf("parse change at trigger: %w", err)
	}

	return a, nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func channelStrings(channels []alert.Channel) []string {
	out := make([]string, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}

func alertChannels(channels []string) []alert.Channel {
	out := make([]alert.Channel, len(channels))
	for i, c := range channels {
		out[i] = alert.Channel(c)
	}
	return out
}
