package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"signal_tracker/internal/models"
)

// Queries — низкоуровневый слой работы с таблицей signals.
// Все методы работают внутри переданной транзакции.
type Queries struct{}

// New instance
func New() *Queries {
	return &Queries{}
}

const signalColumns = `id, pair, direction, entry, targets, stop_loss, max_loss,
	status, created_at, completed_at, stopped_at,
	source_chat_id, source_message_id, dest_chat_id, raw_text`

// Insert вставляет сигнал; при совпадении ключа дедупликации (уникальный
// индекс signals_dedupe_idx) строка молча не вставляется, inserted=false.
func (q *Queries) Insert(ctx context.Context, tx pgx.Tx, sig *models.Signal) (inserted bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("signals.Insert: %w", err)
		}
	}()

	var targets []byte
	targets, err = sonic.Marshal(sig.Targets)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO signals (`+signalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (pair, direction, entry, source_message_id) DO NOTHING`,
		sig.ID, sig.Pair, string(sig.Direction), sig.Entry, targets,
		sig.StopLoss, sig.MaxLossPercent, string(sig.Status),
		sig.CreatedAt, sig.CompletedAt, sig.StoppedAt,
		sig.SourceChatID, sig.SourceMessageID, sig.DestChatID, sig.RawText,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExistsDuplicate проверяет ключ дедупликации в окне от since.
func (q *Queries) ExistsDuplicate(ctx context.Context, tx pgx.Tx, sig *models.Signal, since time.Time) (exists bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("signals.ExistsDuplicate: %w", err)
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM signals
			WHERE pair = $1 AND direction = $2 AND entry = $3
			  AND source_message_id = $4 AND created_at > $5
		)`,
		sig.Pair, string(sig.Direction), sig.Entry, sig.SourceMessageID, since,
	).Scan(&exists)
	return exists, err
}

func (q *Queries) Get(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (*models.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanSignal(tx.QueryRow(ctx, query, id))
}

func (q *Queries) Update(ctx context.Context, tx pgx.Tx, sig *models.Signal) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("signals.Update: %w", err)
		}
	}()

	var targets []byte
	targets, err = sonic.Marshal(sig.Targets)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE signals
		SET targets = $2, stop_loss = $3, max_loss = $4, status = $5,
		    completed_at = $6, stopped_at = $7
		WHERE id = $1`,
		sig.ID, targets, sig.StopLoss, sig.MaxLossPercent, string(sig.Status),
		sig.CompletedAt, sig.StoppedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) ListByStatus(ctx context.Context, tx pgx.Tx, statuses ...models.Status) ([]*models.Signal, error) {
	ss := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ss = append(ss, string(s))
	}
	rows, err := tx.Query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE status = ANY($1)
		ORDER BY created_at`,
		ss,
	)
	if err != nil {
		return nil, fmt.Errorf("signals.ListByStatus: %w", err)
	}
	return scanSignals(rows)
}

func (q *Queries) ListByPair(ctx context.Context, tx pgx.Tx, pair string) ([]*models.Signal, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE pair = $1
		ORDER BY created_at`,
		pair,
	)
	if err != nil {
		return nil, fmt.Errorf("signals.ListByPair: %w", err)
	}
	return scanSignals(rows)
}

// ListFinishedSince — закрытые сигналы, чей терминальный таймстамп не раньше since.
func (q *Queries) ListFinishedSince(ctx context.Context, tx pgx.Tx, since time.Time) ([]*models.Signal, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE (status = $1 AND completed_at >= $3)
		   OR (status = $2 AND stopped_at >= $3)
		ORDER BY created_at`,
		string(models.StatusCompleted), string(models.StatusStopped), since,
	)
	if err != nil {
		return nil, fmt.Errorf("signals.ListFinishedSince: %w", err)
	}
	return scanSignals(rows)
}

func (q *Queries) Delete(ctx context.Context, tx pgx.Tx, id string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("signals.Delete: %w", err)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSignal(row pgx.Row) (*models.Signal, error) {
	var (
		sig       models.Signal
		direction string
		status    string
		targets   []byte
	)
	err := row.Scan(
		&sig.ID, &sig.Pair, &direction, &sig.Entry, &targets,
		&sig.StopLoss, &sig.MaxLossPercent, &status,
		&sig.CreatedAt, &sig.CompletedAt, &sig.StoppedAt,
		&sig.SourceChatID, &sig.SourceMessageID, &sig.DestChatID, &sig.RawText,
	)
	if err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(targets, &sig.Targets); err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	sig.Direction = models.Direction(direction)
	sig.Status = models.Status(status)
	return &sig, nil
}

func scanSignals(rows pgx.Rows) ([]*models.Signal, error) {
	defer rows.Close()
	var out []*models.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
