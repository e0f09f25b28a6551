package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/54b3r/rugcheck-go/internal/logging"
)

const (
	insertDEXSQL = `INSERT INTO dexs (token_id, liquidity_type, name, liquidity, pair)
VALUES ($1, $2, $3, $4::text::numeric, $5)`

	insertHolderSQL = `INSERT INTO holders (token_id, holder_address, tag, is_contract, balance, percent, is_locked)
VALUES ($1, $2, $3, $4::text::smallint, $5::text::numeric, $6::text::numeric, $7::text::smallint)`

	insertLPHolderSQL = `INSERT INTO lp_holders (token_id, lp_address, tag, is_contract, balance, percent, is_locked, value, nft_list)
VALUES ($1, $2, $3, $4::text::smallint, $5::text::numeric, $6::text::numeric, $7::text::smallint, $8::text::numeric, $9)`
)

// Writer stores snapshots. It is the only component that mutates the store.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter wraps pool. The pool is owned by the caller.
func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// Upsert replaces the stored profile for s.Address in one transaction, so
// readers see either the previous snapshot or the new one, never a mix.
// It returns the token's row id.
func (w *Writer) Upsert(ctx context.Context, s *Snapshot) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %w", ErrDataSource, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var id int64
	if err := tx.QueryRow(ctx, upsertTokenSQL(), s.tokenArgs()...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: upsert token: %w", ErrDataSource, err)
	}

	batch := &pgx.Batch{}
	for _, table := range []string{"dexs", "holders", "lp_holders"} {
		batch.Queue("DELETE FROM "+table+" WHERE token_id = $1", id)
	}
	for _, d := range s.DEXs {
		batch.Queue(insertDEXSQL, id, nullable(d.LiquidityType), nullable(d.Name), nullable(d.Liquidity), nullable(d.Pair))
	}
	for _, h := range s.Holders {
		batch.Queue(insertHolderSQL, id, nullable(h.Address), nullable(h.Tag),
			nullable(h.IsContract), nullable(h.Balance), nullable(h.Percent), nullable(h.IsLocked))
	}
	for _, l := range s.LPHolders {
		batch.Queue(insertLPHolderSQL, id, nullable(l.Address), nullable(l.Tag),
			nullable(l.IsContract), nullable(l.Balance), nullable(l.Percent), nullable(l.IsLocked),
			nullable(l.Value), nullable(l.NFTList))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("%w: write child rows: %w", ErrDataSource, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit tx: %w", ErrDataSource, err)
	}

	logging.FromContext(ctx).Info("profile: snapshot stored",
		slog.String("token_address", s.Address),
		slog.Int64("token_id", id),
		slog.Int("dexs", len(s.DEXs)),
		slog.Int("holders", len(s.Holders)),
		slog.Int("lp_holders", len(s.LPHolders)),
	)
	return id, nil
}
