package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/54b3r/rugcheck-go/internal/evidence"
	"github.com/54b3r/rugcheck-go/internal/logging"
)

// DefaultLimit is the number of profiles returned when the caller passes 0.
const DefaultLimit = 2

// profilesQuery aggregates each token's DEX listings, holders, and LP holders
// and joins them to the token row.
//
// The joins are inner joins: a token without at least one DEX row, two holder
// rows, and two LP holder rows is silently excluded. This matches the data the
// service was built on. Switching to outer joins only needs SQL changes here;
// the formatter already treats every aggregate as nullable.
//
// $1 is an optional token address (NULL or '' for none), compared
// case-insensitively. $2 caps the number of rows.
const profilesQuery = `
WITH dexs_group AS (
    SELECT d.token_id,
           count(1)                                   AS num_dexs,
           string_agg(DISTINCT d.liquidity_type, ', ') AS liquidity_type_list,
           string_agg(DISTINCT d.name, ', ')           AS name_list,
           string_agg(DISTINCT d.pair, ', ')           AS pair_list,
           sum(d.liquidity)::text                      AS liquidity_sum
    FROM dexs d
    GROUP BY d.token_id
), holders_group AS (
    SELECT h.token_id,
           count(1)                                    AS num_holders,
           string_agg(DISTINCT h.holder_address, ', ') AS holder_address_list,
           string_agg(DISTINCT h.tag, ', ')            AS holder_tag_list,
           sum(h.balance)::text                        AS holder_balance_sum,
           sum(h.percent)::text                        AS holder_percent_sum,
           sum(h.is_contract)::text                    AS sum_holder_is_contract,
           sum(h.is_locked)::text                      AS sum_holder_is_locked
    FROM holders h
    GROUP BY h.token_id
    HAVING count(*) > 1
), lp_holders_group AS (
    SELECT l.token_id,
           count(1)                                AS num_lp_holders,
           string_agg(DISTINCT l.lp_address, ', ') AS lp_holder_address_list,
           string_agg(DISTINCT l.tag, ', ')        AS lp_holder_tag_list,
           sum(l.balance)::text                    AS lp_holder_balance_sum,
           sum(l.percent)::text                    AS lp_holder_percent_sum,
           sum(l.is_contract)::text                AS sum_lp_holder_is_contract,
           sum(l.is_locked)::text                  AS sum_lp_holder_is_locked,
           sum(l.value)::text                      AS sum_lp_value,
           string_agg(DISTINCT l.nft_list, ', ')   AS lp_nft_list
    FROM lp_holders l
    GROUP BY l.token_id
    HAVING count(*) > 1
)
SELECT t.id,
       t.token_address, t.token_name, t.token_symbol,
       t.total_supply::text                 AS total_supply,
       t.anti_whale_modifiable::text        AS anti_whale_modifiable,
       t.buy_tax::text                      AS buy_tax,
       t.can_take_back_ownership::text      AS can_take_back_ownership,
       t.cannot_buy::text                   AS cannot_buy,
       t.cannot_sell_all::text              AS cannot_sell_all,
       t.creator_address,
       t.creator_balance::text              AS creator_balance,
       t.creator_percent::text              AS creator_percent,
       t.external_call::text                AS external_call,
       t.hidden_owner::text                 AS hidden_owner,
       t.holder_count::text                 AS holder_count,
       t.honeypot_with_same_creator::text   AS honeypot_with_same_creator,
       t.is_anti_whale::text                AS is_anti_whale,
       t.is_blacklisted::text               AS is_blacklisted,
       t.is_honeypot::text                  AS is_honeypot,
       t.is_in_dex::text                    AS is_in_dex,
       t.is_mintable::text                  AS is_mintable,
       t.is_open_source::text               AS is_open_source,
       t.is_proxy::text                     AS is_proxy,
       t.is_whitelisted::text               AS is_whitelisted,
       t.lp_holder_count::text              AS lp_holder_count,
       t.lp_total_supply::text              AS lp_total_supply,
       t.owner_address,
       t.owner_balance::text                AS owner_balance,
       t.owner_change_balance::text         AS owner_change_balance,
       t.owner_percent::text                AS owner_percent,
       t.personal_slippage_modifiable::text AS personal_slippage_modifiable,
       t.selfdestruct::text                 AS selfdestruct,
       t.sell_tax::text                     AS sell_tax,
       t.slippage_modifiable::text          AS slippage_modifiable,
       t.trading_cooldown::text             AS trading_cooldown,
       t.transfer_pausable::text            AS transfer_pausable,
       d.num_dexs, d.liquidity_type_list, d.name_list, d.pair_list, d.liquidity_sum,
       h.num_holders, h.holder_address_list, h.holder_tag_list, h.holder_balance_sum,
       h.holder_percent_sum, h.sum_holder_is_contract, h.sum_holder_is_locked,
       l.num_lp_holders, l.lp_holder_address_list, l.lp_holder_tag_list,
       l.lp_holder_balance_sum, l.lp_holder_percent_sum, l.sum_lp_holder_is_contract,
       l.sum_lp_holder_is_locked, l.sum_lp_value, l.lp_nft_list
FROM tokens t
JOIN dexs_group d       ON d.token_id = t.id
JOIN holders_group h    ON h.token_id = t.id
JOIN lp_holders_group l ON l.token_id = t.id
WHERE coalesce($1::text, '') = '' OR lower(t.token_address) = lower($1::text)
ORDER BY t.id DESC
LIMIT $2
`

// profileRow is the flat shape of one query row. pgx maps the embedded
// structs' db tags onto the selected columns.
type profileRow struct {
	evidence.TokenProfile
	evidence.DEXSummary
	evidence.HolderSummary
	evidence.LPHolderSummary
}

func (r profileRow) toProfile() *evidence.TokenProfile {
	p := r.TokenProfile
	p.DEX = r.DEXSummary
	p.Holders = r.HolderSummary
	p.LPHolders = r.LPHolderSummary
	return &p
}

// PostgresSource runs the profile query against a pgx pool.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource wraps pool. The pool is owned by the caller.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Profiles implements Source. The address is always a bind parameter.
func (s *PostgresSource) Profiles(ctx context.Context, address string, limit int) ([]*evidence.TokenProfile, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.pool.Query(ctx, profilesQuery, address, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query profiles: %w", ErrDataSource, err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		return nil, fmt.Errorf("%w: scan profiles: %w", ErrDataSource, err)
	}

	out := make([]*evidence.TokenProfile, len(scanned))
	for i, r := range scanned {
		out[i] = r.toProfile()
	}

	logging.FromContext(ctx).Debug("profile: profiles loaded",
		slog.Int("count", len(out)),
		slog.Bool("filtered", address != ""),
	)
	return out, nil
}
