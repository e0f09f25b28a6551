package profile

import (
	"fmt"
	"strings"
)

// column is a tokens-table column and the SQL type its text value is cast to.
type column struct {
	name string
	cast string
}

// tokenColumns lists the tokens-table columns a Snapshot may populate, in
// insert order.
var tokenColumns = []column{
	{"token_name", "text"},
	{"token_symbol", "text"},
	{"total_supply", "numeric"},
	{"anti_whale_modifiable", "smallint"},
	{"buy_tax", "numeric"},
	{"can_take_back_ownership", "smallint"},
	{"cannot_buy", "smallint"},
	{"cannot_sell_all", "smallint"},
	{"creator_address", "text"},
	{"creator_balance", "numeric"},
	{"creator_percent", "numeric"},
	{"external_call", "smallint"},
	{"hidden_owner", "smallint"},
	{"holder_count", "bigint"},
	{"honeypot_with_same_creator", "smallint"},
	{"is_anti_whale", "smallint"},
	{"is_blacklisted", "smallint"},
	{"is_honeypot", "smallint"},
	{"is_in_dex", "smallint"},
	{"is_mintable", "smallint"},
	{"is_open_source", "smallint"},
	{"is_proxy", "smallint"},
	{"is_whitelisted", "smallint"},
	{"lp_holder_count", "bigint"},
	{"lp_total_supply", "numeric"},
	{"owner_address", "text"},
	{"owner_balance", "numeric"},
	{"owner_change_balance", "smallint"},
	{"owner_percent", "numeric"},
	{"personal_slippage_modifiable", "smallint"},
	{"selfdestruct", "smallint"},
	{"sell_tax", "numeric"},
	{"slippage_modifiable", "smallint"},
	{"trading_cooldown", "smallint"},
	{"transfer_pausable", "smallint"},
}

// Snapshot is the complete security picture of one token at one point in
// time. Values are kept as the text the upstream API returned; empty strings
// are stored as NULL.
type Snapshot struct {
	// Address is the token contract address.
	Address string
	// ChainID identifies the chain the token lives on.
	ChainID string
	// Fields holds tokens-table values keyed by column name. Unknown keys
	// are ignored.
	Fields map[string]string

	DEXs      []DEX
	Holders   []Holder
	LPHolders []LPHolder
}

// DEX is one DEX listing of a token.
type DEX struct {
	LiquidityType string
	Name          string
	Liquidity     string
	Pair          string
}

// Holder is one of a token's top holders.
type Holder struct {
	Address    string
	Tag        string
	IsContract string
	Balance    string
	Percent    string
	IsLocked   string
}

// LPHolder is one of a token's liquidity-pool holders.
type LPHolder struct {
	Holder
	Value   string
	NFTList string
}

// Validate checks the fields every write needs.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("profile: snapshot has no token address")
	}
	return nil
}

// nullable maps blank values to NULL.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// upsertTokenSQL builds the tokens upsert. Parameters are $1 address,
// $2 chain id, then one per tokenColumns entry.
func upsertTokenSQL() string {
	cols := []string{"token_address", "chain_id"}
	vals := []string{"$1", "$2"}
	sets := []string{"chain_id = EXCLUDED.chain_id", "updated_at = now()"}
	for i, c := range tokenColumns {
		cols = append(cols, c.name)
		vals = append(vals, fmt.Sprintf("$%d::text::%s", i+3, c.cast))
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
	}
	return fmt.Sprintf(
		"INSERT INTO tokens (%s) VALUES (%s) ON CONFLICT (token_address) DO UPDATE SET %s RETURNING id",
		strings.Join(cols, ", "), strings.Join(vals, ", "), strings.Join(sets, ", "),
	)
}

// tokenArgs returns the upsert arguments for s in parameter order.
func (s *Snapshot) tokenArgs() []any {
	args := []any{strings.ToLower(strings.TrimSpace(s.Address)), nullable(s.ChainID)}
	for _, c := range tokenColumns {
		args = append(args, nullable(s.Fields[c.name]))
	}
	return args
}

// TokenColumnNames returns the tokens-table columns a Snapshot may populate.
func TokenColumnNames() []string {
	out := make([]string, len(tokenColumns))
	for i, c := range tokenColumns {
		out[i] = c.name
	}
	return out
}
