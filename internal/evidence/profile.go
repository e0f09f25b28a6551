// Package evidence renders relational token profiles into the deterministic
// text blocks that feed the retrieval index. Formatting is a pure function of
// the profile: no I/O, no clocks, no map iteration.
package evidence

// TokenProfile is one token row joined with the aggregated statistics of its
// DEX listings, holders, and LP holders. Every rendered field is nullable so
// the formatter does not depend on whether the aggregates came from an inner
// or an outer join.
//
// The db tags match the column aliases produced by the profile query.
type TokenProfile struct {
	// ID is the store-internal row id. It orders profiles and is never rendered.
	ID int64 `db:"id"`

	TokenAddress               *string `db:"token_address"`
	TokenName                  *string `db:"token_name"`
	TokenSymbol                *string `db:"token_symbol"`
	TotalSupply                *string `db:"total_supply"`
	AntiWhaleModifiable        *string `db:"anti_whale_modifiable"`
	BuyTax                     *string `db:"buy_tax"`
	CanTakeBackOwnership       *string `db:"can_take_back_ownership"`
	CannotBuy                  *string `db:"cannot_buy"`
	CannotSellAll              *string `db:"cannot_sell_all"`
	CreatorAddress             *string `db:"creator_address"`
	CreatorBalance             *string `db:"creator_balance"`
	CreatorPercent             *string `db:"creator_percent"`
	ExternalCall               *string `db:"external_call"`
	HiddenOwner                *string `db:"hidden_owner"`
	HolderCount                *string `db:"holder_count"`
	HoneypotWithSameCreator    *string `db:"honeypot_with_same_creator"`
	IsAntiWhale                *string `db:"is_anti_whale"`
	IsBlacklisted              *string `db:"is_blacklisted"`
	IsHoneypot                 *string `db:"is_honeypot"`
	IsInDex                    *string `db:"is_in_dex"`
	IsMintable                 *string `db:"is_mintable"`
	IsOpenSource               *string `db:"is_open_source"`
	IsProxy                    *string `db:"is_proxy"`
	IsWhitelisted              *string `db:"is_whitelisted"`
	LPHolderCount              *string `db:"lp_holder_count"`
	LPTotalSupply              *string `db:"lp_total_supply"`
	OwnerAddress               *string `db:"owner_address"`
	OwnerBalance               *string `db:"owner_balance"`
	OwnerChangeBalance         *string `db:"owner_change_balance"`
	OwnerPercent               *string `db:"owner_percent"`
	PersonalSlippageModifiable *string `db:"personal_slippage_modifiable"`
	Selfdestruct               *string `db:"selfdestruct"`
	SellTax                    *string `db:"sell_tax"`
	SlippageModifiable         *string `db:"slippage_modifiable"`
	TradingCooldown            *string `db:"trading_cooldown"`
	TransferPausable           *string `db:"transfer_pausable"`

	DEX       DEXSummary      `db:"-"`
	Holders   HolderSummary   `db:"-"`
	LPHolders LPHolderSummary `db:"-"`
}

// DEXSummary aggregates the token's DEX listings.
type DEXSummary struct {
	Count          *int64  `db:"num_dexs"`
	LiquidityTypes *string `db:"liquidity_type_list"`
	Names          *string `db:"name_list"`
	Pairs          *string `db:"pair_list"`
	Liquidity      *string `db:"liquidity_sum"`
}

// HolderSummary aggregates the token's top holders.
type HolderSummary struct {
	Count      *int64  `db:"num_holders"`
	Addresses  *string `db:"holder_address_list"`
	Tags       *string `db:"holder_tag_list"`
	Balance    *string `db:"holder_balance_sum"`
	Percent    *string `db:"holder_percent_sum"`
	IsContract *string `db:"sum_holder_is_contract"`
	IsLocked   *string `db:"sum_holder_is_locked"`
}

// LPHolderSummary aggregates the token's liquidity-pool holders.
type LPHolderSummary struct {
	Count      *int64  `db:"num_lp_holders"`
	Addresses  *string `db:"lp_holder_address_list"`
	Tags       *string `db:"lp_holder_tag_list"`
	Balance    *string `db:"lp_holder_balance_sum"`
	Percent    *string `db:"lp_holder_percent_sum"`
	IsContract *string `db:"sum_lp_holder_is_contract"`
	IsLocked   *string `db:"sum_lp_holder_is_locked"`
	Value      *string `db:"sum_lp_value"`
	NFTList    *string `db:"lp_nft_list"`
}

// Address returns the token address, or "" when it is null.
func (p *TokenProfile) Address() string {
	if p == nil || p.TokenAddress == nil {
		return ""
	}
	return *p.TokenAddress
}

// Name returns the token name, or "" when it is null.
func (p *TokenProfile) Name() string {
	if p == nil || p.TokenName == nil {
		return ""
	}
	return *p.TokenName
}
