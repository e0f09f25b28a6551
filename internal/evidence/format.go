package evidence

import "strings"

// Placeholder is rendered for null or missing values. The prompt instructs the
// model to disregard it, so the formatter never drops a line.
const Placeholder = "None"

// field is one "name: value" line of a section.
type field struct {
	name  string
	value func(*TokenProfile) *string
}

// section is a labelled, fixed-order list of fields.
type section struct {
	title  string
	fields []field
}

// sections is the complete evidence layout. Order is part of the output
// contract: changing it changes every embedding built from it.
var sections = []section{
	{
		title: "Token",
		fields: []field{
			{"token_address", func(p *TokenProfile) *string { return p.TokenAddress }},
			{"token_name", func(p *TokenProfile) *string { return p.TokenName }},
			{"token_symbol", func(p *TokenProfile) *string { return p.TokenSymbol }},
			{"total_supply", func(p *TokenProfile) *string { return p.TotalSupply }},
			{"anti_whale_modifiable", func(p *TokenProfile) *string { return p.AntiWhaleModifiable }},
			{"buy_tax", func(p *TokenProfile) *string { return p.BuyTax }},
			{"can_take_back_ownership", func(p *TokenProfile) *string { return p.CanTakeBackOwnership }},
			{"cannot_buy", func(p *TokenProfile) *string { return p.CannotBuy }},
			{"cannot_sell_all", func(p *TokenProfile) *string { return p.CannotSellAll }},
			{"creator_address", func(p *TokenProfile) *string { return p.CreatorAddress }},
			{"creator_balance", func(p *TokenProfile) *string { return p.CreatorBalance }},
			{"creator_percent", func(p *TokenProfile) *string { return p.CreatorPercent }},
			{"external_call", func(p *TokenProfile) *string { return p.ExternalCall }},
			{"hidden_owner", func(p *TokenProfile) *string { return p.HiddenOwner }},
			{"holder_count", func(p *TokenProfile) *string { return p.HolderCount }},
			{"honeypot_with_same_creator", func(p *TokenProfile) *string { return p.HoneypotWithSameCreator }},
			{"is_anti_whale", func(p *TokenProfile) *string { return p.IsAntiWhale }},
			{"is_blacklisted", func(p *TokenProfile) *string { return p.IsBlacklisted }},
			{"is_honeypot", func(p *TokenProfile) *string { return p.IsHoneypot }},
			{"is_in_dex", func(p *TokenProfile) *string { return p.IsInDex }},
			{"is_mintable", func(p *TokenProfile) *string { return p.IsMintable }},
			{"is_open_source", func(p *TokenProfile) *string { return p.IsOpenSource }},
			{"is_proxy", func(p *TokenProfile) *string { return p.IsProxy }},
			{"is_whitelisted", func(p *TokenProfile) *string { return p.IsWhitelisted }},
			{"lp_holder_count", func(p *TokenProfile) *string { return p.LPHolderCount }},
			{"lp_total_supply", func(p *TokenProfile) *string { return p.LPTotalSupply }},
			{"owner_address", func(p *TokenProfile) *string { return p.OwnerAddress }},
			{"owner_balance", func(p *TokenProfile) *string { return p.OwnerBalance }},
			{"owner_change_balance", func(p *TokenProfile) *string { return p.OwnerChangeBalance }},
			{"owner_percent", func(p *TokenProfile) *string { return p.OwnerPercent }},
			{"personal_slippage_modifiable", func(p *TokenProfile) *string { return p.PersonalSlippageModifiable }},
			{"selfdestruct", func(p *TokenProfile) *string { return p.Selfdestruct }},
			{"sell_tax", func(p *TokenProfile) *string { return p.SellTax }},
			{"slippage_modifiable", func(p *TokenProfile) *string { return p.SlippageModifiable }},
			{"trading_cooldown", func(p *TokenProfile) *string { return p.TradingCooldown }},
			{"transfer_pausable", func(p *TokenProfile) *string { return p.TransferPausable }},
		},
	},
	{
		title: "DEX",
		fields: []field{
			{"liquidity_type", func(p *TokenProfile) *string { return p.DEX.LiquidityTypes }},
			{"name", func(p *TokenProfile) *string { return p.DEX.Names }},
			{"liquidity", func(p *TokenProfile) *string { return p.DEX.Liquidity }},
			{"pair", func(p *TokenProfile) *string { return p.DEX.Pairs }},
		},
	},
	{
		title: "Holders",
		fields: []field{
			{"holder_address", func(p *TokenProfile) *string { return p.Holders.Addresses }},
			{"tag", func(p *TokenProfile) *string { return p.Holders.Tags }},
			{"is_contract", func(p *TokenProfile) *string { return p.Holders.IsContract }},
			{"balance", func(p *TokenProfile) *string { return p.Holders.Balance }},
			{"percent", func(p *TokenProfile) *string { return p.Holders.Percent }},
			{"is_locked", func(p *TokenProfile) *string { return p.Holders.IsLocked }},
		},
	},
	{
		title: "LP Holders",
		fields: []field{
			{"lp_address", func(p *TokenProfile) *string { return p.LPHolders.Addresses }},
			{"tag", func(p *TokenProfile) *string { return p.LPHolders.Tags }},
			{"value", func(p *TokenProfile) *string { return p.LPHolders.Value }},
			{"is_contract", func(p *TokenProfile) *string { return p.LPHolders.IsContract }},
			{"balance", func(p *TokenProfile) *string { return p.LPHolders.Balance }},
			{"percent", func(p *TokenProfile) *string { return p.LPHolders.Percent }},
			{"nft_list", func(p *TokenProfile) *string { return p.LPHolders.NFTList }},
			{"is_locked", func(p *TokenProfile) *string { return p.LPHolders.IsLocked }},
		},
	},
}

// Format renders p as four labelled sections of "- name: value" lines.
// Null and blank values render as [Placeholder]. A nil profile renders every
// field as a placeholder.
func Format(p *TokenProfile) string {
	if p == nil {
		p = &TokenProfile{}
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.title)
		b.WriteString(":\n")
		for _, f := range s.fields {
			b.WriteString("- ")
			b.WriteString(f.name)
			b.WriteString(": ")
			b.WriteString(render(f.value(p)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Missing returns the "section.field" names that Format rendered as a
// placeholder, in layout order. Callers use it to surface partial evidence.
func Missing(p *TokenProfile) []string {
	if p == nil {
		p = &TokenProfile{}
	}
	var out []string
	for _, s := range sections {
		for _, f := range s.fields {
			if render(f.value(p)) == Placeholder {
				out = append(out, s.title+"."+f.name)
			}
		}
	}
	return out
}

// render flattens v onto a single line so one field never spans two lines.
func render(v *string) string {
	if v == nil {
		return Placeholder
	}
	s := strings.Join(strings.Fields(*v), " ")
	if s == "" {
		return Placeholder
	}
	return s
}
