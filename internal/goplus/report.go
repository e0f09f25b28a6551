package goplus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/54b3r/rugcheck-go/internal/profile"
)

// flexString accepts the mix of strings, numbers, booleans, arrays, and
// nulls GoPlus uses for scalar fields and keeps the text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case bytes.Equal(b, []byte("true")):
		*f = "1"
	case bytes.Equal(b, []byte("false")):
		*f = "0"
	case b[0] == '[' || b[0] == '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		if s := buf.String(); s != "[]" && s != "{}" {
			*f = flexString(s)
		} else {
			*f = ""
		}
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return fmt.Errorf("goplus: unexpected scalar %s", b)
		}
		*f = flexString(b)
	}
	return nil
}

type dexEntry struct {
	LiquidityType flexString `json:"liquidity_type"`
	Name          flexString `json:"name"`
	Liquidity     flexString `json:"liquidity"`
	Pair          flexString `json:"pair"`
}

type holderEntry struct {
	Address    flexString `json:"address"`
	Tag        flexString `json:"tag"`
	IsContract flexString `json:"is_contract"`
	Balance    flexString `json:"balance"`
	Percent    flexString `json:"percent"`
	IsLocked   flexString `json:"is_locked"`
}

type lpHolderEntry struct {
	holderEntry
	Value   flexString `json:"value"`
	NFTList flexString `json:"NFT_list"`
}

// report is the nested part of a token report.
type report struct {
	DEX       []dexEntry      `json:"dex"`
	Holders   []holderEntry   `json:"holders"`
	LPHolders []lpHolderEntry `json:"lp_holders"`
}

// toSnapshot maps one token report onto a snapshot. Scalar fields are
// copied by column name; unknown fields are ignored.
func toSnapshot(raw json.RawMessage) (*profile.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("goplus: decode token report: %w", err)
	}
	var nested report
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("goplus: decode token report: %w", err)
	}

	snap := &profile.Snapshot{Fields: make(map[string]string)}
	for _, name := range profile.TokenColumnNames() {
		v, ok := fields[name]
		if !ok {
			continue
		}
		var s flexString
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("goplus: field %s: %w", name, err)
		}
		if s != "" {
			snap.Fields[name] = string(s)
		}
	}

	for _, d := range nested.DEX {
		snap.DEXs = append(snap.DEXs, profile.DEX{
			LiquidityType: string(d.LiquidityType),
			Name:          string(d.Name),
			Liquidity:     string(d.Liquidity),
			Pair:          string(d.Pair),
		})
	}
	for _, h := range nested.Holders {
		snap.Holders = append(snap.Holders, h.toHolder())
	}
	for _, l := range nested.LPHolders {
		snap.LPHolders = append(snap.LPHolders, profile.LPHolder{
			Holder:  l.toHolder(),
			Value:   string(l.Value),
			NFTList: string(l.NFTList),
		})
	}
	return snap, nil
}

func (h holderEntry) toHolder() profile.Holder {
	return profile.Holder{
		Address:    string(h.Address),
		Tag:        string(h.Tag),
		IsContract: string(h.IsContract),
		Balance:    string(h.Balance),
		Percent:    string(h.Percent),
		IsLocked:   string(h.IsLocked),
	}
}
