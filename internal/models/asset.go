package models

// IssuanceTxin points at the input that issued an asset
type IssuanceTxin struct {
	Txid string `json:"txid" validate:"required"`
	Vin  uint32 `json:"vin"`
}

// Entity is the domain that vouches for an asset
type Entity struct {
	Domain string `json:"domain"`
}

// AssetEntry represents one asset definition in the registry
type AssetEntry struct {
	AssetID      string         `json:"asset_id" validate:"required"`
	Contract     map[string]any `json:"contract"`
	IssuanceTxin IssuanceTxin   `json:"issuance_txin"`
	IssuerPubkey string         `json:"issuer_pubkey"`
	Name         string         `json:"name" validate:"required"`
	Precision    uint8          `json:"precision" validate:"lte=8"`
	Ticker       *string        `json:"ticker,omitempty"`
	Entity       Entity         `json:"entity"`
	Version      uint8          `json:"version"`
}

// Assets maps asset ids to their definitions
type Assets map[string]AssetEntry

// Icons maps asset ids to base64 encoded PNG images
type Icons map[string]string

// Subset returns the entries whose id is listed in ids. Unknown ids are skipped.
func (a Assets) Subset(ids []string) Assets {
	out := make(Assets, len(ids))
	for _, id := range ids {
		if e, ok := a[id]; ok {
			out[id] = e
		}
	}
	return out
}
