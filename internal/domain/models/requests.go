package models

// Requests for portfolio HTTP endpoints. Defined in domain for consistency and reuse.

type PricesRequest struct {
	Kind string `query:"kind" json:"kind" default:"spot" validate:"oneof=spot mid vwap max min open"`
}

type CandlesRequest struct {
	Tenure string `query:"tenure" json:"tenure" default:"7D" validate:"oneof=1D 7D 1M 3M 6M 1Y"`
}

type LedgerRequest struct {
	Anchor string `query:"anchor" json:"anchor" validate:"omitempty,numeric"`
	Order  string `query:"order" json:"order" default:"feed" validate:"oneof=feed chronological"`
	Asset  string `query:"asset" json:"asset" validate:"omitempty,max=16,alphanum"`
	Type   string `query:"type" json:"type" default:"all" validate:"oneof=all trade deposit withdrawal transfer margin rollover spend receive settled adjustment staking"`
	Start  string `query:"start" json:"start"`
	End    string `query:"end" json:"end"`
	Ofs    int    `query:"ofs" json:"ofs" validate:"gte=0"`
}
