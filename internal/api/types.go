package api

type DetectRequest struct {
	PrefixHex string `json:"prefix_hex"`
	Size      *int64 `json:"size,omitempty"`
}

type Probe struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	Type      string `json:"type"`
	Matched   bool   `json:"matched"`
	Magic     string `json:"magic,omitempty"`
	PrefixHex string `json:"prefix_hex"`
	Size      *int64 `json:"size,omitempty"`
}

type DeleteProbeResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type RuleInfo struct {
	Type     string `json:"type"`
	Magic    string `json:"magic"`
	MagicLen int    `json:"magic_len"`
	SizeMin  *int64 `json:"size_min,omitempty"`
	SizeMax  *int64 `json:"size_max,omitempty"`
}

type RuleList struct {
	Object    string     `json:"object"`
	Tolerance int64      `json:"tolerance"`
	Data      []RuleInfo `json:"data"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}
