package types

// Token describes an SPL mint that can be traded.
type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// IsZero reports whether no token has been selected.
func (t Token) IsZero() bool {
	return t.Address == ""
}
