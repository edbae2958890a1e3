package currency

// Chain is a blockchain network. NativeToken, when set, points back to an
// asset whose Chain is this chain.
type Chain struct {
	ID          string
	ChainID     int64
	Name        string
	DisplayName string
	ImageURL    string
	NativeToken *Asset
}

// Label is the name used for display ordering.
func (c *Chain) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}
