package common

import (
	"fmt"
	"strings"
)

type TokenContext struct {
	Contract string
}

// ChainContext identifies one network. It is built from configuration once
// per run and never mutated.
type ChainContext struct {
	Name           string
	ChainID        uint64
	RPCURL         string
	RPCEnv         string
	ExplorerURL    string
	ExplorerAPIURL string
	NativeSymbol   string
	NativeDecimals int
	Tokens         []TokenContext
}

func (c ChainContext) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s", c.explorerBase(), address)
}

func (c ChainContext) TokenURL(contract, owner string) string {
	return fmt.Sprintf("%s/token/%s?a=%s", c.explorerBase(), contract, owner)
}

func (c ChainContext) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", c.explorerBase(), hash)
}

func (c ChainContext) explorerBase() string {
	return strings.TrimRight(c.ExplorerURL, "/")
}
