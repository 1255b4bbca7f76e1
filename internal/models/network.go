package models

import (
	"fmt"
	"strings"
)

// Network identifies an Elements-based chain served by the registry
type Network string

const (
	NetworkLiquid          Network = "liquid"
	NetworkTestnetLiquid   Network = "testnet-liquid"
	NetworkElementsRegtest Network = "elements-regtest"
)

// Kind distinguishes the categories of registry content
type Kind string

const (
	KindAssets Kind = "assets"
	KindIcons  Kind = "icons"
)

// Networks returns every supported network in a stable order
func Networks() []Network {
	return []Network{NetworkLiquid, NetworkTestnetLiquid, NetworkElementsRegtest}
}

// Kinds returns every supported data kind in a stable order
func Kinds() []Kind {
	return []Kind{KindAssets, KindIcons}
}

// ParseNetwork maps a user supplied name to a Network
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	switch n {
	case NetworkLiquid, NetworkTestnetLiquid, NetworkElementsRegtest:
		return n, nil
	}
	return "", fmt.Errorf("unknown network %q", s)
}

// ParseKind maps a user supplied name to a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindAssets, KindIcons:
		return k, nil
	}
	return "", fmt.Errorf("unknown data kind %q", s)
}

// PolicyAsset returns the hex id of the network's native asset
func (n Network) PolicyAsset() string {
	switch n {
	case NetworkLiquid:
		return "6f0279e9ed041c3d710a9f57d0c02928416460c4b722ae3457a11eec381c526d"
	case NetworkTestnetLiquid:
		return "144c654344aa716d6f3abcc1ca90e5641e4e2a7f633bc09fe3baf64585819a49"
	case NetworkElementsRegtest:
		return "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225"
	}
	return ""
}
