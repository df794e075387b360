package evm

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/tidwall/gjson"
)

const MethodGetMetadata = "getMetadata"

//go:embed resources/MandelbrotNFT.json
var defaultArtifact []byte

// DefaultArtifact returns the embedded MandelbrotNFT build artifact.
func DefaultArtifact() []byte {
	return defaultArtifact
}

// ParseABI accepts either a hardhat/truffle artifact with an "abi" field or a bare abi array.
func ParseABI(artifact []byte) (*abi.ABI, error) {
	if !gjson.ValidBytes(artifact) {
		return nil, errors.New("invalid contract artifact json")
	}
	raw := gjson.ParseBytes(artifact)
	if !raw.IsArray() {
		raw = raw.Get("abi")
	}
	if !raw.Exists() || !raw.IsArray() {
		return nil, errors.New("contract artifact has no abi")
	}

	result, err := abi.JSON(strings.NewReader(raw.Raw))
	if err != nil {
		return nil, err
	}
	if _, ok := result.Methods[MethodGetMetadata]; !ok {
		return nil, fmt.Errorf("contract abi has no %s method", MethodGetMetadata)
	}
	return &result, nil
}
