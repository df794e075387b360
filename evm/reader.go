package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/everFinance/mandelseed/schema"
)

// ContractCaller is the part of ethclient.Client the reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader performs exactly one eth_call per Query. No retries; timeouts are the
// transport's and the caller context's.
type Reader struct {
	caller  ContractCaller
	address common.Address
	abi     *abi.ABI
}

func NewReader(caller ContractCaller, address common.Address, artifact []byte) (*Reader, error) {
	contractAbi, err := ParseABI(artifact)
	if err != nil {
		return nil, err
	}
	return &Reader{
		caller:  caller,
		address: address,
		abi:     contractAbi,
	}, nil
}

// Dial connects to rpcUrl and reads through the embedded MandelbrotNFT abi.
func Dial(ctx context.Context, rpcUrl string, address common.Address) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s: %w", rpcUrl, err)
	}
	return NewReader(client, address, DefaultArtifact())
}

func (r *Reader) Address() common.Address {
	return r.address
}

// Query returns the decoded token record. Every failure wraps either
// schema.ErrChainCall or schema.ErrDecode.
func (r *Reader) Query(ctx context.Context, id uint64) (schema.TokenRecord, error) {
	data, err := r.abi.Pack(MethodGetMetadata, new(big.Int).SetUint64(id))
	if err != nil {
		return schema.TokenRecord{}, fmt.Errorf("%w: pack %s: %w", schema.ErrChainCall, MethodGetMetadata, err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &r.address,
		Data: data,
	}, nil)
	if err != nil {
		return schema.TokenRecord{}, fmt.Errorf("%w: %w", schema.ErrChainCall, err)
	}

	// a single tuple output is copied into the first field of the destination struct
	var res struct {
		Token schema.RawToken
	}
	if err := r.abi.UnpackIntoInterface(&res, MethodGetMetadata, out); err != nil {
		return schema.TokenRecord{}, fmt.Errorf("%w: unpack %s: %w", schema.ErrChainCall, MethodGetMetadata, err)
	}

	return DecodeRecord(res.Token)
}
