// Package ethereum implements the ledger ports on top of go-ethereum.
package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
)

// Contract encodes calls to and decodes results and logs from a
// deployed ContentNFT contract.
type Contract struct {
	address common.Address
	abi     abi.ABI
}

// NewContract parses the ContentNFT interface for the contract at address.
func NewContract(address common.Address) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(contentNFTABI))
	if err != nil {
		return nil, fmt.Errorf("parse contentnft abi: %w", err)
	}
	return &Contract{address: address, abi: parsed}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI exposes the parsed interface.
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

func (c *Contract) EncodeDesign(p domain.DesignParams) ([]byte, error) {
	return c.abi.Pack("design",
		p.Name,
		p.Symbol,
		p.ContentType,
		p.MediaID,
		p.ThumbnailID,
		orZero(p.TotalSupplyLimit),
		nonNilStrings(p.Information),
		nonNilStrings(p.Agreements),
		p.DRM,
		p.PersonaInformation,
		p.SecondarySales,
		nonNilInts(p.Royalty),
		p.Deleted,
		orZero(p.ContractVersion),
	)
}

func (c *Contract) EncodeMint(p domain.MintParams) ([]byte, error) {
	return c.abi.Pack("mint",
		p.To,
		orZero(p.SpecID),
		p.MediaID,
		nonNilStrings(p.Information),
		orZero(p.ContractVersion),
	)
}

func (c *Contract) EncodeTransfer(p domain.TransferParams) ([]byte, error) {
	return c.abi.Pack("transfer", p.To, orZero(p.ObjectID))
}

func (c *Contract) EncodeTransferFrom(p domain.TransferFromParams) ([]byte, error) {
	return c.abi.Pack("transferFrom", p.From, p.To, orZero(p.ObjectID))
}

// EncodeQuery packs a read-only call. Arguments must already carry
// their ABI types (*big.Int for uint256, common.Address for address).
func (c *Contract) EncodeQuery(q domain.Query, args ...any) ([]byte, error) {
	if _, ok := c.abi.Methods[string(q)]; !ok {
		return nil, fmt.Errorf("unknown query %q", q)
	}
	return c.abi.Pack(string(q), args...)
}

// DecodeQuery unpacks the result of q into out. Spec and object
// queries decode into their domain types; everything else decodes into
// a pointer of the single output's type.
func (c *Contract) DecodeQuery(q domain.Query, data []byte, out any) error {
	switch q {
	case domain.QueryGetDigitalContentSpec:
		dst, ok := out.(*domain.DigitalContentSpec)
		if !ok {
			return fmt.Errorf("%s: want *domain.DigitalContentSpec, got %T", q, out)
		}
		var res specOutput
		if err := c.abi.UnpackIntoInterface(&res, string(q), data); err != nil {
			return err
		}
		*dst = res.toDomain()
		return nil

	case domain.QueryGetDigitalContentObject:
		dst, ok := out.(*domain.DigitalContentObject)
		if !ok {
			return fmt.Errorf("%s: want *domain.DigitalContentObject, got %T", q, out)
		}
		var res objectOutput
		if err := c.abi.UnpackIntoInterface(&res, string(q), data); err != nil {
			return err
		}
		*dst = res.toDomain()
		return nil
	}

	return c.abi.UnpackIntoInterface(out, string(q), data)
}

// EventID returns the topic hash of a contract event.
func (c *Contract) EventID(name string) (common.Hash, error) {
	ev, ok := c.abi.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown event %q", name)
	}
	return ev.ID, nil
}

// DecodeLog turns a log of the named event into a RawEvent carrying
// both indexed and non-indexed arguments.
func (c *Contract) DecodeLog(name string, log types.Log) (domain.RawEvent, error) {
	ev, ok := c.abi.Events[name]
	if !ok {
		return domain.RawEvent{}, fmt.Errorf("unknown event %q", name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return domain.RawEvent{}, fmt.Errorf("log is not a %s event", name)
	}

	fields := make(map[string]any, len(ev.Inputs))
	if len(log.Data) > 0 {
		if err := c.abi.UnpackIntoMap(fields, name, log.Data); err != nil {
			return domain.RawEvent{}, fmt.Errorf("unpack %s data: %w", name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return domain.RawEvent{}, fmt.Errorf("parse %s topics: %w", name, err)
	}

	return domain.RawEvent{
		RemoteName:  name,
		Fields:      fields,
		Contract:    log.Address,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		LogIndex:    log.Index,
		Removed:     log.Removed,
	}, nil
}

// specOutput mirrors the getDigitalContentSpec outputs. Field names
// follow the ABI output names.
type specOutput struct {
	SpecId             *big.Int
	Owner              common.Address
	Name               string
	Symbol             string
	ContentType        string
	MediaId            string
	ThumbnailId        string
	TotalSupplyLimit   *big.Int
	Information        []string
	Agreements         []string
	Drm                bool
	PersonaInformation bool
	SecondarySales     bool
	Royalty            []*big.Int
	Deleted            bool
	ContractVersion    *big.Int
}

func (s specOutput) toDomain() domain.DigitalContentSpec {
	return domain.DigitalContentSpec{
		SpecID:             s.SpecId,
		Owner:              s.Owner,
		Name:               s.Name,
		Symbol:             s.Symbol,
		ContentType:        s.ContentType,
		MediaID:            s.MediaId,
		ThumbnailID:        s.ThumbnailId,
		TotalSupplyLimit:   s.TotalSupplyLimit,
		Information:        s.Information,
		Agreements:         s.Agreements,
		DRM:                s.Drm,
		PersonaInformation: s.PersonaInformation,
		SecondarySales:     s.SecondarySales,
		Royalty:            s.Royalty,
		Deleted:            s.Deleted,
		ContractVersion:    s.ContractVersion,
	}
}

type objectOutput struct {
	ObjectId        *big.Int
	SpecId          *big.Int
	Owner           common.Address
	MediaId         string
	Information     []string
	ContractVersion *big.Int
}

func (o objectOutput) toDomain() domain.DigitalContentObject {
	return domain.DigitalContentObject{
		ObjectID:        o.ObjectId,
		SpecID:          o.SpecId,
		Owner:           o.Owner,
		MediaID:         o.MediaId,
		Information:     o.Information,
		ContractVersion: o.ContractVersion,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilInts(v []*big.Int) []*big.Int {
	if v == nil {
		return []*big.Int{}
	}
	return v
}
