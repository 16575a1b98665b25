package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DesignParams are the arguments of the design operation.
type DesignParams struct {
	Name               string
	Symbol             string
	ContentType        string
	MediaID            string
	ThumbnailID        string
	TotalSupplyLimit   *big.Int
	Information        []string
	Agreements         []string
	DRM                bool
	PersonaInformation bool
	SecondarySales     bool
	Royalty            []*big.Int
	Deleted            bool
	ContractVersion    *big.Int
}

// MintParams are the arguments of the mint operation.
type MintParams struct {
	To              common.Address
	SpecID          *big.Int
	MediaID         string
	Information     []string
	ContractVersion *big.Int
}

// TransferParams are the arguments of the transfer operation.
type TransferParams struct {
	To       common.Address
	ObjectID *big.Int
}

// TransferFromParams are the arguments of the transferFrom operation.
type TransferFromParams struct {
	From     common.Address
	To       common.Address
	ObjectID *big.Int
}

// DigitalContentSpec is a design as stored by the contract.
type DigitalContentSpec struct {
	SpecID             *big.Int
	Owner              common.Address
	Name               string
	Symbol             string
	ContentType        string
	MediaID            string
	ThumbnailID        string
	TotalSupplyLimit   *big.Int
	Information        []string
	Agreements         []string
	DRM                bool
	PersonaInformation bool
	SecondarySales     bool
	Royalty            []*big.Int
	Deleted            bool
	ContractVersion    *big.Int
}

// DigitalContentObject is a minted object as stored by the contract.
type DigitalContentObject struct {
	ObjectID        *big.Int
	SpecID          *big.Int
	Owner           common.Address
	MediaID         string
	Information     []string
	ContractVersion *big.Int
}

// Query names a read-only ContentNFT contract method.
type Query string

const (
	QueryObjectIndexOf           Query = "objectIndexOf"
	QueryOwnedSpecs              Query = "ownedSpecs"
	QueryGetDigitalContentSpec   Query = "getDigitalContentSpec"
	QueryGetDigitalContentObject Query = "getDigitalContentObject"
	QuerySpecOwnerOf             Query = "specOwnerOf"
	QueryTotalSupplyOf           Query = "totalSupplyOf"
	QueryObjectBalanceOf         Query = "objectBalanceOf"
	QueryOwnedObjectsOf          Query = "ownedObjectsOf"
	QueryGetNumberOfObjects      Query = "getNumberOfObjects"
	QueryGetContractOwner        Query = "getContractOwner"
)
