// Package di contains dependency injection tokens for the ledger context.
package di

import (
	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	"github.com/fd1az/contentnft-gateway/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LedgerService = di.NewToken[*app.LedgerService]("ledger.LedgerService")
	Controller    = di.NewToken[*app.Controller]("ledger.Controller")
)

// Private dependency tokens - internal to ledger module
var (
	Codec     = di.NewToken[app.ContentCodec]("ledger:codec")
	Factory   = di.NewToken[app.TransportFactory]("ledger:transportFactory")
	Signer    = di.NewToken[app.Signer]("ledger:signer")
	Emitter   = di.NewToken[*app.Emitter]("ledger:emitter")
	Registrar = di.NewToken[*app.Registrar]("ledger:registrar")
	Submitter = di.NewToken[*app.Submitter]("ledger:submitter")
)

func GetLedgerService(c di.ServiceRegistry) *app.LedgerService {
	return di.GetToken(c, LedgerService)
}

func GetController(c di.ServiceRegistry) *app.Controller {
	return di.GetToken(c, Controller)
}

func GetCodec(c di.ServiceRegistry) app.ContentCodec {
	return di.GetToken(c, Codec)
}

func GetFactory(c di.ServiceRegistry) app.TransportFactory {
	return di.GetToken(c, Factory)
}

func GetSigner(c di.ServiceRegistry) app.Signer {
	return di.GetToken(c, Signer)
}

func GetEmitter(c di.ServiceRegistry) *app.Emitter {
	return di.GetToken(c, Emitter)
}

func GetRegistrar(c di.ServiceRegistry) *app.Registrar {
	return di.GetToken(c, Registrar)
}

func GetSubmitter(c di.ServiceRegistry) *app.Submitter {
	return di.GetToken(c, Submitter)
}
