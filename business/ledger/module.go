// Package ledger implements the ContentNFT ledger gateway bounded context.
package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	ledgerDI "github.com/fd1az/contentnft-gateway/business/ledger/di"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/business/ledger/infra/ethereum"
	"github.com/fd1az/contentnft-gateway/internal/config"
	"github.com/fd1az/contentnft-gateway/internal/di"
	"github.com/fd1az/contentnft-gateway/internal/health"
	"github.com/fd1az/contentnft-gateway/internal/logger"
	"github.com/fd1az/contentnft-gateway/internal/monolith"
	"github.com/fd1az/contentnft-gateway/internal/ratelimit"
)

// Module implements the ledger bounded context.
type Module struct{}

// RegisterServices registers all ledger services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, ledgerDI.Codec, func(sr di.ServiceRegistry) app.ContentCodec {
		cfg := sr.Get("config").(*config.Config)

		contract, err := ethereum.NewContract(cfg.Ledger.ContractAddressHex())
		if err != nil {
			panic("failed to create contract codec: " + err.Error())
		}
		return contract
	})

	di.RegisterToken(c, ledgerDI.Factory, func(sr di.ServiceRegistry) app.TransportFactory {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		contract := ledgerDI.GetCodec(sr).(*ethereum.Contract)
		return ethereum.NewFactory(contract, cfg.Ledger.MaxMessageSize, log)
	})

	di.RegisterToken(c, ledgerDI.Signer, func(sr di.ServiceRegistry) app.Signer {
		cfg := sr.Get("config").(*config.Config)
		return ethereum.NewSigner(ChainIdentity(cfg.Ledger))
	})

	di.RegisterToken(c, ledgerDI.Emitter, func(sr di.ServiceRegistry) *app.Emitter {
		return app.NewEmitter()
	})

	di.RegisterToken(c, ledgerDI.Registrar, func(sr di.ServiceRegistry) *app.Registrar {
		log := sr.Get("logger").(logger.LoggerInterface)

		registrar, err := app.NewRegistrar(domain.ContentSubscriptions(), ledgerDI.GetEmitter(sr), log)
		if err != nil {
			panic("failed to create registrar: " + err.Error())
		}
		return registrar
	})

	di.RegisterToken(c, ledgerDI.Controller, func(sr di.ServiceRegistry) *app.Controller {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		pair, err := domain.NewEndpointPair(cfg.Ledger.PrimaryURL, cfg.Ledger.SecondaryURL)
		if err != nil {
			panic("invalid ledger endpoints: " + err.Error())
		}

		ctrlCfg := app.DefaultControllerConfig(pair)
		if cfg.Ledger.HealthInterval > 0 {
			ctrlCfg.HealthInterval = cfg.Ledger.HealthInterval
		}
		if cfg.Ledger.ProbeTimeout > 0 {
			ctrlCfg.ProbeTimeout = cfg.Ledger.ProbeTimeout
		}
		if cfg.Ledger.DialTimeout > 0 {
			ctrlCfg.DialTimeout = cfg.Ledger.DialTimeout
		}

		ctrl, err := app.NewController(ctrlCfg,
			ledgerDI.GetFactory(sr),
			ledgerDI.GetRegistrar(sr),
			ledgerDI.GetEmitter(sr),
			log,
		)
		if err != nil {
			panic("failed to create controller: " + err.Error())
		}
		return ctrl
	})

	di.RegisterToken(c, ledgerDI.Submitter, func(sr di.ServiceRegistry) *app.Submitter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := app.DefaultSubmitterConfig()
		if cfg.Ledger.GasLimit > 0 {
			subCfg.GasLimit = cfg.Ledger.GasLimit
		}
		if cfg.Ledger.ConfirmBlockTimeout > 0 {
			subCfg.ConfirmBlockTimeout = cfg.Ledger.ConfirmBlockTimeout
		}
		if cfg.Ledger.ReceiptPollInterval > 0 {
			subCfg.ReceiptPollInterval = cfg.Ledger.ReceiptPollInterval
		}

		sub, err := app.NewSubmitter(ledgerDI.GetController(sr), ledgerDI.GetSigner(sr), subCfg, log)
		if err != nil {
			panic("failed to create submitter: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, ledgerDI.LedgerService, func(sr di.ServiceRegistry) *app.LedgerService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewLedgerService(
			ledgerDI.GetController(sr),
			ledgerDI.GetSubmitter(sr),
			ledgerDI.GetCodec(sr),
			ratelimit.New(cfg.Ledger.QueryRateLimit, cfg.Ledger.QueryBurst),
			log,
		)
		if err != nil {
			panic("failed to create ledger service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup connects to the ledger and arms the health monitor.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := ledgerDI.GetLedgerService(mono.Services())
	ctrl := svc.Controller()

	// A failed first dial is not fatal; the monitor keeps retrying.
	if err := ctrl.Connect(ctx); err != nil {
		log.Error(ctx, "initial ledger connection failed", "error", err)
	}

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("ledger", func(ctx context.Context) health.Check {
			st := svc.Status()
			check := health.Check{
				Healthy: st.Healthy(),
				Details: map[string]any{
					"state":     string(st.State),
					"endpoint":  string(st.ActiveEndpoint),
					"role":      string(st.ActiveRole),
					"failovers": st.Failovers,
				},
			}
			if !check.Healthy {
				check.Message = st.LastError
			}
			return check
		})
	}

	mono.OnClose(ctrl.Close)

	log.Info(ctx, "ledger module started",
		"primary", mono.Config().Ledger.PrimaryURL,
		"secondary", mono.Config().Ledger.Secondary(),
		"chain", describeChain(ChainIdentity(mono.Config().Ledger)),
	)
	return nil
}

// ChainIdentity builds the signing chain from configuration. Only the
// chain id is configurable; the hardfork is validated by config.
func ChainIdentity(cfg config.LedgerConfig) domain.ChainIdentity {
	chain := domain.PrivateChain()
	if cfg.ChainID > 0 {
		chain.ChainID = new(big.Int).SetUint64(cfg.ChainID)
	}
	return chain
}

// describeChain formats the chain for logs.
func describeChain(c domain.ChainIdentity) string {
	return fmt.Sprintf("%s (chain %s, network %d, %s)", c.Name, c.ChainID, c.NetworkID, c.Hardfork)
}
