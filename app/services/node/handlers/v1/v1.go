// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"
	"time"

	"github.com/BenjaminLonguechaud/Blockchain/app/services/node/handlers/v1/public"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/events"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/chain"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/database"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/nameservice"
	"github.com/BenjaminLonguechaud/Blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Chain       *chain.Chain
	NS          *nameservice.NameService
	Evts        *events.Events
	Signer      database.Signer
	Workers     int
	MineTimeout time.Duration
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:         cfg.Log,
		Chain:       cfg.Chain,
		NS:          cfg.NS,
		WS:          websocket.Upgrader{},
		Evts:        cfg.Evts,
		Signer:      cfg.Signer,
		Workers:     cfg.Workers,
		MineTimeout: cfg.MineTimeout,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.Validate)
	app.Handle(http.MethodGet, version, "/blocks/:num", pbl.Block)
	app.Handle(http.MethodPost, version, "/blocks/mine", pbl.Mine)
}
