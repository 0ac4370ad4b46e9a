// Package v1 contains the full set of handler functions and routes
// supported by the v1 rpc api.
package v1

import (
	"net/http"

	"github.com/dRAT3/rad-rpc/app/services/gateway/handlers/v1/rpcgrp"
	"github.com/dRAT3/rad-rpc/business/core/inspect"
	"github.com/dRAT3/rad-rpc/business/core/submit"
	"github.com/dRAT3/rad-rpc/foundation/events"
	"github.com/dRAT3/rad-rpc/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Submit  *submit.Core
	Inspect *inspect.Core
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	rpc := rpcgrp.Handlers{
		Log:     cfg.Log,
		Submit:  cfg.Submit,
		Inspect: cfg.Inspect,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/rpc", rpc.RPC)
	app.Handle(http.MethodGet, version, "/events", rpc.Events)
}
