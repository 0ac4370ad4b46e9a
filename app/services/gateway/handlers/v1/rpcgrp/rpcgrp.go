// Package rpcgrp maintains the group of handlers for the JSON-RPC surface:
// the run and show methods plus the websocket event feed.
package rpcgrp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dRAT3/rad-rpc/business/core/inspect"
	"github.com/dRAT3/rad-rpc/business/core/submit"
	"github.com/dRAT3/rad-rpc/business/web/errs"
	"github.com/dRAT3/rad-rpc/foundation/events"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of rpc endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Submit  *submit.Core
	Inspect *inspect.Core
	WS      websocket.Upgrader
	Evts    *events.Events
}

// RPC decodes a JSON-RPC request envelope, dispatches the method, and
// writes the response envelope. Method level failures are answered in the
// envelope; only transport level problems propagate as handler errors.
func (h Handlers) RPC(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	req, err := web.DecodeRPC(r)
	if err != nil {
		return web.RespondRPCError(ctx, w, nil, web.RPCError{
			Code:    errs.CodeParse,
			Message: "can't parse request",
		})
	}

	var result any
	var rpcErr *web.RPCError

	switch req.Method {
	case "run":
		result, rpcErr = h.run(ctx, req)

	case "show":
		result, rpcErr = h.show(ctx, req)

	default:
		rpcErr = &web.RPCError{
			Code:    errs.CodeMethodNotFound,
			Message: "method not found",
		}
	}

	if rpcErr != nil {
		return web.RespondRPCError(ctx, w, req.ID, *rpcErr)
	}

	return web.RespondRPC(ctx, w, req.ID, result)
}

// run submits a manifest for execution.
func (h Handlers) run(ctx context.Context, req web.RPCRequest) (any, *web.RPCError) {
	var params runParams
	if err := web.ParseParams(req.Params, &params); err != nil {
		return nil, &web.RPCError{Code: errs.CodeParse, Message: "can't parse parameters"}
	}

	result, err := h.Submit.Run(ctx, params.Manifest, params.Signers)
	if err != nil {
		return nil, submitError(err)
	}

	return toRunResult(result), nil
}

// show inspects the materialized state of a deployed entity. Only package
// and component addresses are inspectable.
func (h Handlers) show(ctx context.Context, req web.RPCRequest) (any, *web.RPCError) {
	var params showParams
	if err := web.ParseParams(req.Params, &params); err != nil {
		return nil, &web.RPCError{Code: errs.CodeParse, Message: "can't parse parameters"}
	}

	addr, err := address.Parse(params.Address)
	if err != nil {
		return nil, &web.RPCError{Code: errs.CodeParse, Message: "can't parse address"}
	}

	switch addr.Kind() {
	case address.KindPackage:
		info, err := h.Inspect.Package(ctx, addr)
		if err != nil {
			return nil, inspectError(err, nil)
		}
		return packageResult{Bytes: info.Bytes}, nil

	case address.KindComponent:
		snap, err := h.Inspect.Component(ctx, addr)
		if err != nil {
			return nil, inspectError(err, &snap)
		}
		return toSnapshotResult(snap), nil
	}

	return nil, &web.RPCError{Code: errs.CodeParse, Message: "address is not a package or component"}
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return err
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return errs.NewTrusted(err, errs.CodeInternal)
	}
	defer c.Close()

	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Subscribe(v.TraceID)
	defer h.Evts.Unsubscribe(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// submitError maps the submission error variants onto their stable codes.
func submitError(err error) *web.RPCError {
	switch {
	case errors.Is(err, submit.ErrKeyParse):
		return &web.RPCError{Code: errs.CodeKeyParse, Message: "can't parse signer key"}

	case errors.Is(err, submit.ErrCompile):
		return &web.RPCError{Code: errs.CodeCompile, Message: "transaction compile error"}

	case errors.Is(err, submit.ErrExecution):
		return &web.RPCError{Code: errs.CodeExecution, Message: "transaction execution error"}

	case errors.Is(err, submit.ErrRejected):
		return &web.RPCError{Code: errs.CodeRejected, Message: "transaction validation error"}
	}

	return &web.RPCError{Code: errs.CodeUnknown, Message: "internal error"}
}

// inspectError maps the inspection error variants onto their stable codes.
// A state decode failure still reports the already discovered metadata.
func inspectError(err error, snap *inspect.Snapshot) *web.RPCError {
	switch {
	case errors.Is(err, inspect.ErrNotFound):
		return &web.RPCError{Code: errs.CodeNotFound, Message: "not found"}

	case errors.Is(err, inspect.ErrStateDecode):
		rpcErr := web.RPCError{Code: errs.CodeInternal, Message: "state validation error"}
		if snap != nil {
			rpcErr.Data = snapshotMetadata{Package: snap.Package, Blueprint: snap.Blueprint}
		}
		return &rpcErr
	}

	return &web.RPCError{Code: errs.CodeUnknown, Message: "internal error"}
}
