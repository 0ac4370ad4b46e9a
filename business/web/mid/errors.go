package mid

import (
	"context"
	"net/http"

	"github.com/dRAT3/rad-rpc/business/web/errs"
	"github.com/dRAT3/rad-rpc/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform
// way. Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value, request the service
			// to be shutdown gracefully.
			v, err := web.GetValues(ctx)
			if err != nil {
				return err
			}

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", v.TraceID, "message", err)

				// Build out the error response. The request id is not
				// recoverable at this point so it is reported as null.
				var rpcErr web.RPCError
				switch {
				case errs.IsTrusted(err):
					te := errs.GetTrusted(err)
					rpcErr = web.RPCError{
						Code:    te.Code,
						Message: te.Error(),
						Data:    te.Data,
					}

				default:
					rpcErr = web.RPCError{
						Code:    errs.CodeUnknown,
						Message: http.StatusText(http.StatusInternalServerError),
					}
				}

				// Respond with the error back to the client.
				if err := web.RespondRPCError(ctx, w, nil, rpcErr); err != nil {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}
