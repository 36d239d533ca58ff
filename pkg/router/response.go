package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

var (
	errNotSupportedMethod = errorx.New(errorx.BadRequest, "Not supported method")
	errBadRequest         = errorx.New(errorx.BadRequest, "Cannot bind the request")
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{Code: 0, Data: data}
}

// errorOf maps any error to the errorx it wraps, falling back to
// errorx.Unknown so that internal details never leak to the client.
func errorOf(err error) errorx.Error {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return errx
	}

	return errorx.Unknown
}

func writeResponse(ctx context.Context) {
	var resp response
	if err := xcontext.Error(ctx); err != nil {
		errx := errorOf(err)
		resp = response{Code: int64(errx.Code), Error: errx.Message}
	} else {
		resp = newResponse(xcontext.Response(ctx))
	}

	if err := WriteJson(xcontext.HTTPWriter(ctx), resp); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
	}
}

func WriteJson(w http.ResponseWriter, resp any) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil {
		return err
	}

	return nil
}
