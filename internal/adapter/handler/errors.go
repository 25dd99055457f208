package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

// errorKinds pairs each domain error with its HTTP status and gRPC code.
// The first match wins.
var errorKinds = []struct {
	err    error
	status int
	code   codes.Code
}{
	{domain.ErrNotFound, http.StatusNotFound, codes.NotFound},
	{domain.ErrNoMatch, http.StatusNotFound, codes.NotFound},
	{domain.ErrAlreadyExists, http.StatusConflict, codes.AlreadyExists},
	{domain.ErrDuplicateRequest, http.StatusConflict, codes.AlreadyExists},
	{domain.ErrInputTooLong, http.StatusBadRequest, codes.InvalidArgument},
	{domain.ErrInvalidInput, http.StatusBadRequest, codes.InvalidArgument},
	{domain.ErrIncomplete, http.StatusBadRequest, codes.InvalidArgument},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, codes.FailedPrecondition},
	{domain.ErrInsufficientStock, http.StatusGone, codes.ResourceExhausted},
	{domain.ErrInvalidOrder, http.StatusInternalServerError, codes.DataLoss},
}

func httpStatus(err error) int {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

func grpcCode(err error) codes.Code {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return codes.Internal
}

// publicMessage hides storage details behind a generic message.
func publicMessage(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return err.Error()
		}
	}
	return "internal error"
}
