// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/pkg/errutil"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Code       string   `json:"code"`
	Field      string   `json:"field,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// fail maps err to a status and writes an ErrorResponse.
func (s *Server) fail(c fiber.Ctx, err error) error {
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == CodeRequestInvalid {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message:    err.Error(),
			Code:       CodeRequestInvalid,
			Violations: contextViolations(err),
		})
	}

	kind := account.KindOf(err)
	status, code := statusFor(kind)
	if kind == account.KindInternal {
		if oopsErr, ok := oops.AsOops(err); !ok || oopsErr.Code() != account.CodeInternal {
			errutil.LogErrorContext(c.Context(), s.logger, "request failed", err)
		}
		return c.Status(status).JSON(ErrorResponse{
			Message: "internal error, please check server logs",
			Code:    code,
		})
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: err.Error(),
		Code:    code,
		Field:   account.ConflictField(err),
	})
}

func statusFor(kind account.Kind) (int, string) {
	switch kind {
	case account.KindNotFound:
		return fiber.StatusNotFound, account.CodeNotFound
	case account.KindConflict:
		return fiber.StatusConflict, account.CodeConflict
	case account.KindUnauthorized:
		return fiber.StatusForbidden, account.CodeDisabled
	case account.KindInvalidCredentials:
		return fiber.StatusUnauthorized, account.CodeInvalidCredentials
	case account.KindInvalid:
		return fiber.StatusBadRequest, account.CodeInvalid
	default:
		return fiber.StatusInternalServerError, account.CodeInternal
	}
}

// handleError renders errors that escape the handlers, such as unknown routes and recovered panics.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Message: fe.Message, Code: "HTTP_ERROR"})
	}
	errutil.LogErrorContext(c.Context(), s.logger, "unhandled request error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Message: "internal error, please check server logs",
		Code:    account.CodeInternal,
	})
}

func contextViolations(err error) []string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	v, _ := oopsErr.Context()["violations"].([]string)
	return v
}
