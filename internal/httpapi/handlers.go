// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package httpapi

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

func (s *Server) signUp(c fiber.Ctx) error {
	var req SignUpRequest
	if err := s.validator.decode(c.Body(), &req); err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.CreateAccount(ctx, account.NewAccountRequest{
		Email:      req.Email,
		NationalID: req.DNI,
		Name:       req.Name,
		LastName:   req.LastName,
		Password:   req.Password,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) login(c fiber.Ctx) error {
	var req LoginRequest
	if err := s.validator.decode(c.Body(), &req); err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.Authenticate(ctx, req.Email, req.Password)
	return s.respond(c, res, err)
}

func (s *Server) findOneByEmail(c fiber.Ctx) error {
	email, err := requiredQuery(c, "email")
	if err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.LookupByEmail(ctx, email)
	return s.respond(c, res, err)
}

func (s *Server) findOneByDNI(c fiber.Ctx) error {
	dni, err := requiredQuery(c, "DNI")
	if err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.LookupByNationalID(ctx, dni)
	return s.respond(c, res, err)
}

func (s *Server) updateUser(c fiber.Ctx) error {
	email, err := requiredQuery(c, "email")
	if err != nil {
		return s.fail(c, err)
	}
	var req UpdateUserRequest
	if err := s.validator.decode(c.Body(), &req); err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.UpdateProfile(ctx, email, account.ProfileUpdate{
		Email:      req.Email,
		NationalID: req.DNI,
		Name:       req.Name,
		LastName:   req.LastName,
	})
	return s.respond(c, res, err)
}

func (s *Server) forgetPassword(c fiber.Ctx) error {
	var req ForgetPasswordRequest
	if err := s.validator.decode(c.Body(), &req); err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.InitiatePasswordReset(ctx, req.Email)
	return s.respond(c, res, err)
}

func (s *Server) confirmPassword(c fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil || strings.TrimSpace(email) == "" {
		return s.fail(c, oops.Code(CodeRequestInvalid).With("param", "email").Errorf("email path parameter is required"))
	}
	var req ConfirmPasswordRequest
	if err := s.validator.decode(c.Body(), &req); err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.RedeemPasswordReset(ctx, email, req.OTPCode, req.Password)
	return s.respond(c, res, err)
}

func (s *Server) deleteUser(c fiber.Ctx) error {
	email, err := requiredQuery(c, "email")
	if err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.serviceContext(c)
	defer cancel()
	res, err := s.svc.Deactivate(ctx, email)
	return s.respond(c, res, err)
}

// respond writes a service outcome. An unsuccessful Result is a 400.
func (s *Server) respond(c fiber.Ctx, res *account.Result, err error) error {
	if err != nil {
		return s.fail(c, err)
	}
	if !res.Success {
		return c.Status(fiber.StatusBadRequest).JSON(res)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func requiredQuery(c fiber.Ctx, key string) (string, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return "", oops.Code(CodeRequestInvalid).With("param", key).Errorf("query parameter %q is required", key)
	}
	return v, nil
}
