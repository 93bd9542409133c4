package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vlecture/vlecture-api/internal/service"
)

// VerificationHandler exposes the email OTP endpoints.
type VerificationHandler struct {
	Verification *service.VerificationService
}

func NewVerificationHandler(v *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{Verification: v}
}

type sendCodeReq struct {
	Email string `json:"email"`
}
type checkCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Send: issue and email a verification code for a not-yet-registered address.
func (h *VerificationHandler) Send(c echo.Context) error {
	var req sendCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Verification.Issue(ctx, req.Email); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "verification code sent"})
}

// Check: validate a candidate code. A correct code is consumed; a wrong one
// leaves the stored code in place so the user can retry.
func (h *VerificationHandler) Check(c echo.Context) error {
	var req checkCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/code required"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Verification.Check(ctx, req.Email, req.Code); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}
