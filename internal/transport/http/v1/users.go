package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/solkit/solkit/internal/domain"
)

// Login authenticates a wallet signature and records the login.
// POST /v1/users/login
func (h *Handler) Login(c echo.Context) error {
	var req domain.UserAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.PublicKey == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "public_key and signature are required"})
	}

	ok, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, domain.UserAuthResponse{Success: false})
	}
	return c.JSON(http.StatusOK, domain.UserAuthResponse{Success: true})
}

// ProStatus reports the caller's membership tier.
// POST /v1/users/pro-status
func (h *Handler) ProStatus(c echo.Context) error {
	var req domain.ProStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.PublicKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "public_key is required"})
	}

	status, err := h.service.ProStatus(c.Request().Context(), req.PublicKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, status)
}

// UpgradePro validates an on-chain membership payment.
// POST /v1/users/upgrade-pro
func (h *Handler) UpgradePro(c echo.Context) error {
	var req domain.ProUpgradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.PublicKey == "" || req.TransactionSignature == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "public_key and transaction_signature are required"})
	}

	resp, err := h.service.UpgradePro(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// GenerateWallet mints a fresh agent wallet for the caller.
// POST /v1/users/generate-wallet
func (h *Handler) GenerateWallet(c echo.Context) error {
	resp, err := h.service.GenerateWallet()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}
