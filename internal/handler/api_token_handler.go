package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/middleware"
	"github.com/saham-app/saham-backend/internal/service"
)

// APITokenHandler handles API token-related HTTP requests
type APITokenHandler struct {
	apiTokenService *service.APITokenService
	authService     *service.AuthService
}

// NewAPITokenHandler creates a new APITokenHandler
func NewAPITokenHandler(apiTokenService *service.APITokenService, authService *service.AuthService) *APITokenHandler {
	return &APITokenHandler{
		apiTokenService: apiTokenService,
		authService:     authService,
	}
}

// CreateAPITokenRequest represents the create token request body
type CreateAPITokenRequest struct {
	Description string `json:"description"`
}

// CreateAPITokenResponse carries the full token. It is returned exactly once;
// only the hash is stored.
type CreateAPITokenResponse struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	TokenPrefix string `json:"tokenPrefix"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Warning     string `json:"warning"`
}

// CreateAPIToken godoc
// @Summary Create an API token
// @Description Create a new API token for programmatic access (JWT auth only)
// @Tags api-tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAPITokenRequest true "Token creation request"
// @Success 201 {object} CreateAPITokenResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /api-tokens [post]
func (h *APITokenHandler) CreateAPIToken(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.GetUserByAuth0ID(auth0ID)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to get user")
		return NewUnauthorizedError(c, "User not found")
	}

	var req CreateAPITokenRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.Description == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	}
	if len(req.Description) > 255 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 255 characters or less"},
		})
	}

	result, err := h.apiTokenService.Create(c.Request().Context(), user.ID, workspaceID, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAPITokens) {
			return NewValidationError(c, "Maximum number of API tokens reached", nil)
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create API token")
		return NewInternalError(c, "Failed to create API token")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("token_id", result.Token.ID.String()).
		Str("description", req.Description).
		Msg("API token created")

	return c.JSON(http.StatusCreated, CreateAPITokenResponse{
		ID:          result.Token.ID.String(),
		Token:       result.Full,
		TokenPrefix: result.Token.TokenPrefix,
		Description: result.Token.Description,
		CreatedAt:   result.Token.CreatedAt.Format(time.RFC3339),
		Warning:     result.Warning,
	})
}

// GetAPITokens godoc
// @Summary List API tokens
// @Description Get all active API tokens for the authenticated workspace (JWT auth only)
// @Tags api-tokens
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.APIToken
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /api-tokens [get]
func (h *APITokenHandler) GetAPITokens(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	tokens, err := h.apiTokenService.GetByWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get API tokens")
		return NewInternalError(c, "Failed to get API tokens")
	}

	return c.JSON(http.StatusOK, tokens)
}

// RevokeAPIToken godoc
// @Summary Revoke an API token
// @Description Revoke an API token (JWT auth only)
// @Tags api-tokens
// @Produce json
// @Security BearerAuth
// @Param id path string true "Token ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /api-tokens/{id} [delete]
func (h *APITokenHandler) RevokeAPIToken(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid token ID", nil)
	}

	if err := h.apiTokenService.Revoke(c.Request().Context(), workspaceID, tokenID); err != nil {
		if errors.Is(err, domain.ErrAPITokenNotFound) {
			return NewNotFoundError(c, "API token not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("token_id", tokenID.String()).Msg("Failed to revoke API token")
		return NewInternalError(c, "Failed to revoke API token")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("token_id", tokenID.String()).
		Msg("API token revoked")

	return c.NoContent(http.StatusNoContent)
}
