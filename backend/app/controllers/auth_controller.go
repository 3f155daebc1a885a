package controllers

import (
	"net/http"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/dto"
	jwtutil "fleet-relay/backend/app/jwt"
	"fleet-relay/backend/app/services"
)

type AuthController struct {
	Users  *services.UserService
	Signer *jwtutil.Signer
}

func NewAuthController(users *services.UserService, signer *jwtutil.Signer) *AuthController {
	return &AuthController{Users: users, Signer: signer}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperr.Validation("missing credentials"))
		return
	}
	u, err := c.Users.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := c.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.StatusResponse{Status: dto.StatusError, Message: "token error"})
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token})
}
