package controllers

import (
	"net/http"

	"fleet-relay/backend/app/dto"
	"fleet-relay/backend/app/services"
)

type AdminController struct{ Users *services.UserService }

func NewAdminController(users *services.UserService) *AdminController {
	return &AdminController{Users: users}
}

func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Users.CreateUser(r.Context(), req.Username, req.Password, req.Role); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "User created.")
}
