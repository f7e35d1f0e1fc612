package dto

import "vipauto/pkg/types"

type LoginDTO struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponseDTO struct {
	Token     string         `json:"token"`
	// ExpiresIn - время жизни токена в секундах.
	ExpiresIn int64          `json:"expiresIn"`
	User      types.Identity `json:"user"`
}
