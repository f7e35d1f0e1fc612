package entities

import (
	"time"

	"vipauto/pkg/constants"
	"vipauto/pkg/types"
)

type User struct {
	Login     string         `json:"login"`
	Name      string         `json:"name"`
	Role      constants.Role `json:"role"`
	Password  string         `json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (u *User) Identity() types.Identity {
	return types.Identity{Login: u.Login, Name: u.Name, Role: u.Role}
}
