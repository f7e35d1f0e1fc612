package types

import "vipauto/pkg/constants"

// Identity - сотрудник, от имени которого работает соединение.
// Заполняется из JWT один раз и не меняется до конца жизни соединения.
type Identity struct {
	Login string         `json:"login"`
	Name  string         `json:"name"`
	Role  constants.Role `json:"role"`
}

func (i Identity) IsPrivileged() bool {
	return i.Role.IsPrivileged()
}
