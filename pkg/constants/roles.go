package constants

import "fmt"

// Role - закрытый список ролей сотрудников. Проверки прав строятся
// только через IsPrivileged/IsMechanic, а не через сравнение строк.
type Role string

const (
	RoleDirector     Role = "DIRECTOR"
	RoleSeniorMaster Role = "SENIOR_MASTER"
	RoleMaster       Role = "MASTER"
)

var knownRoles = map[Role]struct{}{
	RoleDirector:     {},
	RoleSeniorMaster: {},
	RoleMaster:       {},
}

// ParseRole возвращает ошибку для ролей вне перечисления.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("неизвестная роль: %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// IsPrivileged - директор и старший мастер видят все заказы и управляют неделей.
func (r Role) IsPrivileged() bool {
	return r == RoleDirector || r == RoleSeniorMaster
}

// IsMechanic - роли, которые выполняют заказ-наряды и попадают в список мастеров.
func (r Role) IsMechanic() bool {
	return r == RoleSeniorMaster || r == RoleMaster
}
