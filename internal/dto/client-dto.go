package dto

// ClientDTO - полезная нагрузка addClient/updateClient.
type ClientDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"required,phone"`
	CarModel     string `json:"carModel" validate:"max=200"`
	LicensePlate string `json:"licensePlate" validate:"plate"`
}

// IDDTO - команды, которым нужен только id.
type IDDTO struct {
	ID string `json:"id" validate:"required"`
}

// ToggleFavoriteDTO - если Favorite не передан, флаг инвертируется.
type ToggleFavoriteDTO struct {
	ID       string `json:"id" validate:"required"`
	Favorite *bool  `json:"favorite"`
}

type SearchClientsDTO struct {
	Query string `json:"query"`
}
