package contextkeys

type contextKey string

const (
	// IdentityKey хранит types.Identity аутентифицированного запроса.
	IdentityKey contextKey = "Identity"
)
