package repositories

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы шаблона LIKE, пользовательский ввод ищется буквально.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
