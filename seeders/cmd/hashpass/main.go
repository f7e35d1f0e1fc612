package main

import (
	"flag"
	"fmt"
	"log"

	"vipauto/pkg/utils"
)

// Печатает bcrypt-хеш пароля для ручного обновления таблицы users.
func main() {
	password := flag.String("password", "", "Пароль для хеширования")
	flag.Parse()

	if *password == "" {
		log.Fatal("Укажите пароль: -password=...")
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Ошибка при генерации хеша: %v", err)
	}
	fmt.Println(hashed)
}
