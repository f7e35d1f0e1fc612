package main

import (
	"context"
	"flag"
	"log"

	"vipauto/internal/migrations"
	"vipauto/pkg/config"
	"vipauto/pkg/database/postgresql"
	applogger "vipauto/pkg/logger"
	"vipauto/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runUsers := flag.Bool("users", false, "Создать или обновить сотрудников мастерской")
	runDemo := flag.Bool("demo", false, "Заменить клиентов и заказ-наряды демонстрационными")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -users -demo)")
	password := flag.String("password", "vipauto", "Пароль, который получат все сотрудники")

	flag.Parse()

	if !*runUsers && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -users -password=secret")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("======================================================")
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	logger, err := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("❌ Не удалось создать логгер: %v", err)
	}

	ctx := context.Background()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if err := migrations.Up(ctx, dbPool); err != nil {
		log.Fatalf("❌ Ошибка миграций: %v", err)
	}

	log.Println("======================================================")

	if *runAll || *runUsers {
		if err := seeders.SeedUsers(ctx, dbPool, *password, logger); err != nil {
			log.Fatalf("❌ Ошибка создания сотрудников: %v", err)
		}
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		if err := seeders.SeedDemoData(ctx, dbPool, logger); err != nil {
			log.Fatalf("❌ Ошибка заполнения демо-данных: %v", err)
		}
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
