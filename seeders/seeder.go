package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vipauto/internal/entities"
	"vipauto/internal/repositories"
	"vipauto/pkg/constants"
	"vipauto/pkg/utils"
)

var usersData = []struct {
	Login string
	Name  string
	Role  constants.Role
}{
	{Login: "Chief.Orlov", Name: "Орлов", Role: constants.RoleDirector},
	{Login: "Senior.Vlad", Name: "Владимир Ч.", Role: constants.RoleSeniorMaster},
	{Login: "Master.Vladimir", Name: "Владимир А.", Role: constants.RoleMaster},
	{Login: "Master.Andrey", Name: "Андрей", Role: constants.RoleMaster},
	{Login: "Master.Danila", Name: "Данила", Role: constants.RoleMaster},
	{Login: "Master.Maxim", Name: "Максим", Role: constants.RoleMaster},
	{Login: "Master.Artyom", Name: "Артём", Role: constants.RoleMaster},
}

var clientsData = []entities.Client{
	{ID: "client-1", Name: "Иван Петров", Phone: "+79123456789", CarModel: "Lada Vesta", LicensePlate: "A123BC77"},
	{ID: "client-2", Name: "Сергей Смирнов", Phone: "+79234567890", CarModel: "Toyota Camry", LicensePlate: "B456DE777"},
	{ID: "client-3", Name: "Анна Кузнецова", Phone: "+79345678901", CarModel: "Ford Focus", LicensePlate: "C789FG99"},
}

var ordersData = []entities.Order{
	{ID: "ord-1", MasterName: "Владимир А.", CarModel: "Lada Vesta", LicensePlate: "A123BC77", Description: "Замена масла", Amount: 1500, PaymentType: constants.PaymentCard, ClientID: null.StringFrom("client-1")},
	{ID: "ord-2", MasterName: "Андрей", CarModel: "Toyota Camry", LicensePlate: "B456DE777", Description: "Шиномонтаж", Amount: 3000, PaymentType: constants.PaymentCash, ClientID: null.StringFrom("client-2")},
	{ID: "ord-3", MasterName: "Данила", CarModel: "Ford Focus", LicensePlate: "C789FG99", Description: "Диагностика", Amount: 1000, PaymentType: constants.PaymentTransfer, ClientID: null.StringFrom("client-3")},
}

// SeedUsers создаёт или обновляет сотрудников мастерской. Всем выставляется один пароль.
func SeedUsers(ctx context.Context, db *pgxpool.Pool, password string, logger *zap.Logger) error {
	log.Println("  - Создание сотрудников...")

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	return repositories.NewTxManager(db).RunInTransaction(ctx, func(tx pgx.Tx) error {
		users := repositories.NewUserRepository(db, logger).WithTx(tx)
		for _, u := range usersData {
			user := &entities.User{Login: u.Login, Name: u.Name, Role: u.Role, Password: hash}
			if err := users.UpsertUser(ctx, user); err != nil {
				return fmt.Errorf("сотрудник %s: %w", u.Login, err)
			}
		}
		log.Printf("    - Сотрудников: %d", len(usersData))
		return nil
	})
}

// SeedDemoData заменяет клиентов и заказ-наряды демонстрационным набором.
// Закрытые недели не трогаются, но их заказ-наряды удаляются вместе с остальными.
func SeedDemoData(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	log.Println("  - Заполнение демо-данных...")

	return repositories.NewTxManager(db).RunInTransaction(ctx, func(tx pgx.Tx) error {
		orders := repositories.NewOrderRepository(db, logger).WithTx(tx)
		clients := repositories.NewClientRepository(db, logger).WithTx(tx)

		if _, err := orders.DeleteAllOrders(ctx); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM clients"); err != nil {
			return fmt.Errorf("не удалось очистить клиентов: %w", err)
		}

		for i := range clientsData {
			c := clientsData[i]
			if _, err := clients.InsertClient(ctx, &c); err != nil {
				return fmt.Errorf("клиент %s: %w", c.ID, err)
			}
		}
		for i := range ordersData {
			o := ordersData[i]
			o.Status = constants.OrderStatusNew
			c := clientsData[i]
			o.ClientName, o.ClientPhone = c.Name, c.Phone
			if err := orders.CreateOrder(ctx, &o); err != nil {
				return fmt.Errorf("заказ-наряд %s: %w", o.ID, err)
			}
		}
		log.Printf("    - Клиентов: %d, заказ-нарядов: %d", len(clientsData), len(ordersData))
		return nil
	})
}
