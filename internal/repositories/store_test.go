package repositories

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vipauto/internal/entities"
	"vipauto/internal/migrations"
	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/utils"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и применяет миграции.
// Без переменной интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		var err error
		testPool, err = pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
		if err := migrations.Up(context.Background(), testPool); err != nil {
			log.Fatalf("Не удалось применить миграции: %v", err)
		}
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE search_history, orders, weekly_reports, clients, users`)
	require.NoError(t, err, "Не удалось очистить таблицы")
	return NewStore(testPool, zap.NewNop())
}

func newOrder(id, master string, amount float64) *entities.Order {
	return &entities.Order{
		ID:          id,
		MasterName:  master,
		CarModel:    "Lada Vesta",
		Amount:      amount,
		PaymentType: constants.PaymentCash,
		Status:      constants.OrderStatusNew,
	}
}

func TestStore_Integration_AddOrderReusesClientByPhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client := &entities.Client{ID: "client-1", Name: "Иван", Phone: "+79991234567"}
	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-1", "Андрей", 1000), client))

	again := &entities.Client{ID: "client-2", Name: "Иван Петров", Phone: "+79991234567"}
	second := newOrder("ord-2", "Андрей", 2000)
	require.NoError(t, store.AddOrderWithClient(ctx, second, again))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "client-1", snap.Clients[0].ID)
	assert.Equal(t, "Иван", snap.Clients[0].Name)

	for _, o := range snap.OpenOrders {
		assert.Equal(t, "client-1", o.ClientID.String)
	}
	assert.Equal(t, "client-1", second.ClientID.String)
}

func TestStore_Integration_UpdateOrderRebindsClient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order := newOrder("ord-1", "Андрей", 1000)
	order.ClientPhone = "+79991234567"
	require.NoError(t, store.AddOrderWithClient(ctx, order, &entities.Client{ID: "client-1", Name: "Иван", Phone: "+79991234567"}))

	order.ClientPhone = "+79110001122"
	order.ClientID.Valid = false
	require.NoError(t, store.UpdateOrderWithClient(ctx, order, &entities.Client{ID: "client-2", Name: "Пётр", Phone: "+79110001122"}))

	got, err := store.FindOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "client-2", got.ClientID.String)
	assert.Equal(t, "+79110001122", got.ClientPhone)

	order.ClientPhone = "+79991234567"
	require.NoError(t, store.UpdateOrderWithClient(ctx, order, &entities.Client{ID: "client-3", Name: "Иван", Phone: "+79991234567"}))
	got, err = store.FindOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", got.ClientID.String, "существующий клиент переиспользуется")

	order.ClientPhone = ""
	order.ClientID.Valid = false
	require.NoError(t, store.UpdateOrderWithClient(ctx, order, nil))
	got, err = store.FindOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.False(t, got.ClientID.Valid)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Clients, 2)
}

func TestStore_Integration_ConcurrentAddOrderConvergesOnOneClient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &entities.Client{ID: "client-" + string(rune('a'+i)), Name: "Клиент", Phone: "+79990000000"}
			errs[i] = store.AddOrderWithClient(ctx, newOrder("ord-"+string(rune('a'+i)), "Андрей", 100), c)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	clients, err := store.SearchClients(ctx, "9990000000", 10)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestStore_Integration_SearchClientsByPhoneAsTyped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const typed = "8 (999) 123-45-67"
	client := &entities.Client{ID: "client-1", Name: "Иван", Phone: utils.NormalizePhone(typed)}
	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-1", "Андрей", 1000), client))

	for _, q := range []string{typed, "89991234567", "999 123", "9991234567", "+7 999"} {
		found, err := store.SearchClients(ctx, q, 10)
		require.NoError(t, err)
		assert.Len(t, found, 1, q)
	}

	found, err := store.SearchClients(ctx, "8 (111) 000", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStore_Integration_CloseWeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-1", "Андрей", 1000), nil))
	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-2", "Данила", 500), nil))

	report := &entities.WeeklyReport{WeekID: "week-1", SalaryReport: []byte(`{"Андрей":400}`)}
	closed, err := store.CloseWeek(ctx, report)
	require.NoError(t, err)
	assert.EqualValues(t, 2, closed)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.OpenOrders)

	rep, orders, err := store.FindWeek(ctx, "week-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Андрей":400}`, string(rep.SalaryReport))
	assert.Len(t, orders, 2)
}

func TestStore_Integration_CloseWeekWithoutOpenOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CloseWeek(ctx, &entities.WeeklyReport{WeekID: "week-empty"})
	assert.ErrorIs(t, err, apperrors.ErrNothingToDo)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Reports)
}

func TestStore_Integration_CloseWeekIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-1", "Андрей", 1000), nil))

	boom := errors.New("сбой после вставки отчёта")
	_, err := store.closeWeek(ctx, &entities.WeeklyReport{WeekID: "week-fail"}, func() error { return boom })
	require.ErrorIs(t, err, boom)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Reports, "отчёт не должен сохраниться")
	require.Len(t, snap.OpenOrders, 1, "заказ-наряд должен остаться открытым")
	assert.False(t, snap.OpenOrders[0].WeekID.Valid)
}

func TestStore_Integration_ClearData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-1", "Андрей", 1000), nil))
	_, err := store.CloseWeek(ctx, &entities.WeeklyReport{WeekID: "week-1"})
	require.NoError(t, err)
	require.NoError(t, store.AddOrderWithClient(ctx, newOrder("ord-2", "Андрей", 300), nil))

	require.NoError(t, store.ClearData(ctx))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.AllOrders)
	assert.Empty(t, snap.Reports)
}

func TestStore_Integration_Clients(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.AddClient(ctx, &entities.Client{ID: "client-1", Name: "Пётр", Phone: "+79001112233"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.AddClient(ctx, &entities.Client{ID: "client-2", Name: "Пётр 2", Phone: "+79001112233"})
	require.NoError(t, err)
	assert.False(t, inserted, "повторный телефон не создаёт клиента")

	_, err = store.AddClient(ctx, &entities.Client{ID: "client-3", Name: "Ольга", Phone: "+79005556677"})
	require.NoError(t, err)

	err = store.UpdateClient(ctx, &entities.Client{ID: "client-3", Name: "Ольга", Phone: "+79001112233"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	fav, err := store.ToggleFavoriteClient(ctx, "client-1", nil)
	require.NoError(t, err)
	assert.True(t, fav)
	off := false
	fav, err = store.ToggleFavoriteClient(ctx, "client-1", &off)
	require.NoError(t, err)
	assert.False(t, fav)

	found, err := store.SearchClients(ctx, "Пётр", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "client-1", found[0].ID)

	found, err = store.SearchClients(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found, "спецсимволы LIKE ищутся буквально")

	require.NoError(t, store.DeleteClient(ctx, "client-1"))
	assert.ErrorIs(t, store.DeleteClient(ctx, "client-1"), apperrors.ErrNotFound)
}

func TestStore_Integration_OrdersAndSearchHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order := newOrder("ord-1", "Андрей", 1500.5)
	require.NoError(t, store.AddOrderWithClient(ctx, order, nil))

	order.Description = "Замена масла"
	order.Amount = 2000
	require.NoError(t, store.UpdateOrderWithClient(ctx, order, nil))
	require.NoError(t, store.UpdateOrderStatus(ctx, "ord-1", constants.OrderStatusDone))

	got, err := store.FindOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "Замена масла", got.Description)
	assert.Equal(t, 2000.0, got.Amount)
	assert.Equal(t, constants.OrderStatusDone, got.Status)
	assert.False(t, got.ClientID.Valid)

	require.NoError(t, store.DeleteOrder(ctx, "ord-1"))
	_, err = store.FindOrder(ctx, "ord-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, store.UpdateOrderStatus(ctx, "ord-1", "new"), apperrors.ErrNotFound)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.AddSearchQuery(ctx, &entities.SearchHistoryEntry{
			ID: "search-" + string(rune('a'+i)), UserLogin: "Master.Andrey", Query: "запрос",
		}))
	}
	history, err := store.GetSearchHistory(ctx, "Master.Andrey", constants.SearchHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, history, constants.SearchHistoryLimit)

	other, err := store.GetSearchHistory(ctx, "Master.Danila", constants.SearchHistoryLimit)
	require.NoError(t, err)
	assert.Empty(t, other)
}
