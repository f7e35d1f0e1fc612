package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vipauto/internal/dto"
	"vipauto/internal/entities"
	"vipauto/internal/repositories"
	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/metrics"
	"vipauto/pkg/types"
	"vipauto/pkg/utils"
	"vipauto/pkg/websocket"
)

// Command - закрытый список команд, которые принимает сокет.
type Command int

const (
	CmdAddClient Command = iota + 1
	CmdUpdateClient
	CmdDeleteClient
	CmdToggleFavoriteClient
	CmdAddOrder
	CmdUpdateOrder
	CmdDeleteOrder
	CmdUpdateOrderStatus
	CmdCloseWeek
	CmdClearData
	CmdClearHistory
	CmdSearchClients
	CmdGetSearchHistory
)

var commandNames = map[Command]string{
	CmdAddClient:            "addClient",
	CmdUpdateClient:         "updateClient",
	CmdDeleteClient:         "deleteClient",
	CmdToggleFavoriteClient: "toggleFavoriteClient",
	CmdAddOrder:             "addOrder",
	CmdUpdateOrder:          "updateOrder",
	CmdDeleteOrder:          "deleteOrder",
	CmdUpdateOrderStatus:    "updateOrderStatus",
	CmdCloseWeek:            "closeWeek",
	CmdClearData:            "clearData",
	CmdClearHistory:         "clearHistory",
	CmdSearchClients:        "searchClients",
	CmdGetSearchHistory:     "getSearchHistory",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commandNames))
	for c, name := range commandNames {
		m[name] = c
	}
	return m
}()

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

func ParseCommand(name string) (Command, bool) {
	c, ok := commandsByName[name]
	return c, ok
}

// Сообщения, которые видит сотрудник в serverError.
const (
	MsgSaveFailed     = "Ошибка при сохранении данных в базу. Пожалуйста, попробуйте еще раз."
	MsgAddOrderFailed = "Не удалось создать заказ-наряд."
	MsgOrderForbidden = "У вас нет прав на редактирование этого заказа."
	MsgDuplicatePhone = "Клиент с таким номером телефона уже существует."
	MsgReadFailed     = "Не удалось загрузить данные. Пожалуйста, попробуйте еще раз."
)

type policy int

const (
	anyone policy = iota
	privilegedOnly
)

// call - одна команда одного соединения.
type call struct {
	client   *websocket.Client
	identity types.Identity
	payload  json.RawMessage
}

type route struct {
	policy  policy
	mutates bool
	// failure - текст serverError при ошибке хранилища.
	failure string
	handler func(ctx context.Context, c call) error
}

type CommandRouterInterface interface {
	websocket.MessageHandler
	Dispatch(ctx context.Context, client *websocket.Client, name string, payload json.RawMessage)
}

type CommandRouter struct {
	store             repositories.StoreInterface
	notifier          BroadcastServiceInterface
	validate          *validator.Validate
	allowClientDelete bool
	logger            *zap.Logger
	now               func() time.Time
	newID             func(prefix string) string
	routes            map[Command]route
}

func NewCommandRouter(
	store repositories.StoreInterface,
	notifier BroadcastServiceInterface,
	validate *validator.Validate,
	allowClientDelete bool,
	logger *zap.Logger,
) *CommandRouter {
	r := &CommandRouter{
		store:             store,
		notifier:          notifier,
		validate:          validate,
		allowClientDelete: allowClientDelete,
		logger:            logger,
		now:               time.Now,
		newID:             func(prefix string) string { return prefix + uuid.NewString() },
	}
	r.routes = map[Command]route{
		CmdAddClient:            {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.addClient},
		CmdUpdateClient:         {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.updateClient},
		CmdDeleteClient:         {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.deleteClient},
		CmdToggleFavoriteClient: {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.toggleFavoriteClient},
		CmdAddOrder:             {policy: anyone, mutates: true, failure: MsgAddOrderFailed, handler: r.addOrder},
		CmdUpdateOrder:          {policy: anyone, mutates: true, failure: MsgSaveFailed, handler: r.updateOrder},
		CmdDeleteOrder:          {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.deleteOrder},
		CmdUpdateOrderStatus:    {policy: anyone, mutates: true, failure: MsgSaveFailed, handler: r.updateOrderStatus},
		CmdCloseWeek:            {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.closeWeek},
		CmdClearData:            {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.clearData},
		CmdClearHistory:         {policy: privilegedOnly, mutates: true, failure: MsgSaveFailed, handler: r.clearHistory},
		CmdSearchClients:        {policy: anyone, failure: MsgReadFailed, handler: r.searchClients},
		CmdGetSearchHistory:     {policy: anyone, failure: MsgReadFailed, handler: r.getSearchHistory},
	}
	return r
}

func (r *CommandRouter) HandleMessage(ctx context.Context, client *websocket.Client, msg websocket.Inbound) {
	r.Dispatch(ctx, client, msg.Type, msg.Payload)
}

// Dispatch проверяет права, выполняет команду и после успешного изменения
// запускает рассылку. Отказ в правах и некорректные данные молча отбрасываются,
// кроме updateOrder, который сообщает об отказе явно.
func (r *CommandRouter) Dispatch(ctx context.Context, client *websocket.Client, name string, payload json.RawMessage) {
	identity := client.Identity
	logger := r.logger.With(zap.String("login", identity.Login), zap.String("command", name))

	cmd, ok := ParseCommand(name)
	if !ok {
		logger.Warn("неизвестная команда")
		metrics.CommandsTotal.WithLabelValues("unknown", metrics.ResultUnknown).Inc()
		return
	}
	rt := r.routes[cmd]

	if rt.policy == privilegedOnly && !identity.IsPrivileged() {
		logger.Info("команда отклонена: недостаточно прав")
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultDenied).Inc()
		return
	}

	err := rt.handler(ctx, call{client: client, identity: identity, payload: payload})

	var userErr *apperrors.UserError
	switch {
	case err == nil:
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultOK).Inc()
		if rt.mutates {
			r.notifier.Broadcast(ctx)
		}
	case errors.Is(err, apperrors.ErrNothingToDo):
		logger.Info("команда не изменила данные", zap.Error(err))
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultNoop).Inc()
	case errors.As(err, &userErr):
		logger.Warn("команда отклонена", zap.Error(err))
		result := metrics.ResultError
		if errors.Is(err, apperrors.ErrForbidden) {
			result = metrics.ResultDenied
		}
		metrics.CommandsTotal.WithLabelValues(cmd.String(), result).Inc()
		r.notifier.Reply(client, websocket.TypeServerError, userErr.Message)
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrNotFound):
		logger.Info("команда отброшена", zap.Error(err))
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultInvalid).Inc()
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Info("команда отклонена: недостаточно прав", zap.Error(err))
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultDenied).Inc()
	default:
		logger.Error("ошибка выполнения команды", zap.Error(err))
		metrics.CommandsTotal.WithLabelValues(cmd.String(), metrics.ResultError).Inc()
		r.notifier.Reply(client, websocket.TypeServerError, rt.failure)
	}
}

// decode разбирает и валидирует полезную нагрузку. Любая ошибка - ErrValidation.
func (r *CommandRouter) decode(payload json.RawMessage, target interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 || string(bytes.TrimSpace(payload)) == "null" {
		return apperrors.NewInvalidInputError("пустая полезная нагрузка")
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return apperrors.NewInvalidInputError("некорректный JSON: %v", err)
	}
	if err := r.validate.Struct(target); err != nil {
		return apperrors.NewInvalidInputError("некорректные данные: %v", err)
	}
	return nil
}

func clientFromDTO(d dto.ClientDTO) *entities.Client {
	return &entities.Client{
		ID:           d.ID,
		Name:         strings.TrimSpace(d.Name),
		Phone:        utils.NormalizePhone(d.Phone),
		CarModel:     strings.TrimSpace(d.CarModel),
		LicensePlate: utils.CanonicalPlate(d.LicensePlate),
	}
}

func (r *CommandRouter) addClient(ctx context.Context, c call) error {
	var d dto.ClientDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	client := clientFromDTO(d)
	client.ID = r.newID(constants.ClientIDPrefix)

	inserted, err := r.store.AddClient(ctx, client)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("клиент с телефоном %s уже есть: %w", client.Phone, apperrors.ErrNothingToDo)
	}
	return nil
}

func (r *CommandRouter) updateClient(ctx context.Context, c call) error {
	var d dto.ClientDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	if d.ID == "" {
		return apperrors.NewInvalidInputError("не указан id клиента")
	}
	err := r.store.UpdateClient(ctx, clientFromDTO(d))
	if errors.Is(err, apperrors.ErrConflict) {
		return apperrors.NewUserError(MsgDuplicatePhone, err)
	}
	return err
}

func (r *CommandRouter) deleteClient(ctx context.Context, c call) error {
	if !r.allowClientDelete {
		return fmt.Errorf("удаление клиентов отключено: %w", apperrors.ErrForbidden)
	}
	var d dto.IDDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	return r.store.DeleteClient(ctx, d.ID)
}

func (r *CommandRouter) toggleFavoriteClient(ctx context.Context, c call) error {
	var d dto.ToggleFavoriteDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	_, err := r.store.ToggleFavoriteClient(ctx, d.ID, d.Favorite)
	return err
}

// addOrder: мастер всегда записывает заказ-наряд на себя. Клиент ищется по
// телефону и создаётся, если его ещё нет, в той же транзакции, что и заказ.
func (r *CommandRouter) addOrder(ctx context.Context, c call) error {
	var d dto.OrderDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}

	masterName := strings.TrimSpace(d.MasterName)
	if !c.identity.IsPrivileged() || masterName == "" {
		masterName = c.identity.Name
	}
	status := strings.TrimSpace(d.Status)
	if status == "" {
		status = constants.OrderStatusNew
	}

	order := &entities.Order{
		ID:           r.newID(constants.OrderIDPrefix),
		MasterName:   masterName,
		CarModel:     strings.TrimSpace(d.CarModel),
		LicensePlate: utils.CanonicalPlate(d.LicensePlate),
		Description:  strings.TrimSpace(d.Description),
		Amount:       float64(d.Amount),
		PaymentType:  strings.TrimSpace(d.PaymentType),
		Status:       status,
		ClientName:   strings.TrimSpace(d.ClientName),
		ClientPhone:  utils.NormalizePhone(d.ClientPhone),
	}

	return r.store.AddOrderWithClient(ctx, order, r.newClientFor(order))
}

// newClientFor готовит карточку клиента по данным заказ-наряда. Для заказа без
// телефона возвращает nil.
func (r *CommandRouter) newClientFor(order *entities.Order) *entities.Client {
	if order.ClientPhone == "" {
		return nil
	}
	name := order.ClientName
	if name == "" {
		name = constants.DefaultNewClientName
	}
	return &entities.Client{
		ID:           r.newID(constants.ClientIDPrefix),
		Name:         name,
		Phone:        order.ClientPhone,
		CarModel:     order.CarModel,
		LicensePlate: order.LicensePlate,
	}
}

// updateOrder: права проверяются по сохранённому заказу, а не по присланному.
// Мастер не может переназначить свой заказ-наряд на другого. Смена телефона
// перепривязывает заказ к клиенту с новым номером, пустой телефон отвязывает.
func (r *CommandRouter) updateOrder(ctx context.Context, c call) error {
	var d dto.OrderDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	if d.ID == "" {
		return apperrors.NewInvalidInputError("не указан id заказ-наряда")
	}

	stored, err := r.store.FindOrder(ctx, d.ID)
	if err != nil {
		return err
	}
	if !c.identity.IsPrivileged() && stored.MasterName != c.identity.Name {
		return apperrors.NewUserError(MsgOrderForbidden,
			fmt.Errorf("заказ-наряд %s принадлежит %q: %w", stored.ID, stored.MasterName, apperrors.ErrForbidden))
	}

	masterName := stored.MasterName
	if c.identity.IsPrivileged() && strings.TrimSpace(d.MasterName) != "" {
		masterName = strings.TrimSpace(d.MasterName)
	}

	stored.MasterName = masterName
	stored.CarModel = strings.TrimSpace(d.CarModel)
	stored.LicensePlate = utils.CanonicalPlate(d.LicensePlate)
	stored.Description = strings.TrimSpace(d.Description)
	stored.Amount = float64(d.Amount)
	stored.PaymentType = strings.TrimSpace(d.PaymentType)
	stored.ClientName = strings.TrimSpace(d.ClientName)

	var client *entities.Client
	if phone := utils.NormalizePhone(d.ClientPhone); phone != stored.ClientPhone {
		stored.ClientPhone = phone
		stored.ClientID = null.String{}
		client = r.newClientFor(stored)
	}
	return r.store.UpdateOrderWithClient(ctx, stored, client)
}

func (r *CommandRouter) deleteOrder(ctx context.Context, c call) error {
	var d dto.IDDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	return r.store.DeleteOrder(ctx, d.ID)
}

func (r *CommandRouter) updateOrderStatus(ctx context.Context, c call) error {
	var d dto.UpdateOrderStatusDTO
	if err := r.decode(c.payload, &d); err != nil {
		return err
	}
	return r.store.UpdateOrderStatus(ctx, d.ID, strings.TrimSpace(d.Status))
}

// closeWeek: отчёт по зарплате считает клиент, сервер сохраняет его как есть.
// Проверка наличия открытых заказов выполняется внутри транзакции хранилища.
func (r *CommandRouter) closeWeek(ctx context.Context, c call) error {
	var d dto.CloseWeekDTO
	if len(bytes.TrimSpace(c.payload)) > 0 {
		if err := json.Unmarshal(c.payload, &d); err != nil {
			return apperrors.NewInvalidInputError("некорректный JSON: %v", err)
		}
	}
	report := &entities.WeeklyReport{
		WeekID:       constants.WeekIDPrefix + strconv.FormatInt(r.now().UnixMilli(), 10),
		SalaryReport: d.SalaryReport,
	}
	closed, err := r.store.CloseWeek(ctx, report)
	if err != nil {
		return err
	}
	r.logger.Info("неделя закрыта",
		zap.String("login", c.identity.Login),
		zap.String("week_id", report.WeekID),
		zap.Int64("orders", closed))
	return nil
}

func (r *CommandRouter) clearData(ctx context.Context, c call) error {
	r.logger.Warn("очистка всех заказ-нарядов и истории", zap.String("login", c.identity.Login))
	return r.store.ClearData(ctx)
}

func (r *CommandRouter) clearHistory(ctx context.Context, c call) error {
	r.logger.Warn("очистка истории недель", zap.String("login", c.identity.Login))
	return r.store.ClearHistory(ctx)
}

// searchQuery принимает и строку, и объект {"query": "..."}.
func searchQuery(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	var d dto.SearchClientsDTO
	if err := json.Unmarshal(payload, &d); err == nil {
		return d.Query
	}
	return ""
}

func (r *CommandRouter) searchClients(ctx context.Context, c call) error {
	query := strings.TrimSpace(searchQuery(c.payload))

	if len([]rune(query)) >= constants.SearchLogMinLength {
		entry := &entities.SearchHistoryEntry{
			ID:        r.newID(constants.SearchIDPrefix),
			UserLogin: c.identity.Login,
			Query:     query,
		}
		// История поиска вторична: её сбой не мешает выдать результаты.
		if err := r.store.AddSearchQuery(ctx, entry); err != nil {
			r.logger.Warn("не удалось записать историю поиска", zap.String("login", c.identity.Login), zap.Error(err))
		}
	}

	results, err := r.store.SearchClients(ctx, query, constants.SearchResultsLimit)
	if err != nil {
		return err
	}
	r.notifier.Reply(c.client, websocket.TypeClientSearchResults, results)
	return nil
}

func (r *CommandRouter) getSearchHistory(ctx context.Context, c call) error {
	history, err := r.store.GetSearchHistory(ctx, c.identity.Login, constants.SearchHistoryLimit)
	if err != nil {
		return err
	}
	r.notifier.Reply(c.client, websocket.TypeSearchHistoryResults, history)
	return nil
}
