package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/iurnickita/goodsreserv/internal/model"
)

const (
	reservationsPath     = "/reservations/"
	userReservationsPath = "/reservations/user/"
)

func reservationItemPath(id int64) string {
	return reservationsPath + strconv.FormatInt(id, 10)
}

// Reserve бронирует товар; пользователя бэкенд берет из init-data
func (client *Client) Reserve(ctx context.Context, goodsID int64, quantity int, opts ...RequestOption) (model.Reservation, error) {
	body := struct {
		GoodsID  int64 `json:"goods_id"`
		Quantity int   `json:"quantity"`
	}{GoodsID: goodsID, Quantity: quantity}

	var reservation model.Reservation
	if err := client.Request(ctx, http.MethodPost, reservationsPath, body, &reservation, opts...); err != nil {
		return model.Reservation{}, err
	}
	client.Invalidate(goodsPath, goodsItemPath(goodsID), reservationsPath, userReservationsPath)
	client.notifier.Success("Товар успешно забронирован")
	return reservation, nil
}

// ListReservations все бронирования (админка)
func (client *Client) ListReservations(ctx context.Context, opts ...RequestOption) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := client.Request(ctx, http.MethodGet, reservationsPath, nil, &reservations, opts...)
	return reservations, err
}

// ListUserReservations бронирования текущего пользователя в указанных статусах
func (client *Client) ListUserReservations(ctx context.Context, statuses []model.ReservationStatus, opts ...RequestOption) ([]model.Reservation, error) {
	path := userReservationsPath
	if len(statuses) > 0 {
		q := url.Values{}
		for _, s := range statuses {
			q.Add("status", string(s))
		}
		path += "?" + q.Encode()
	}
	var reservations []model.Reservation
	err := client.Request(ctx, http.MethodGet, path, nil, &reservations, opts...)
	return reservations, err
}

func (client *Client) CancelReservation(ctx context.Context, id int64, opts ...RequestOption) error {
	if err := client.Request(ctx, http.MethodPost, reservationItemPath(id)+"/cancel", nil, nil, opts...); err != nil {
		return err
	}
	// отмена возвращает остаток товара
	client.Invalidate(reservationsPath, userReservationsPath, goodsPath)
	client.notifier.Success("Бронирование успешно отменено")
	return nil
}

// ConfirmationEntry значение одного требования. File == nil для текстовых полей.
type ConfirmationEntry struct {
	Type  model.RequirementType
	Title string
	Value string
	File  *FilePart
}

// ConfirmationSubmission данные подтверждения этапа бронирования
type ConfirmationSubmission struct {
	Phase   model.Phase
	Entries map[model.RequirementID]ConfirmationEntry
}

// SubmitConfirmation отправляет подтверждение одним multipart-запросом:
// confirmation_type, data (JSON id -> {type,title,value}) и файл file_<id> на каждое медиаполе.
func (client *Client) SubmitConfirmation(ctx context.Context, reservationID int64, sub ConfirmationSubmission, opts ...RequestOption) (model.Reservation, error) {
	data := make(map[string]model.ConfirmationData, len(sub.Entries))
	var files []FilePart
	for id, entry := range sub.Entries {
		data[string(id)] = model.ConfirmationData{Type: entry.Type, Title: entry.Title, Value: entry.Value}
		if entry.File != nil {
			f := *entry.File
			f.Param = "file_" + string(id)
			files = append(files, f)
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return model.Reservation{}, errors.Wrap(err, "encode confirmation data")
	}

	fields := map[string]string{
		"confirmation_type": sub.Phase.String(),
		"data":              string(payload),
	}
	var reservation model.Reservation
	if err := client.Multipart(ctx, reservationItemPath(reservationID)+"/confirm", fields, files, &reservation, opts...); err != nil {
		return model.Reservation{}, err
	}
	// уведомление об успехе зависит от этапа, его показывает вызывающий
	client.Invalidate(reservationsPath, userReservationsPath)
	return reservation, nil
}

// DailyReservationsCount бронирований пользователя за сегодня; при ошибке 0
func (client *Client) DailyReservationsCount(ctx context.Context, userID int64) int {
	var resp struct {
		Count int `json:"count"`
	}
	path := "/user/" + strconv.FormatInt(userID, 10) + "/daily_reservations_count/"
	if err := client.Request(ctx, http.MethodGet, path, nil, &resp, SkipCache(), Quiet()); err != nil {
		client.notifier.Error("Не удалось получить информацию о лимитах: " + err.Error())
		return 0
	}
	return resp.Count
}
