package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/iurnickita/goodsreserv/internal/model"
)

const availabilityPath = "/availability/"

// availabilityList бэкенд отдает массив или {"data": [...]}
type availabilityList []model.DailyAvailability

func (l *availabilityList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []model.DailyAvailability
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped struct {
		Data []model.DailyAvailability `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return errors.Wrap(err, "unexpected availability payload")
	}
	*l = wrapped.Data
	return nil
}

// ListAvailability доступность всех товаров по дням
func (client *Client) ListAvailability(ctx context.Context, opts ...RequestOption) ([]model.DailyAvailability, error) {
	var list availabilityList
	if err := client.Request(ctx, http.MethodGet, availabilityPath, nil, &list, opts...); err != nil {
		return nil, err
	}
	return list, nil
}
