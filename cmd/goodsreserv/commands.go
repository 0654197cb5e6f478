package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/iurnickita/goodsreserv/internal/catalog"
	"github.com/iurnickita/goodsreserv/internal/confirmation"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
)

func newCLI(a *app) *cli.App {
	return &cli.App{
		Name:  "goodsreserv",
		Usage: "бронирование товаров с кэшбэком",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "env-file", Usage: "файлы с переменными окружения", Value: cli.NewStringSlice(".env")},
			&cli.StringFlag{Name: "api-url", Usage: "адрес API"},
			&cli.StringFlag{Name: "log-level", Usage: "уровень журнала"},
		},
		Before: a.init,
		After:  a.close,
		Commands: []*cli.Command{
			{
				Name:   "whoami",
				Usage:  "пользователь Telegram и тема",
				Action: a.whoami,
			},
			{
				Name:  "catalog",
				Usage: "каталог товаров",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "поиск по названию"},
					&cli.IntFlag{Name: "pages", Value: 1, Usage: "сколько страниц загрузить"},
				},
				Action: a.catalog,
			},
			{
				Name:      "show",
				Usage:     "карточка товара",
				ArgsUsage: "<id>",
				Action:    a.show,
			},
			{
				Name:      "reserve",
				Usage:     "забронировать товар",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Value: 1},
				},
				Action: a.reserve,
			},
			{
				Name:  "my",
				Usage: "мои бронирования",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Action: a.myList,
					},
					{
						Name:      "confirm",
						Usage:     "подтвердить выкуп или доставку",
						ArgsUsage: "<id>",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "text", Usage: "ID=значение"},
							&cli.StringSliceFlag{Name: "file", Usage: "ID=путь к фото или видео"},
						},
						Action: a.myConfirm,
					},
					{
						Name:      "cancel",
						ArgsUsage: "<id>",
						Action:    a.myCancel,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "диагностический сервер до прерывания",
				Action: a.serve,
			},
			adminCommand(a),
		},
	}
}

func argID(c *cli.Context) (int64, error) {
	s := c.Args().First()
	if s == "" {
		return 0, errors.New("не указан id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "неверный id %q", s)
	}
	return id, nil
}

// pairs разбирает значения вида ID=значение
func pairs(values []string) (map[model.RequirementID]string, error) {
	out := make(map[model.RequirementID]string, len(values))
	for _, v := range values {
		id, value, ok := strings.Cut(v, "=")
		if !ok || id == "" {
			return nil, errors.Errorf("ожидается ID=значение: %q", v)
		}
		out[model.RequirementID(id)] = value
	}
	return out, nil
}

func (a *app) whoami(c *cli.Context) error {
	if user, ok := a.host.User(); ok {
		fmt.Fprintf(a.out, "%s (id %d)\n", user.DisplayName(), user.ID)
	} else {
		fmt.Fprintln(a.out, "Запуск вне Telegram")
	}
	theme := "светлая"
	if a.host.IsDarkMode() {
		theme = "темная"
	}
	fmt.Fprintf(a.out, "Тема: %s\n", theme)
	return nil
}

func (a *app) catalog(c *cli.Context) error {
	view := catalog.NewCatalogView(a.client, a.notifier, a.zaplog)
	defer view.Unmount()

	obs := &goodslist.ManualObserver{}
	if err := view.Mount(c.Context, obs); err != nil {
		return err
	}
	if q := c.String("search"); q != "" {
		if err := view.Search(c.Context, q); err != nil {
			return err
		}
	}
	// каждая следующая страница как прокрутка до конца списка
	for i := 1; i < c.Int("pages") && view.Engine().HasMore(); i++ {
		obs.Visible()
	}
	renderCatalog(a.out, view.Items(), view.Engine().HasMore())
	return nil
}

func (a *app) show(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	view := catalog.NewDetailView(a.client, a.host, a.notifier, a.zaplog)
	view.Mount(nil)
	defer view.Unmount()

	g, err := view.Load(c.Context, id)
	if err != nil {
		return err
	}
	renderGoods(a.out, g, a.media, view.DailyCount())
	return nil
}

func (a *app) reserve(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	view := catalog.NewDetailView(a.client, a.host, a.notifier, a.zaplog)
	if _, err := view.Load(c.Context, id); err != nil {
		return err
	}
	r, err := view.Reserve(c.Context, c.Int("quantity"))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Бронирование %d: %s\n", r.ID, statusTitle(r.Status))
	return nil
}

func (a *app) myList(c *cli.Context) error {
	view := catalog.NewMyReservationsView(a.client, a.notifier, a.zaplog)
	list, err := view.Load(c.Context)
	if err != nil {
		return err
	}
	renderUserReservations(a.out, list)
	return nil
}

func (a *app) myConfirm(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	texts, err := pairs(c.StringSlice("text"))
	if err != nil {
		return err
	}
	files, err := pairs(c.StringSlice("file"))
	if err != nil {
		return err
	}

	view := catalog.NewMyReservationsView(a.client, a.notifier, a.zaplog)
	defer view.Close()
	if _, err := view.Load(c.Context); err != nil {
		return err
	}
	if _, err := view.Open(c.Context, id); err != nil {
		return err
	}
	form, err := view.Confirm()
	if err != nil {
		return err
	}
	if form == nil {
		// требований нет, подсказка уже показана
		return nil
	}
	if len(texts) == 0 && len(files) == 0 {
		renderForm(a.out, form)
		return nil
	}

	for rid, value := range texts {
		if err := form.SetText(rid, value); err != nil {
			return errors.Wrapf(err, "поле %s", rid)
		}
	}
	for rid, path := range files {
		att, err := confirmation.FileAttachment(path)
		if err != nil {
			return err
		}
		if err := form.Attach(rid, att); err != nil {
			var verr *confirmation.ValidationError
			if errors.As(err, &verr) {
				a.notifier.Error(verr.Message)
			}
			return errors.Wrapf(err, "поле %s", rid)
		}
	}

	result, err := view.Submit(c.Context)
	if err != nil {
		return err
	}
	if result.Remove {
		fmt.Fprintf(a.out, "Бронирование %d завершено\n", result.ReservationID)
	} else {
		fmt.Fprintf(a.out, "Бронирование %d: %s\n", result.ReservationID, statusTitle(result.Status))
	}
	return nil
}

func (a *app) myCancel(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	view := catalog.NewMyReservationsView(a.client, a.notifier, a.zaplog)
	if _, err := view.Load(c.Context); err != nil {
		return err
	}
	return view.Cancel(c.Context, id)
}

func (a *app) serve(c *cli.Context) error {
	if a.cfg.Handler.ServerAddr == "" {
		return errors.New("не задан METRICS_ADDR")
	}
	<-c.Context.Done()
	return nil
}
