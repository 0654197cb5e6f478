package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/iurnickita/goodsreserv/internal/admin"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
)

func adminCommand(a *app) *cli.Command {
	idArg := "<id>"
	return &cli.Command{
		Name:  "admin",
		Usage: "панель администратора",
		Subcommands: []*cli.Command{
			{
				Name: "login",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "login", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"GOODSRESERV_ADMIN_PASSWORD_INPUT"}},
				},
				Action: a.adminLogin,
			},
			{
				Name:   "logout",
				Action: a.adminLogout,
			},
			{
				Name:   "goods",
				Usage:  "товары",
				Before: a.requireAdmin,
				Subcommands: []*cli.Command{
					{
						Name: "list",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
							&cli.StringFlag{Name: "sort", Usage: "id, name, category, article, url, price, is_active"},
							&cli.BoolFlag{Name: "desc"},
							&cli.IntFlag{Name: "pages", Value: 1},
						},
						Action: a.goodsList,
					},
					{
						Name:   "create",
						Flags:  goodsFlags(),
						Action: a.goodsCreate,
					},
					{
						Name:      "edit",
						ArgsUsage: idArg,
						Flags:     goodsFlags(),
						Action:    a.goodsEdit,
					},
					{
						Name:      "delete",
						ArgsUsage: idArg,
						Action:    a.goodsDelete,
					},
					{
						Name:      "hide",
						ArgsUsage: "<id>...",
						Action:    a.goodsBulk(true),
					},
					{
						Name:      "show",
						ArgsUsage: "<id>...",
						Action:    a.goodsBulk(false),
					},
					{
						Name:      "parse",
						Usage:     "черновик товара по ссылке Wildberries",
						ArgsUsage: "<url>",
						Action:    a.goodsParse,
					},
				},
			},
			{
				Name:   "categories",
				Usage:  "категории и заметки",
				Before: a.requireAdmin,
				Subcommands: []*cli.Command{
					{Name: "list", Action: a.categoriesList},
					{Name: "create", Flags: categoryFlags(), Action: a.categorySave},
					{Name: "edit", ArgsUsage: idArg, Flags: categoryFlags(), Action: a.categorySave},
					{Name: "delete", ArgsUsage: idArg, Action: a.categoryDelete},
					{Name: "notes", ArgsUsage: idArg, Action: a.notesList},
					{
						Name:      "note-add",
						ArgsUsage: idArg,
						Flags:     []cli.Flag{&cli.StringFlag{Name: "text"}},
						Action:    a.noteAdd,
					},
					{
						Name:      "note-edit",
						ArgsUsage: idArg,
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "note", Required: true},
							&cli.StringFlag{Name: "text"},
						},
						Action: a.noteEdit,
					},
					{
						Name:      "note-delete",
						ArgsUsage: idArg,
						Flags:     []cli.Flag{&cli.Int64Flag{Name: "note", Required: true}},
						Action:    a.noteDelete,
					},
				},
			},
			{
				Name:   "availability",
				Usage:  "доступность товаров по датам",
				Before: a.requireAdmin,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "фильтр по дате, например 15.07"},
					&cli.Int64Flag{Name: "highlight", Usage: "отметить товар в списке товаров"},
					&cli.Int64Flag{Name: "regenerate", Usage: "перегенерировать доступность товара"},
				},
				Action: a.availability,
			},
			{
				Name:   "reservations",
				Usage:  "все бронирования",
				Before: a.requireAdmin,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "status", Usage: "pending, active, confirmed, canceled"},
					&cli.Int64Flag{Name: "cancel", Usage: "отменить бронирование"},
				},
				Action: a.reservations,
			},
		},
	}
}

func (a *app) adminLogin(c *cli.Context) error {
	if a.auth == nil {
		return errors.New("вход администратора не настроен: задайте SESSION_SECRET")
	}
	if err := a.auth.Login(c.Context, c.String("login"), c.String("password")); err != nil {
		return err
	}
	a.notifier.Success("Вход выполнен")
	return nil
}

func (a *app) adminLogout(c *cli.Context) error {
	if a.auth == nil {
		return nil
	}
	return a.auth.Logout(c.Context)
}

// Товары

func goodsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from-url", Usage: "заполнить по ссылке Wildberries"},
		&cli.StringFlag{Name: "name"},
		&cli.StringFlag{Name: "article"},
		&cli.StringFlag{Name: "url"},
		&cli.IntFlag{Name: "price"},
		&cli.IntFlag{Name: "cashback"},
		&cli.StringFlag{Name: "image"},
		&cli.StringFlag{Name: "guide", Usage: "инструкция по покупке"},
		&cli.StringFlag{Name: "start", Usage: "ГГГГ-ММ-ДД"},
		&cli.StringFlag{Name: "end", Usage: "ГГГГ-ММ-ДД"},
		&cli.IntFlag{Name: "min-daily"},
		&cli.IntFlag{Name: "max-daily"},
		&cli.IntFlag{Name: "total-limit", Usage: "отрицательное значение снимает лимит"},
		&cli.Int64Flag{Name: "category", Usage: "0 - без категории"},
		&cli.StringSliceFlag{Name: "req", Usage: "требование выкупа тип:название"},
		&cli.StringSliceFlag{Name: "delivery-req", Usage: "требование доставки тип:название"},
		&cli.BoolFlag{Name: "active", Value: true},
		&cli.BoolFlag{Name: "hidden"},
	}
}

// applyGoodsFlags переносит заданные флаги в форму
func applyGoodsFlags(c *cli.Context, f *admin.GoodsForm) error {
	str := map[string]*string{
		"name": &f.Name, "article": &f.Article, "url": &f.URL, "image": &f.Image,
		"guide": &f.PurchaseGuide, "start": &f.StartDate, "end": &f.EndDate,
	}
	for name, dst := range str {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	num := map[string]*int{
		"price": &f.Price, "cashback": &f.CashbackPercent,
		"min-daily": &f.MinDaily, "max-daily": &f.MaxDaily,
	}
	for name, dst := range num {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	if c.IsSet("total-limit") {
		if limit := c.Int("total-limit"); limit >= 0 {
			f.TotalSalesLimit = &limit
		} else {
			f.TotalSalesLimit = nil
		}
	}
	if c.IsSet("category") {
		f.CategoryID = c.Int64("category")
	}
	if c.IsSet("active") {
		f.IsActive = c.Bool("active")
	}
	if c.IsSet("hidden") {
		f.IsHidden = c.Bool("hidden")
	}
	var err error
	if c.IsSet("req") {
		if f.ConfirmationRequirements, err = requirementFlags(c.StringSlice("req")); err != nil {
			return err
		}
	}
	if c.IsSet("delivery-req") {
		if f.DeliveryConfirmationRequirements, err = requirementFlags(c.StringSlice("delivery-req")); err != nil {
			return err
		}
	}
	return nil
}

func requirementFlags(values []string) ([]admin.RequirementForm, error) {
	reqs := make([]admin.RequirementForm, 0, len(values))
	for _, v := range values {
		t, title, ok := strings.Cut(v, ":")
		if !ok {
			return nil, errors.Errorf("ожидается тип:название: %q", v)
		}
		reqs = append(reqs, admin.RequirementForm{Type: t, Title: title})
	}
	return reqs, nil
}

func (a *app) goodsList(c *cli.Context) error {
	view := admin.NewGoodsListView(a.client, a.store, a.host.Buttons(), a.notifier, a.zaplog)
	defer view.Unmount()

	obs := &goodslist.ManualObserver{}
	if err := view.Mount(c.Context, obs, nil); err != nil {
		return err
	}
	engine := view.Engine()
	if q := c.String("search"); q != "" {
		if err := engine.Search(c.Context, q); err != nil {
			return err
		}
	}
	for i := 1; i < c.Int("pages") && engine.HasMore(); i++ {
		obs.Visible()
	}
	if field := goodslist.SortField(c.String("sort")); field != goodslist.SortNone {
		if !field.Valid() {
			return errors.Errorf("неизвестная колонка сортировки %q", field)
		}
		s := engine.SortBy(field)
		if s.Desc != c.Bool("desc") {
			engine.SortBy(field)
		}
	}
	state := engine.State()
	renderAdminGoods(a.out, state.Items, state.Selected, view.Highlighted())
	if state.HasMore {
		fmt.Fprintln(a.out, "...есть еще товары, используйте --pages")
	}
	return nil
}

// saveGoods сохраняет форму нажатием главной кнопки, как на экране формы
func (a *app) saveGoods(ctx context.Context, view *admin.GoodsFormView) error {
	var saved *model.Goods
	view.Mount(ctx, func(g model.Goods) { saved = &g }, nil)
	defer view.Unmount()

	a.host.Buttons().PressMain()
	if saved == nil {
		return errors.New("товар не сохранен")
	}
	fmt.Fprintf(a.out, "Товар %d: %s\n", saved.ID, saved.Name)
	return nil
}

func (a *app) goodsCreate(c *cli.Context) error {
	form := admin.NewGoodsForm()
	if link := c.String("from-url"); link != "" {
		parsed, manual, err := admin.NewParseView(a.client, a.notifier, a.zaplog).Parse(c.Context, link)
		if err != nil {
			return err
		}
		if manual {
			a.notifier.Info("Не удалось получить данные товара, заполните поля вручную")
		}
		form = parsed
	}
	if err := applyGoodsFlags(c, &form); err != nil {
		return err
	}
	view := admin.NewGoodsFormView(a.client, a.host.Buttons(), a.notifier, a.zaplog)
	view.Prefill(form)
	return a.saveGoods(c.Context, view)
}

func (a *app) goodsEdit(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	view := admin.NewGoodsFormView(a.client, a.host.Buttons(), a.notifier, a.zaplog)
	if err := view.Load(c.Context, id); err != nil {
		return err
	}
	var ferr error
	view.Edit(func(f *admin.GoodsForm) { ferr = applyGoodsFlags(c, f) })
	if ferr != nil {
		return ferr
	}
	return a.saveGoods(c.Context, view)
}

func (a *app) goodsDelete(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	view := admin.NewGoodsListView(a.client, a.store, a.host.Buttons(), a.notifier, a.zaplog)
	return view.Delete(c.Context, id)
}

func (a *app) goodsBulk(hide bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		var ids []int64
		for _, s := range c.Args().Slice() {
			var id int64
			if _, err := fmt.Sscan(s, &id); err != nil {
				return errors.Errorf("неверный id %q", s)
			}
			ids = append(ids, id)
		}

		view := admin.NewGoodsListView(a.client, a.store, a.host.Buttons(), a.notifier, a.zaplog)
		defer view.Unmount()
		obs := &goodslist.ManualObserver{}
		if err := view.Mount(c.Context, obs, nil); err != nil {
			return err
		}
		engine := view.Engine()
		// выбрать можно только загруженные строки
		for !loaded(engine.Items(), ids) && engine.HasMore() {
			before := engine.State().Offset
			if !obs.Visible() || engine.State().Offset == before {
				break
			}
		}
		for _, id := range ids {
			engine.ToggleSelected(id)
		}
		if hide {
			return engine.BulkHide(c.Context)
		}
		return engine.BulkShow(c.Context)
	}
}

func loaded(items []model.Goods, ids []int64) bool {
	seen := make(map[int64]bool, len(items))
	for _, g := range items {
		seen[g.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return false
		}
	}
	return true
}

func (a *app) goodsParse(c *cli.Context) error {
	form, manual, err := admin.NewParseView(a.client, a.notifier, a.zaplog).Parse(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	if manual {
		fmt.Fprintln(a.out, "Разбор не удался, заполните товар вручную")
		return nil
	}
	fmt.Fprintf(a.out, "Название: %s\nАртикул: %s\nЦена: %d\nИзображение: %s\n",
		form.Name, form.Article, form.Price, a.media.URL(form.Image))
	return nil
}

// Категории

func categoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name"},
		&cli.StringFlag{Name: "description"},
		&cli.BoolFlag{Name: "active", Value: true},
	}
}

func (a *app) categoriesList(c *cli.Context) error {
	cats, err := admin.NewCategoriesView(a.client, a.notifier, a.zaplog).Load(c.Context)
	if err != nil {
		return err
	}
	renderCategories(a.out, cats)
	return nil
}

func (a *app) categorySave(c *cli.Context) error {
	view := admin.NewCategoriesView(a.client, a.notifier, a.zaplog)
	var id int64
	form := admin.CategoryForm{IsActive: true}
	if c.Args().Present() {
		var err error
		if id, err = argID(c); err != nil {
			return err
		}
		cat, err := view.Get(c.Context, id)
		if err != nil {
			return err
		}
		form = admin.CategoryForm{Name: cat.Name, Description: cat.Description, IsActive: cat.IsActive}
	}
	if c.IsSet("name") {
		form.Name = c.String("name")
	}
	if c.IsSet("description") {
		form.Description = c.String("description")
	}
	if c.IsSet("active") {
		form.IsActive = c.Bool("active")
	}
	cat, err := view.Save(c.Context, id, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Категория %d: %s\n", cat.ID, cat.Name)
	return nil
}

func (a *app) categoryDelete(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	return admin.NewCategoriesView(a.client, a.notifier, a.zaplog).Delete(c.Context, id)
}

func (a *app) notesList(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	notes, err := admin.NewCategoriesView(a.client, a.notifier, a.zaplog).Notes(c.Context, id)
	if err != nil {
		return err
	}
	renderNotes(a.out, notes)
	return nil
}

func (a *app) noteAdd(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	_, err = admin.NewCategoriesView(a.client, a.notifier, a.zaplog).AddNote(c.Context, id, c.String("text"))
	return err
}

func (a *app) noteEdit(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	_, err = admin.NewCategoriesView(a.client, a.notifier, a.zaplog).UpdateNote(c.Context, id, c.Int64("note"), c.String("text"))
	return err
}

func (a *app) noteDelete(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	return admin.NewCategoriesView(a.client, a.notifier, a.zaplog).DeleteNote(c.Context, id, c.Int64("note"))
}

// Доступность и бронирования

func (a *app) availability(c *cli.Context) error {
	view := admin.NewAvailabilityView(a.client, a.store, a.notifier, a.zaplog)
	if id := c.Int64("regenerate"); id != 0 {
		if _, err := view.Regenerate(c.Context, id); err != nil {
			return err
		}
	} else if _, err := view.Load(c.Context); err != nil {
		return err
	}
	if id := c.Int64("highlight"); id != 0 {
		if err := view.Highlight(c.Context, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Товар %d будет отмечен в admin goods list\n", id)
	}
	renderAvailability(a.out, view.Filter(c.String("date")))
	return nil
}

func (a *app) reservations(c *cli.Context) error {
	view := admin.NewReservationsView(a.client, a.notifier, a.zaplog)
	if _, err := view.Load(c.Context); err != nil {
		return err
	}
	if id := c.Int64("cancel"); id != 0 {
		if err := view.Cancel(c.Context, id); err != nil {
			return err
		}
	}
	var statuses []model.ReservationStatus
	for _, s := range c.StringSlice("status") {
		statuses = append(statuses, model.ReservationStatus(s))
	}
	renderReservations(a.out, view.Filter(statuses...))
	return nil
}
