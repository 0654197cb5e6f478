package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iurnickita/goodsreserv/internal/admin"
	"github.com/iurnickita/goodsreserv/internal/confirmation"
	"github.com/iurnickita/goodsreserv/internal/media"
	"github.com/iurnickita/goodsreserv/internal/model"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}

func statusTitle(s model.ReservationStatus) string {
	switch s {
	case model.ReservationPending:
		return "Ожидает выкупа"
	case model.ReservationActive:
		return "Ожидает доставки"
	case model.ReservationConfirmed:
		return "Получен"
	case model.ReservationCanceled:
		return "Отменено"
	default:
		return string(s)
	}
}

// Каталог

func renderCatalog(w io.Writer, items []model.Goods, hasMore bool) {
	tw := newTable(w, "ID", "НАЗВАНИЕ", "ЦЕНА", "КЭШБЭК", "С КЭШБЭКОМ", "В ДЕНЬ")
	for _, g := range items {
		row(tw, g.ID, g.Name, g.Price, fmt.Sprintf("%d%%", g.CashbackPercent), g.PriceWithCashback(), g.MaxDaily)
	}
	tw.Flush()
	if hasMore {
		fmt.Fprintln(w, "...есть еще товары, используйте --pages")
	}
}

func renderGoods(w io.Writer, g model.Goods, resolver media.Resolver, daily int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row(tw, "Товар", g.Name)
	row(tw, "Артикул", model.MaskArticle(g.Article))
	row(tw, "Цена", g.Price)
	row(tw, "Кэшбэк", fmt.Sprintf("%d%%", g.CashbackPercent))
	row(tw, "Цена с кэшбэком", g.PriceWithCashback())
	row(tw, "Изображение", resolver.URL(g.Image))
	row(tw, "В день", fmt.Sprintf("%d..%d", g.MinDaily, g.MaxDaily))
	if g.Category != nil {
		row(tw, "Категория", g.Category.Name)
	}
	if daily > 0 {
		row(tw, "Ваших бронирований сегодня", daily)
	}
	tw.Flush()
	if g.PurchaseGuide != "" {
		fmt.Fprintf(w, "\nКак купить:\n%s\n", g.PurchaseGuide)
	}
	if len(g.DailyAvailability) > 0 {
		fmt.Fprintln(w)
		tw = newTable(w, "ДАТА", "ДОСТУПНО")
		for _, d := range g.DailyAvailability {
			row(tw, admin.FormatDate(d.Date), d.AvailableQuantity)
		}
		tw.Flush()
	}
}

// Бронирования

func renderUserReservations(w io.Writer, list []model.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(w, "У вас нет активных бронирований")
		return
	}
	tw := newTable(w, "ID", "ТОВАР", "КОЛ-ВО", "ЦЕНА С КЭШБЭКОМ", "СТАТУС", "ДАТА")
	for _, r := range list {
		row(tw, r.ID, r.GoodsName, r.Quantity,
			model.PriceWithCashback(r.GoodsPrice, r.GoodsCashbackPercent),
			statusTitle(r.Status), r.ReservedAt.Local().Format("02.01.2006 15:04"))
	}
	tw.Flush()
}

func renderReservations(w io.Writer, list []model.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(w, "Нет данных о бронированиях")
		return
	}
	tw := newTable(w, "ID", "ТОВАР", "ПОЛЬЗОВАТЕЛЬ", "КОЛ-ВО", "СТАТУС", "ДАТА И ВРЕМЯ")
	for _, r := range list {
		name := r.GoodsName
		if name == "" {
			name = fmt.Sprintf("#%d", r.GoodsID)
		}
		row(tw, r.ID, name, r.UserID, r.Quantity, statusTitle(r.Status), r.ReservedAt.Local().Format("02.01.2006 15:04"))
	}
	tw.Flush()
}

func renderForm(w io.Writer, form *confirmation.Form) {
	fmt.Fprintln(w, "Заполните поля подтверждения:")
	tw := newTable(w, "ID", "ТИП", "НАЗВАНИЕ")
	for _, f := range form.Fields() {
		req := f.Requirement()
		row(tw, req.ID, req.Type, req.Title)
	}
	tw.Flush()
	fmt.Fprintln(w, "Текст: --text ID=значение, файлы: --file ID=путь")
}

// Админка

func renderAdminGoods(w io.Writer, items []model.Goods, selected []int64, highlighted int64) {
	sel := make(map[int64]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	tw := newTable(w, "", "ID", "НАЗВАНИЕ", "КАТЕГОРИЯ", "АРТИКУЛ", "ЦЕНА", "АКТИВЕН", "СКРЫТ")
	for _, g := range items {
		mark := ""
		if g.ID == highlighted {
			mark = "▶"
		}
		if sel[g.ID] {
			mark += "✓"
		}
		category := ""
		if g.Category != nil {
			category = g.Category.Name
		}
		row(tw, mark, g.ID, g.Name, category, g.Article, g.Price, yesNo(g.IsActive), yesNo(g.IsHidden))
	}
	tw.Flush()
}

func renderCategories(w io.Writer, list []model.Category) {
	tw := newTable(w, "ID", "НАЗВАНИЕ", "АКТИВНА", "ОПИСАНИЕ")
	for _, c := range list {
		row(tw, c.ID, c.Name, yesNo(c.IsActive), c.Description)
	}
	tw.Flush()
}

func renderNotes(w io.Writer, notes []model.CategoryNote) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "Заметок нет")
		return
	}
	tw := newTable(w, "ID", "ТЕКСТ")
	for _, n := range notes {
		row(tw, n.ID, n.Text)
	}
	tw.Flush()
}

func renderAvailability(w io.Writer, groups []admin.AvailabilityGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "Нет данных о доступности")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s (арт. %s, id %d)\n", g.GoodsName, g.GoodsArticle, g.GoodsID)
		tw := newTable(w, "  ДАТА", "ДОСТУПНО")
		for _, d := range g.Days {
			row(tw, "  "+admin.FormatDate(d.Date), d.AvailableQuantity)
		}
		tw.Flush()
	}
}
