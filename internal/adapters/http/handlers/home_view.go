package handlers

import (
	"fmt"
	"sort"
	"time"

	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/core/services"
)

const (
	dateLayout      = "02/01/2006"
	dateTimeLayout  = "02/01/2006 15:04"
	maxOverdueShown = 5

	// CategoryAll shows every module tile
	CategoryAll = "all"
)

// HomeDashboardView is the model of the home page
type HomeDashboardView struct {
	Summary        domain.Summary
	HeroLinks      []HeroLink
	Categories     []ModuleCategory
	Modules        []DashboardModule
	Activity       []ActivityItem
	Spotlight      []SpotlightModule
	LoanGroups     []StatusCount
	LoanTotal      int
	BookGroups     []StatusCount
	BookTotal      int
	TopOverdue     []OverdueRow
	Capacity       int
	ActiveCategory string
	AsOf           string
}

// HeroLink is a shortcut shown in the page header. Empty Href means the page is not available yet.
type HeroLink struct {
	Label string
	Icon  string
	Href  string
}

// ModuleCategory is a filter button over the module tiles
type ModuleCategory struct {
	Key    string
	Label  string
	Active bool
}

// DashboardModule is a tile linking to a functional area
type DashboardModule struct {
	Title       string
	Description string
	Icon        string
	ColorClass  string
	Category    string
	Metric      string
	Href        string
	Hidden      bool
}

// ActivityItem is an entry of the activity feed
type ActivityItem struct {
	Title      string
	Details    string
	TimeAgo    string
	ColorClass string
}

// SpotlightModule is a highlighted area with a call to action
type SpotlightModule struct {
	ID          string
	Title       string
	Description string
	ButtonText  string
	ButtonClass string
	Href        string
}

// StatusCount is one bar of a status breakdown
type StatusCount struct {
	Label   string
	Count   int
	Percent int
}

// OverdueRow is a late loan on the dashboard
type OverdueRow struct {
	LoanID   string
	BookID   string
	UserID   string
	DueDate  string
	DaysLate int
}

var moduleCategories = []ModuleCategory{
	{Key: CategoryAll, Label: "Todos"},
	{Key: "operacion", Label: "Operación"},
	{Key: "catalogo", Label: "Catálogo"},
	{Key: "personas", Label: "Personas"},
	{Key: "analitica", Label: "Analítica"},
}

var loanStatusColors = map[string]string{
	domain.LoanPending.Description():   "bg-secondary",
	domain.LoanActive.Description():    "bg-primary",
	domain.LoanOverdue.Description():   "bg-danger",
	domain.LoanReturned.Description():  "bg-success",
	domain.LoanCancelled.Description(): "bg-dark",
}

// BuildDashboard turns the raw dashboard queries into the page model.
// It only formats and counts; every fetched aggregate appears in the result.
func BuildDashboard(data *services.DashboardData, now time.Time, category string) *HomeDashboardView {
	now = now.UTC()

	loanLabels := make([]string, 0, len(domain.LoanStatuses))
	for _, s := range domain.LoanStatuses {
		loanLabels = append(loanLabels, s.Description())
	}
	bookLabels := make([]string, 0, len(domain.BookStatuses))
	for _, s := range domain.BookStatuses {
		bookLabels = append(bookLabels, s.Description())
	}

	loanGroups, loanTotal := statusGroups(data.LoansByStatus, loanLabels)
	bookGroups, bookTotal := statusGroups(data.BooksByStatus, bookLabels)
	overdue := TopOverdue(data.OverdueLoans, now, maxOverdueShown)

	if category == "" {
		category = CategoryAll
	}

	view := &HomeDashboardView{
		Summary:        data.Summary,
		HeroLinks:      heroLinks(),
		LoanGroups:     loanGroups,
		LoanTotal:      loanTotal,
		BookGroups:     bookGroups,
		BookTotal:      bookTotal,
		TopOverdue:     overdue,
		Capacity:       capacity(data.BooksByStatus[domain.BookAvailable.Description()], bookTotal),
		ActiveCategory: category,
		AsOf:           now.Format(dateTimeLayout),
	}

	for _, c := range moduleCategories {
		c.Active = c.Key == category
		view.Categories = append(view.Categories, c)
	}

	modules := dashboardModules(data, loanTotal)
	visible := map[string]bool{}
	for _, m := range FilterModules(modules, category) {
		visible[m.Title] = true
	}
	for i := range modules {
		modules[i].Hidden = !visible[modules[i].Title]
	}
	view.Modules = modules

	view.Activity = activityFeed(loanGroups, overdue, now)
	view.Spotlight = spotlight(data, loanTotal, len(loanGroups), bookTotal)

	return view
}

// FilterModules keeps the modules of the given category, or all of them for "" and "all"
func FilterModules(modules []DashboardModule, category string) []DashboardModule {
	if category == "" || category == CategoryAll {
		return modules
	}

	out := make([]DashboardModule, 0, len(modules))
	for _, m := range modules {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// TopOverdue sorts loans by due date descending (ties by id) and keeps the first limit
func TopOverdue(loans []*domain.Loan, now time.Time, limit int) []OverdueRow {
	sorted := make([]*domain.Loan, 0, len(loans))
	for _, l := range loans {
		if l != nil {
			sorted = append(sorted, l)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Period.DueUTC, sorted[j].Period.DueUTC
		if !a.Equal(b) {
			return a.After(b)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]OverdueRow, 0, len(sorted))
	for _, l := range sorted {
		rows = append(rows, OverdueRow{
			LoanID:   l.ID.String(),
			BookID:   l.BookID.String(),
			UserID:   l.UserID.String(),
			DueDate:  l.Period.DueUTC.Format(dateLayout),
			DaysLate: daysBetween(l.Period.DueUTC, now),
		})
	}
	return rows
}

// statusGroups lists every key of counts, known labels first in order, then the rest alphabetically
func statusGroups(counts map[string]int, order []string) ([]StatusCount, int) {
	total := 0
	for _, n := range counts {
		total += n
	}

	keys := make([]string, 0, len(counts))
	seen := map[string]bool{}
	for _, label := range order {
		if _, ok := counts[label]; ok && !seen[label] {
			keys = append(keys, label)
			seen[label] = true
		}
	}

	var rest []string
	for k := range counts {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	groups := make([]StatusCount, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, StatusCount{Label: k, Count: counts[k], Percent: percent(counts[k], total)})
	}
	return groups, total
}

func heroLinks() []HeroLink {
	return []HeroLink{
		{Label: "Panel de préstamos", Icon: "🔁", Href: "/Prestamo"},
		{Label: "Registrar préstamo", Icon: "📘", Href: "/Prestamo/Create"},
		{Label: "Usuarios", Icon: "👤"},
		{Label: "Políticas", Icon: "🔐", Href: "/Home/Privacy"},
	}
}

func dashboardModules(data *services.DashboardData, loanTotal int) []DashboardModule {
	s := data.Summary
	return []DashboardModule{
		{
			Title: "Préstamos", Icon: "🔁", ColorClass: "text-primary", Category: "operacion",
			Description: "Consulta historial, activa préstamos y revisa extensiones.",
			Metric:      fmt.Sprintf("%d activos", s.ActiveLoans),
			Href:        "/Prestamo",
		},
		{
			Title: "Libros", Icon: "📚", ColorClass: "text-success", Category: "catalogo",
			Description: "Administra títulos, ejemplares y disponibilidad.",
			Metric:      fmt.Sprintf("%d disponibles", s.AvailableBooks),
		},
		{
			Title: "Usuarios", Icon: "👤", ColorClass: "text-info", Category: "personas",
			Description: "Gestiona perfiles y accesos de lectores.",
			Metric:      fmt.Sprintf("%d de %d activos", s.ActiveUsers, s.TotalUsers),
		},
		{
			Title: "Penalizaciones", Icon: "⚠️", ColorClass: "text-danger", Category: "operacion",
			Description: "Controla sanciones y desbloqueos.",
			Metric:      fmt.Sprintf("%d vigentes", s.ActivePenalties),
		},
		{
			Title: "Reportes", Icon: "📈", ColorClass: "text-secondary", Category: "analitica",
			Description: "Genera KPIs y métricas académicas.",
			Metric:      fmt.Sprintf("%d préstamos registrados", loanTotal),
		},
		{
			Title: "Notificaciones", Icon: "🔔", ColorClass: "text-warning", Category: "operacion",
			Description: "Envía alertas y recordatorios automáticos.",
			Metric:      fmt.Sprintf("%d vencidos por avisar", len(data.OverdueLoans)),
		},
	}
}

func activityFeed(loanGroups []StatusCount, overdue []OverdueRow, now time.Time) []ActivityItem {
	items := make([]ActivityItem, 0, len(loanGroups)+len(overdue))
	asOf := "Al " + now.Format(dateTimeLayout)

	for _, g := range loanGroups {
		color, ok := loanStatusColors[g.Label]
		if !ok {
			color = "bg-info"
		}
		items = append(items, ActivityItem{
			Title:      "Préstamos en estado " + g.Label,
			Details:    fmt.Sprintf("%d %s (%d%% del total).", g.Count, plural(g.Count, "préstamo", "préstamos"), g.Percent),
			TimeAgo:    asOf,
			ColorClass: color,
		})
	}

	for _, o := range overdue {
		items = append(items, ActivityItem{
			Title:      "Préstamo vencido",
			Details:    fmt.Sprintf("Libro %s prestado al usuario %s, comprometido para el %s.", o.BookID, o.UserID, o.DueDate),
			TimeAgo:    lateLabel(o.DaysLate),
			ColorClass: "bg-warning",
		})
	}
	return items
}

func spotlight(data *services.DashboardData, loanTotal, loanStates, bookTotal int) []SpotlightModule {
	s := data.Summary
	return []SpotlightModule{
		{
			ID:          "prestamos",
			Title:       "Control en vivo de préstamos",
			Description: fmt.Sprintf("%d préstamos activos y %d vencidos en seguimiento.", s.ActiveLoans, len(data.OverdueLoans)),
			ButtonText:  "Abrir Préstamos",
			ButtonClass: "btn-primary",
			Href:        "/Prestamo",
		},
		{
			ID:          "libros",
			Title:       "Catálogo y disponibilidad",
			Description: fmt.Sprintf("%d de %d ejemplares disponibles para préstamo.", s.AvailableBooks, bookTotal),
			ButtonText:  "Abrir Libros",
			ButtonClass: "btn-success",
		},
		{
			ID:          "reportes",
			Title:       "Análisis y métricas",
			Description: fmt.Sprintf("%d préstamos registrados en %d estados.", loanTotal, loanStates),
			ButtonText:  "Abrir Reportes",
			ButtonClass: "btn-outline-secondary",
		},
	}
}

// capacity is the share of the catalogue that is not available, in percent
func capacity(available, total int) int {
	if total <= 0 {
		return 0
	}
	if available > total {
		available = total
	}
	return percent(total-available, total)
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*100 + total/2) / total
}

func daysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

func lateLabel(days int) string {
	switch days {
	case 0:
		return "Venció hoy"
	case 1:
		return "Venció hace 1 día"
	default:
		return fmt.Sprintf("Venció hace %d días", days)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
