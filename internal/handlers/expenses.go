package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/common"
	"expensetracker/internal/logging"
	"expensetracker/internal/models"
)

// CategoryDef defines the properties of a suggested category.
type CategoryDef struct {
	ID    string
	Name  string
	Color string
}

var categories = []CategoryDef{
	{"food", "Food", "#60a5fa"},
	{"transport", "Transport", "#a78bfa"},
	{"entertainment", "Entertainment", "#f472b6"},
	{"utilities", "Utilities", "#fbbf24"},
	{"housing", "Housing", "#818cf8"},
	{"health", "Health", "#34d399"},
	{"gifts", "Gifts", "#fb7185"},
	{"other", "Other", "#94a3b8"},
}

const defaultCategoryColor = "#94a3b8"

func categoryColor(category string) string {
	catLower := strings.ToLower(strings.TrimSpace(category))
	for _, c := range categories {
		if c.ID == catLower {
			return c.Color
		}
	}
	return defaultCategoryColor
}

// ExpenseItem represents an expense in the list views.
type ExpenseItem struct {
	models.Expense
	Color string
}

// ExpensesViewModel is the data passed to the index and view templates.
type ExpensesViewModel struct {
	Expenses   []ExpenseItem
	Total      float64
	Today      string
	Categories []CategoryDef
}

// Home renders the add form followed by the user's expenses.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.renderExpenses(w, r, "index.html", "Expenses")
}

// View renders the user's expenses with delete controls.
func (h *Handlers) View(w http.ResponseWriter, r *http.Request) {
	h.renderExpenses(w, r, "view.html", "All expenses")
}

func (h *Handlers) renderExpenses(w http.ResponseWriter, r *http.Request, viewName, title string) {
	user := GetUserFromContext(r)
	expenses, err := h.store.GetExpenses(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "list expenses", err)
		return
	}

	items := make([]ExpenseItem, 0, len(expenses))
	var total float64
	for _, e := range expenses {
		items = append(items, ExpenseItem{Expense: e, Color: categoryColor(e.Category)})
		total += e.Amount
	}

	h.render(w, r, viewName, title, ExpensesViewModel{
		Expenses:   items,
		Total:      total,
		Today:      time.Now().Format("2006-01-02"),
		Categories: categories,
	})
}

// AddExpense stores a new expense for the current user.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	form, err := parseExpenseForm(r)
	if err != nil {
		msg := "Invalid form submission"
		if errors.Is(err, common.ErrInvalidInput) {
			msg = strings.TrimPrefix(err.Error(), common.ErrInvalidInput.Error()+": ")
		}
		h.redirectWithFlash(w, "/", flashError, msg)
		return
	}

	e, err := h.store.AddExpense(r.Context(), form.date.String(), form.category, form.description, form.amount, user.ID)
	if err != nil {
		h.serverError(w, r, "add expense", err)
		return
	}

	logging.FromContext(r.Context()).Info("expense added",
		"user_id", user.ID, "expense_id", e.ID, "date", e.Date, "amount", e.Amount)
	h.redirectWithFlash(w, "/", flashSuccess, "Expense added")
}

// DeleteExpense removes an expense if the current user owns it. Missing or
// foreign ids are ignored.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, "/view", flashError, "Invalid expense id")
		return
	}

	deleted, err := h.store.DeleteExpense(r.Context(), id, user.ID)
	if err != nil {
		h.serverError(w, r, "delete expense", err)
		return
	}

	logger := logging.FromContext(r.Context())
	if !deleted {
		logger.Info("delete matched no expense", "user_id", user.ID, "expense_id", id)
		http.Redirect(w, r, "/view", http.StatusFound)
		return
	}
	logger.Info("expense deleted", "user_id", user.ID, "expense_id", id)
	h.redirectWithFlash(w, "/view", flashSuccess, "Expense deleted")
}

type expenseForm struct {
	date        models.Date
	category    string
	description string
	amount      float64
}

func parseExpenseForm(r *http.Request) (*expenseForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	date, err := models.ParseDate(r.FormValue("date"))
	if err != nil {
		return nil, fmt.Errorf("%w: date must be MM-DD-YYYY", common.ErrInvalidInput)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("amount")), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: amount must be a number", common.ErrInvalidInput)
	}

	return &expenseForm{
		date:        date,
		category:    strings.TrimSpace(r.FormValue("category")),
		description: strings.TrimSpace(r.FormValue("description")),
		amount:      amount,
	}, nil
}

func formatMoney(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	if v < 0 && s != "0.00" {
		return "-" + s
	}
	return s
}
