package handlers

import (
	"errors"
	"net/http"

	"expensetracker/internal/common"
	"expensetracker/internal/logging"
	"expensetracker/internal/totals"
)

// CategoryRow is a category total with its display color.
type CategoryRow struct {
	totals.CategoryTotal
	Color string
}

// TotalsViewModel is the data passed to the totals template.
type TotalsViewModel struct {
	*totals.Summary
	CategoryRows []CategoryRow
}

// Calculate renders the overall, yearly, monthly and per-category totals.
func (h *Handlers) Calculate(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	expenses, err := h.store.GetExpenses(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "list expenses", err)
		return
	}

	summary, err := totals.Summarize(expenses)
	if errors.Is(err, common.ErrInvalidDateFormat) {
		logging.FromContext(r.Context()).Warn("cannot aggregate expenses", "user_id", user.ID, "error", err)
		h.redirectWithFlash(w, "/view", flashError,
			"Some expenses have an invalid date; delete and re-add them to see totals")
		return
	}
	if err != nil {
		h.serverError(w, r, "summarize expenses", err)
		return
	}

	rows := make([]CategoryRow, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		rows = append(rows, CategoryRow{CategoryTotal: c, Color: categoryColor(c.Category)})
	}

	h.render(w, r, "totals.html", "Totals", TotalsViewModel{Summary: summary, CategoryRows: rows})
}
