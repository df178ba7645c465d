// Package handlers holds the HTTP surface: the manual receipt entry
// form and the spending report API. Every route except /ping sits
// behind the JWT middleware; users reach the form through tokenized
// links minted by the bot.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/receipt"
)

// Saver persists the rows of one submitted receipt.
type Saver interface {
	Save(ctx context.Context, rows []receipt.Record) error
}

type FormHandler struct {
	saver    Saver
	validate *validator.Validate
	logger   *slog.Logger
}

func NewFormHandler(log *slog.Logger, saver Saver) *FormHandler {
	return &FormHandler{
		saver:    saver,
		validate: validator.New(),
		logger:   log.With(slog.String("handler", "form")),
	}
}

func (h *FormHandler) Register(e *echo.Echo) {
	e.GET("/form", h.Page)
	e.POST("/api/receipts", h.Submit)
}

type formItem struct {
	Category string  `json:"category"`
	Product  string  `json:"product" validate:"required"`
	Quantity int64   `json:"quantity" validate:"gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type formPayload struct {
	Date     string     `json:"date"`
	Time     string     `json:"time"`
	Store    string     `json:"store" validate:"required"`
	CheckID  string     `json:"check_id"`
	Currency string     `json:"currency"`
	Total    float64    `json:"total" validate:"gte=0"`
	Items    []formItem `json:"items" validate:"dive"`
}

// Page serves the manual entry form. The page keeps the token from its
// own URL and posts the receipt back with it.
func (h *FormHandler) Page(c echo.Context) error {
	if _, err := auth.UserIDFromContext(c); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, formPage)
}

// Submit validates and persists a manually entered receipt.
func (h *FormHandler) Submit(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var payload formPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	draft := receipt.Draft{
		Header: receipt.Header{
			Date:     payload.Date,
			Time:     payload.Time,
			Store:    payload.Store,
			CheckID:  payload.CheckID,
			Currency: payload.Currency,
			Total:    payload.Total,
		},
	}
	groups := map[string]int{}
	for _, item := range payload.Items {
		idx, ok := groups[item.Category]
		if !ok {
			draft.Categories = append(draft.Categories, receipt.CategoryGroup{Name: item.Category})
			idx = len(draft.Categories) - 1
			groups[item.Category] = idx
		}
		draft.Categories[idx].Items = append(draft.Categories[idx].Items, receipt.Line{
			Product:  item.Product,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	rows := draft.Records(userID)
	if err := h.saver.Save(c.Request().Context(), rows); err != nil {
		h.logger.Error("saving form receipt", slog.Int64("user_id", userID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save receipt")
	}

	h.logger.Info("form receipt saved", slog.Int64("user_id", userID), slog.Int("rows", len(rows)))
	return c.JSON(http.StatusCreated, map[string]int{"rows": len(rows)})
}

const formPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Add receipt</title></head>
<body>
<h1>Add receipt</h1>
<form id="receipt">
  <label>Store <input name="store" required></label><br>
  <label>Date <input name="date" placeholder="2026-09-01"></label><br>
  <label>Time <input name="time" placeholder="12:45"></label><br>
  <label>Receipt no. <input name="check_id"></label><br>
  <label>Currency <input name="currency" placeholder="EUR"></label><br>
  <label>Total <input name="total" type="number" step="0.01" required></label><br>
  <h2>Items</h2>
  <textarea name="items" rows="8" cols="60"
    placeholder="category; product; quantity; price (one item per line)"></textarea><br>
  <button type="submit">Save</button>
</form>
<p id="status"></p>
<script>
document.getElementById("receipt").addEventListener("submit", async (ev) => {
  ev.preventDefault();
  const data = new FormData(ev.target);
  const items = (data.get("items") || "").split("\n")
    .map(line => line.trim()).filter(Boolean)
    .map(line => {
      const [category, product, quantity, price] = line.split(";").map(s => s.trim());
      return {category: category || "", product: product || "",
              quantity: parseInt(quantity || "1", 10) || 1,
              price: parseFloat((price || "0").replace(",", ".")) || 0};
    });
  const token = new URLSearchParams(location.search).get("token");
  const resp = await fetch("/api/receipts?token=" + encodeURIComponent(token), {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({
      store: data.get("store"), date: data.get("date"), time: data.get("time"),
      check_id: data.get("check_id"), currency: data.get("currency"),
      total: parseFloat((data.get("total") || "0").replace(",", ".")) || 0,
      items: items,
    }),
  });
  document.getElementById("status").textContent =
    resp.ok ? "Saved." : "Error: " + resp.status;
});
</script>
</body>
</html>`
