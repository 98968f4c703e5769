package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/services"
)

// textRenderer draws the cart panel whenever it is open.
type textRenderer struct {
	app *App
}

func (r *textRenderer) Render(vm services.ViewModel, open bool) {
	if !open {
		return
	}
	r.app.outMu.Lock()
	defer r.app.outMu.Unlock()
	writePanel(r.app.out, vm)
}

func writePanel(w io.Writer, vm services.ViewModel) {
	fmt.Fprintln(w, "┌ Cart")
	if vm.Empty {
		fmt.Fprintln(w, "│ Your cart is empty.")
	}
	for _, row := range vm.Rows {
		fmt.Fprintf(w, "│ %-24s %4d x %-10s  [%s]\n", row.Title, row.Qty, row.PriceDisplay, row.ID)
	}
	fmt.Fprintf(w, "└ %d item(s), total %s\n", vm.Count, vm.TotalDisplay)
}

func writeOrder(w io.Writer, o *models.Order, currency string) {
	fmt.Fprintf(w, "Order %s\n", o.ID)
	fmt.Fprintf(w, "  placed:   %s\n", o.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  customer: %s <%s>\n", o.Customer.Name, o.Customer.Email)
	fmt.Fprintf(w, "  ship to:  %s\n", o.Customer.Address)
	if o.Customer.Phone != "" {
		fmt.Fprintf(w, "  phone:    %s\n", o.Customer.Phone)
	}
	if o.Customer.Notes != "" {
		fmt.Fprintf(w, "  notes:    %s\n", o.Customer.Notes)
	}
	fmt.Fprintf(w, "  payment:  %s %s\n", o.Payment.Brand, o.Payment.Masked)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  - %s x%d %s\n", it.Title, it.Quantity(), it.Price)
	}
	fmt.Fprintf(w, "  total:    %s%s\n", currency, o.Total.StringFixed(2))
}

func orderLine(o models.Order, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %d item(s)  %s%s", o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), o.Items.Count(), currency, o.Total.StringFixed(2))
	if o.UserID != nil {
		fmt.Fprintf(&b, "  user %s", *o.UserID)
	}
	return b.String()
}
