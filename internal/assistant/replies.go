package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func text(s string) Reply {
	return Reply{Text: s}
}

func textf(format string, args ...interface{}) Reply {
	return Reply{Text: fmt.Sprintf(format, args...)}
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func (e *Engine) money(d decimal.Decimal) string {
	return e.settings.Currency + d.String()
}

// listing renders entries as "Name (₹price), ..."
func (e *Engine) listing(entries []MenuEntry) string {
	parts := make([]string, 0, len(entries))
	for _, m := range entries {
		parts = append(parts, fmt.Sprintf("%s (%s)", m.Name, e.money(m.Price)))
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) fullMenu(snap Snapshot) Reply {
	return textf("Our menu:\n%s", e.listing(snap.Menu))
}

// summary renders the cart with exact subtotals and total
func (e *Engine) summary(st *State, prefix string) Reply {
	if len(st.Items) == 0 {
		return text("Your order is empty. Ask me to add something first.")
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, line := range st.Items {
		fmt.Fprintf(&b, "\n- %s x%d (%s)", line.Name, line.Quantity, e.money(line.Subtotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s. Say 'confirm' to place the order.", e.money(st.Total()))
	return text(b.String())
}
