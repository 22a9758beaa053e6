package assistant

import (
	"regexp"
	"strings"
)

// Intent names the branch that handled a turn
type Intent string

const (
	IntentEmpty         Intent = "empty"
	IntentRemove        Intent = "remove"
	IntentExclusive     Intent = "exclusive"
	IntentCollect       Intent = "collect_detail"
	IntentBestSellers   Intent = "best_sellers"
	IntentMostExpensive Intent = "most_expensive"
	IntentTopRated      Intent = "top_rated"
	IntentPrice         Intent = "price"
	IntentBudget        Intent = "budget"
	IntentMenu          Intent = "menu"
	IntentAvailability  Intent = "availability"
	IntentGreeting      Intent = "greeting"
	IntentGratitude     Intent = "gratitude"
	IntentSummary       Intent = "summary"
	IntentReset         Intent = "reset"
	IntentConfirm       Intent = "confirm"
	IntentOrder         Intent = "order"
	IntentFallback      Intent = "fallback"
)

var (
	orderKeywords    = []string{"order", "add", "buy", "need", "want", "get me", "give me", "take", "another", "one more"}
	deliveryKeywords = []string{"deliver", "delivery", "address", "doorstep", "drop", "ship"}
	diningKeywords   = []string{"dine", "table", "here", "inside", "seat", "dining"}

	anyDigit      = regexp.MustCompile(`\d`)
	budgetPattern = regexp.MustCompile(`(under|below|less than)\s*\d+`)
	amountPattern = regexp.MustCompile(`\d+`)
)

// rule is one entry of the priority-ordered dispatch table. A handler that
// returns handled=false lets evaluation continue with the next rule.
type rule struct {
	intent Intent
	match  func(t *turn) bool
	handle func(t *turn) (Reply, bool, error)
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func mentions(keywords ...string) func(t *turn) bool {
	return func(t *turn) bool { return containsAny(t.text, keywords...) }
}

func always(fn func(t *turn) (Reply, error)) func(t *turn) (Reply, bool, error) {
	return func(t *turn) (Reply, bool, error) {
		r, err := fn(t)
		return r, true, err
	}
}

func isBudgetQuery(t *turn) bool {
	return strings.Contains(t.text, "budget") || budgetPattern.MatchString(t.text)
}

// detectOrderType updates the order type whenever either keyword family appears
func detectOrderType(text string, st *State) {
	switch {
	case containsAny(text, deliveryKeywords...):
		st.OrderType = OrderTypeDelivery
	case containsAny(text, diningKeywords...):
		st.OrderType = OrderTypeDining
	}
}

// buildRules returns the dispatch table. Order is the precedence contract:
// "clear" is a removal word before it is a reset word.
func (e *Engine) buildRules() []rule {
	return []rule{
		{IntentRemove, mentions("remove", "clear", "cancel"), always(e.handleRemove)},
		{IntentExclusive, mentions("only", "just"), e.handleExclusive},
		{IntentCollect, func(t *turn) bool { return len(t.state.PendingFields) > 0 }, always(e.collectDetail)},
		{IntentBestSellers, mentions("best seller", "best-selling", "popular", "trend"), always(e.handleBestSellers)},
		{IntentMostExpensive, mentions("most expensive", "highest price"), always(e.handleMostExpensive)},
		{IntentTopRated, mentions("best", "top rated"), always(e.handleTopRated)},
		{IntentPrice, mentions("price"), always(e.handlePrice)},
		{IntentBudget, isBudgetQuery, always(e.handleBudget)},
		{IntentMenu, mentions("menu"), always(e.handleMenu)},
		{IntentAvailability, mentions("flavour", "type", "available"), always(e.handleAvailability)},
		{IntentGreeting, mentions("hello"), always(e.handleGreeting)},
		{IntentGratitude, mentions("thanks", "thank you"), always(e.handleGratitude)},
		{IntentSummary, mentions("summary", "cart"), always(e.handleSummary)},
		{IntentReset, mentions("reset", "clear"), always(e.handleReset)},
		{IntentConfirm, mentions("confirm"), always(e.handleConfirm)},
		{IntentOrder, mentions(orderKeywords...), always(e.handleOrder)},
		{IntentFallback, func(*turn) bool { return true }, always(func(*turn) (Reply, error) { return e.fallback(), nil })},
	}
}

// Intents returns the dispatch order, highest priority first
func (e *Engine) Intents() []Intent {
	out := make([]Intent, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.intent)
	}
	return out
}

func (e *Engine) handleRemove(t *turn) (Reply, error) {
	st := t.state
	if len(st.Items) == 0 {
		return text("Your cart is already empty. What would you like to order?"), nil
	}
	named := ResolveRemovals(t.text, t.snap.Menu)
	if len(named) == 0 {
		st.Reset()
		return text("I've cleared your cart. What would you like to order now?"), nil
	}
	if st.RemoveItems(named) == 0 {
		return e.summary(st, "None of those items are in your cart, so no items were removed. Here is your current order:"), nil
	}
	if len(st.Items) == 0 {
		st.Reset()
		return text("All requested items removed. Your cart is now empty. What would you like to order?"), nil
	}
	return e.summary(st, "Updated cart after removal:"), nil
}

func (e *Engine) handleExclusive(t *turn) (Reply, bool, error) {
	t.state.Items = []CartLine{}
	if anyDigit.MatchString(t.text) || len(e.matcher.MatchItems(t.text, t.snap.Menu)) > 0 {
		r, err := e.handleOrder(t)
		return r, true, err
	}
	return Reply{}, false, nil
}

func (e *Engine) handleBestSellers(t *turn) (Reply, error) {
	if len(t.snap.TopSellers) == 0 {
		preview := t.snap.Menu
		if len(preview) > e.settings.HighlightPreview {
			preview = preview[:e.settings.HighlightPreview]
		}
		return textf("Our current highlights are: %s. Would you like to add any of them?", e.listing(preview)), nil
	}
	names := make([]string, 0, len(t.snap.TopSellers))
	for _, row := range t.snap.TopSellers {
		names = append(names, row.Name)
	}
	return textf("Our best sellers right now are %s. Should I add one to your order?", strings.Join(names, ", ")), nil
}

func (e *Engine) handleMostExpensive(t *turn) (Reply, error) {
	item, ok := t.snap.MostExpensive()
	if !ok {
		return text("Sorry, currently I don't have this information."), nil
	}
	t.state.LastReferencedItem = item.Name
	return textf("The most expensive item is %s (%s). Would you like to order it?", item.Name, e.money(item.Price)), nil
}

func (e *Engine) handleTopRated(t *turn) (Reply, error) {
	if len(t.snap.TopSellers) == 0 {
		return text("Sorry, currently I don't have this information."), nil
	}
	best := t.snap.TopSellers[0]
	t.state.LastReferencedItem = best.Name
	return textf("Our best selling item right now is %s. Would you like to know its price or add it to your cart?", best.Name), nil
}

func (e *Engine) handlePrice(t *turn) (Reply, error) {
	name, ok := e.matcher.ResolveItem(t.text, t.snap.Menu)
	if !ok && t.state.LastReferencedItem != "" {
		name, ok = t.state.LastReferencedItem, true
	}
	if !ok {
		return text("Which item would you like the price for? Please specify."), nil
	}
	item, found := t.snap.ItemByName(name)
	if !found {
		return text("Sorry, price information not found for that item."), nil
	}
	t.state.LastReferencedItem = item.Name
	return textf("The price of %s is %s. Would you like to add it to your cart?", item.Name, e.money(item.Price)), nil
}

func (e *Engine) handleBudget(t *turn) (Reply, error) {
	amount := amountPattern.FindString(t.text)
	if amount == "" {
		return text("Share your target budget (e.g., 'under 150') and I'll suggest items."), nil
	}
	ceiling, err := parseAmount(amount)
	if err != nil {
		return text("Share your target budget (e.g., 'under 150') and I'll suggest items."), nil
	}
	within := t.snap.AtOrBelow(ceiling)
	if len(within) == 0 {
		return textf("I don't have anything under %s. Try a higher budget?", e.money(ceiling)), nil
	}
	if len(within) > e.settings.BudgetPreview {
		within = within[:e.settings.BudgetPreview]
	}
	return textf("Within %s, you could try %s. Want me to add any of these?", e.money(ceiling), e.listing(within)), nil
}

func (e *Engine) handleMenu(t *turn) (Reply, error) {
	categories := t.snap.Categories()
	if strings.Contains(t.text, "category") {
		return e.categoryReply(t, categories), nil
	}
	if _, ok := e.matcher.ResolveCategory(t.text, categories); ok {
		return e.categoryReply(t, categories), nil
	}
	return e.fullMenu(t.snap), nil
}

func (e *Engine) categoryReply(t *turn, categories []string) Reply {
	if c, ok := e.matcher.ResolveCategory(t.text, categories); ok {
		return textf("In %s, we have %s. Would you like to add any of them?", c, e.listing(t.snap.InCategory(c)))
	}
	return textf("We offer categories such as %s. Ask me for any category to see recommendations.", strings.Join(categories, ", "))
}

func (e *Engine) handleAvailability(t *turn) (Reply, error) {
	if c, ok := ExactCategory(t.text, t.snap.Categories()); ok {
		return textf("In %s, we have: %s.", c, e.listing(t.snap.InCategory(c))), nil
	}
	return e.fullMenu(t.snap), nil
}

func (e *Engine) handleGreeting(*turn) (Reply, error) {
	return text("Hi! I can help with our menu, prices and placing your order. How can I help you?"), nil
}

func (e *Engine) handleGratitude(*turn) (Reply, error) {
	return text("I am glad I could help!"), nil
}

func (e *Engine) handleSummary(t *turn) (Reply, error) {
	return e.summary(t.state, "Here is your current order:"), nil
}

func (e *Engine) handleReset(t *turn) (Reply, error) {
	t.state.Reset()
	return text("Your cart is now empty. What would you like to order?"), nil
}

func (e *Engine) handleConfirm(t *turn) (Reply, error) {
	return e.finalize(t, true)
}

func (e *Engine) handleOrder(t *turn) (Reply, error) {
	matches := e.matcher.MatchItems(t.text, t.snap.Menu)
	if len(matches) == 0 {
		return text("I couldn't find that item. Try 'order 1 cappuccino' or 'add veg biryani x2'."), nil
	}
	for _, m := range matches {
		item, ok := t.snap.Item(m.ItemID)
		if !ok {
			continue
		}
		t.state.AddItem(item.ID, item.Name, m.Quantity, item.Price)
		t.state.LastReferencedItem = item.Name
	}
	return e.summary(t.state, "Great choice! Here's your updated cart:"), nil
}

func (e *Engine) fallback() Reply {
	return Reply{
		Text:   "I can show best sellers, the full menu, suggest items by budget or category, and place orders. What would you like to do?",
		Intent: IntentFallback,
	}
}
