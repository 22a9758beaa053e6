package assistant

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	menu []MenuEntry
	top  []TopSeller
	err  error
}

func (f *fakeCatalog) ActiveItems(context.Context) ([]MenuEntry, error) {
	return f.menu, f.err
}

func (f *fakeCatalog) TopSellers(_ context.Context, limit int) ([]TopSeller, error) {
	if len(f.top) > limit {
		return f.top[:limit], f.err
	}
	return f.top, f.err
}

type fakeCommitter struct {
	requests []CommitRequest
	err      error
	nextID   uint
}

func (f *fakeCommitter) CommitOrder(_ context.Context, req CommitRequest) (CommittedOrder, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return CommittedOrder{}, f.err
	}
	if f.nextID == 0 {
		f.nextID = 42
	}
	return CommittedOrder{OrderID: f.nextID, CustomerID: 7, OrderType: req.OrderType, TotalAmount: req.Total}, nil
}

var errDiskFull = errors.New("disk full")

func category(name string) *string {
	return &name
}

func testMenu() []MenuEntry {
	return []MenuEntry{
		{ID: 1, Name: "Cappuccino", Price: decimal.NewFromInt(80), CategoryName: category("Beverages")},
		{ID: 2, Name: "Samosa", Price: decimal.NewFromInt(30), CategoryName: category("Snacks")},
		{ID: 3, Name: "Biryani", Price: decimal.NewFromInt(150), CategoryName: category("Rice")},
		{ID: 4, Name: "Masala Chai", Price: decimal.NewFromInt(40), CategoryName: category("Beverages")},
		{ID: 5, Name: "Paneer Tikka", Price: decimal.RequireFromString("180.50"), CategoryName: category("Snacks")},
	}
}

func member() Actor {
	return Actor{Authenticated: true, UserID: 3, Username: "asha", Email: "asha@example.com"}
}

func newTestEngine(top ...TopSeller) (*Engine, *fakeCatalog, *fakeCommitter) {
	catalog := &fakeCatalog{menu: testMenu(), top: top}
	committer := &fakeCommitter{}
	return NewEngine(catalog, committer), catalog, committer
}
