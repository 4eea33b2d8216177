package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookstore-backoffice/bookstore"

	"github.com/spf13/cobra"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive order desk; the cart lives for the session",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			sh := &shell{
				mgr:  mgr,
				s:    s,
				cart: mgr.Orders.NewCart(),
				sc:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
			}
			return sh.run(cmd.Context())
		}),
	}
}

type shell struct {
	mgr      *bookstore.BookstoreManager
	s        bookstore.Session
	cart     *bookstore.Cart
	customer int64
	sc       *bufio.Scanner
	out      io.Writer
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out, "Available commands:")
	fmt.Fprintln(sh.out, "  Catalog: books, search, check")
	fmt.Fprintln(sh.out, "  Cart: customer, add, cart, clear")
	fmt.Fprintln(sh.out, "  Orders: checkout, hold, complete, cancel, orders")
	fmt.Fprintln(sh.out, "  System: help, exit")
}

func (sh *shell) run(ctx context.Context) error {
	fmt.Fprintf(sh.out, "Order desk for %s (%s).\n", sh.s.Name, sh.s.Role)
	sh.help()

	for {
		fmt.Fprint(sh.out, "\n> ")
		if !sh.sc.Scan() {
			return sh.sc.Err()
		}
		cmd := strings.TrimSpace(sh.sc.Text())

		var err error
		switch cmd {
		case "":
			continue
		case "books":
			err = sh.handleBooks(ctx)
		case "search":
			err = sh.handleSearch(ctx)
		case "check":
			err = sh.handleCheck(ctx)
		case "customer":
			err = sh.handleCustomer(ctx)
		case "add":
			err = sh.handleAdd(ctx)
		case "cart":
			sh.handleCart()
		case "clear":
			sh.cart.Clear()
			fmt.Fprintln(sh.out, "Cart cleared.")
		case "checkout":
			err = sh.handleCommit(ctx, bookstore.StatusCompleted)
		case "hold":
			err = sh.handleCommit(ctx, bookstore.StatusPending)
		case "complete":
			err = sh.handleTransition(ctx, sh.mgr.Orders.Complete, "completed")
		case "cancel":
			err = sh.handleTransition(ctx, sh.mgr.Orders.Cancel, "cancelled")
		case "orders":
			err = sh.handleOrders(ctx)
		case "help":
			sh.help()
		case "exit":
			if sh.cart.Len() > 0 {
				fmt.Fprintln(sh.out, "Discarding the unsaved cart.")
			}
			fmt.Fprintln(sh.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(sh.out, "Unknown command. Type \"help\" for the list.")
		}
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
}

func (sh *shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) promptID(label string) (int64, bool, error) {
	raw, ok := sh.prompt(label)
	if !ok {
		return 0, false, nil
	}
	id, err := parseID(raw)
	return id, true, err
}

func (sh *shell) handleBooks(ctx context.Context) error {
	books, err := sh.mgr.Inventory.ListInStock(ctx)
	if err != nil {
		return err
	}
	printBooks(sh.out, books)
	return nil
}

func (sh *shell) handleSearch(ctx context.Context) error {
	q, ok := sh.prompt("Search: ")
	if !ok {
		return nil
	}
	books, err := sh.mgr.Inventory.SearchBooks(ctx, q)
	if err != nil {
		return err
	}
	printBooks(sh.out, books)
	return nil
}

func (sh *shell) handleCheck(ctx context.Context) error {
	id, ok, err := sh.promptID("Book ID: ")
	if !ok || err != nil {
		return err
	}
	raw, ok := sh.prompt("Quantity: ")
	if !ok {
		return nil
	}
	qty, err := strconv.Atoi(raw)
	if err != nil || qty <= 0 {
		return &bookstore.Error{Kind: bookstore.ErrValidation, Op: "check stock", Field: "quantity"}
	}
	avail, err := sh.mgr.Inventory.CheckAvailable(ctx, id, qty)
	if err != nil {
		return err
	}
	if avail {
		fmt.Fprintf(sh.out, "%d cop(ies) of book %d available.\n", qty, id)
	} else {
		fmt.Fprintf(sh.out, "Not enough stock of book %d for %d.\n", id, qty)
	}
	return nil
}

func (sh *shell) handleCustomer(ctx context.Context) error {
	id, ok, err := sh.promptID("Customer ID: ")
	if !ok || err != nil {
		return err
	}
	c, err := sh.mgr.Customers.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	sh.customer = c.ID
	fmt.Fprintf(sh.out, "Ordering for %s.\n", c.Name)
	return nil
}

func (sh *shell) handleAdd(ctx context.Context) error {
	id, ok, err := sh.promptID("Book ID: ")
	if !ok || err != nil {
		return err
	}
	raw, ok := sh.prompt("Quantity: ")
	if !ok {
		return nil
	}
	if !bookstore.ValidQuantity(raw) {
		return &bookstore.Error{Kind: bookstore.ErrValidation, Op: "add to cart", Field: "quantity"}
	}
	qty, _ := strconv.Atoi(raw)
	line, err := sh.cart.Add(ctx, id, qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Added %d x %s at %s.\n", line.Quantity, line.BookName, formatAmount(line.UnitPrice))
	return nil
}

func (sh *shell) handleCart() {
	if sh.cart.Len() == 0 {
		fmt.Fprintln(sh.out, "Cart is empty.")
		return
	}
	fmt.Fprintf(sh.out, "%-6s %-30s %5s %10s %10s\n", "Book", "Name", "Qty", "Price", "Subtotal")
	for _, l := range sh.cart.Lines() {
		fmt.Fprintf(sh.out, "%-6d %-30s %5d %10s %10s\n",
			l.BookID, l.BookName, l.Quantity, formatAmount(l.UnitPrice), formatAmount(l.Subtotal()))
	}
	items, total := sh.cart.Total()
	fmt.Fprintf(sh.out, "%d item(s), total %s\n", items, formatAmount(total))
}

func (sh *shell) handleCommit(ctx context.Context, status bookstore.OrderStatus) error {
	if sh.customer == 0 {
		fmt.Fprintln(sh.out, "Pick a customer first (\"customer\").")
		return nil
	}
	id, err := sh.mgr.Orders.Commit(ctx, sh.s, sh.customer, sh.cart, status)
	if err != nil {
		// The cart is kept so the lines can be fixed and retried.
		return err
	}
	fmt.Fprintf(sh.out, "Order %d saved as %s.\n", id, status)
	return nil
}

func (sh *shell) handleTransition(ctx context.Context, do func(context.Context, bookstore.Session, int64) error, done string) error {
	id, ok, err := sh.promptID("Order ID: ")
	if !ok || err != nil {
		return err
	}
	if err := do(ctx, sh.s, id); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Order %d %s.\n", id, done)
	return nil
}

func (sh *shell) handleOrders(ctx context.Context) error {
	orders, err := sh.mgr.Orders.ListOrders(ctx, bookstore.StatusPending)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(sh.out, "No pending orders.")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintln(sh.out, bookstore.PrettyOrder(o))
	}
	return nil
}
