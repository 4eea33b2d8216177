package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookstore-backoffice/bookstore"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type sessionRunFunc func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error

// authed wraps fn so it runs with an open store and a resumed session.
func (a *app) authed(fn sessionRunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.session(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, args, a.mgr, s)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, &bookstore.Error{Kind: bookstore.ErrValidation, Op: "parse id", Field: "id"}
	}
	return id, nil
}

// ------------------ init / login ------------------

func newInitCommand(a *app) *cobra.Command {
	var in bookstore.StaffInput
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the store and its first Manager",
		Long: `Create the database schema (SQLite or MySQL) and the first Manager account.
Nothing is created when a Manager already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			pw, err := readPassword("Password for " + in.Email + ": ")
			if err != nil {
				return err
			}
			in.Password = pw
			id, created, err := mgr.Staff.EnsureManager(cmd.Context(), in)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "A Manager already exists; nothing to do.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manager created with ID %d.\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "manager name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "manager email (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "manager phone (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep a signed session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			pw, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			s, err := mgr.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			if err := a.saveSession(s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", s.Name, s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "staff email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.clearSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in staff member",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, _ *bookstore.BookstoreManager, s bookstore.Session) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID %d, %s)\n", s.Name, s.StaffID, s.Role)
			return nil
		}),
	}
}

// ------------------ Books ------------------

type bookFlags struct {
	name, genre, quantity, author, publisher, price string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "title")
	cmd.Flags().StringVar(&f.genre, "genre", "", "genre")
	cmd.Flags().StringVar(&f.quantity, "quantity", "", "copies in stock")
	cmd.Flags().StringVar(&f.author, "author", "", "author")
	cmd.Flags().StringVar(&f.publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&f.price, "price", "", "unit price")
}

// overlay fills unset flags from the current book.
func (f bookFlags) overlay(cmd *cobra.Command, b *bookstore.Book) bookFlags {
	keep := func(flag, cur string, dst *string) {
		if !cmd.Flags().Changed(flag) {
			*dst = cur
		}
	}
	keep("name", b.Name, &f.name)
	keep("genre", b.Genre, &f.genre)
	keep("quantity", strconv.Itoa(b.Quantity), &f.quantity)
	keep("author", b.Author, &f.author)
	keep("publisher", b.Publisher, &f.publisher)
	keep("price", b.Price.String(), &f.price)
	return f
}

func (f bookFlags) fields() (bookstore.BookFields, error) {
	return bookstore.ParseBookFields(f.name, f.genre, f.quantity, f.author, f.publisher, f.price)
}

func printBooks(w io.Writer, books []*bookstore.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-5s %-30s %-20s %-15s %5s %10s\n", "ID", "Name", "Author", "Genre", "Qty", "Price")
	for _, b := range books {
		fmt.Fprintln(w, bookstore.PrettyBook(b))
	}
}

func newBookCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage the catalog"}

	var add bookFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			f, err := add.fields()
			if err != nil {
				return err
			}
			id, err := mgr.Inventory.AddBook(cmd.Context(), s, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book added with ID %d.\n", id)
			return nil
		}),
	}
	add.register(addCmd)
	for _, name := range []string{"name", "genre", "quantity", "author", "publisher", "price"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	var upd bookFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a book; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := mgr.Inventory.GetBook(cmd.Context(), id)
			if err != nil {
				return err
			}
			f, err := upd.overlay(cmd, cur).fields()
			if err != nil {
				return err
			}
			if err := mgr.Inventory.Adjust(cmd.Context(), s, id, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d updated.\n", id)
			return nil
		}),
	}
	upd.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a book that has no order history",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := mgr.Inventory.Remove(cmd.Context(), s, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d deleted.\n", id)
			return nil
		}),
	}

	var inStock bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			var (
				books []*bookstore.Book
				err   error
			)
			if inStock {
				books, err = mgr.Inventory.ListInStock(cmd.Context())
			} else {
				books, err = mgr.Inventory.ListBooks(cmd.Context())
			}
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		}),
	}
	listCmd.Flags().BoolVar(&inStock, "in-stock", false, "only books with copies available")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search by name, author, genre or publisher",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			books, err := mgr.Inventory.SearchBooks(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		}),
	}

	logCmd := &cobra.Command{
		Use:   "log [id]",
		Short: "Show the audit trail, optionally for one book",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			entries, err := mgr.Audit.Entries(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No log entries.")
				return nil
			}
			fmt.Fprintf(w, "%-6s %-6s %-7s %-6s %s\n", "Entry", "Book", "Action", "Staff", "Time")
			for _, e := range entries {
				fmt.Fprintf(w, "%-6d %-6d %-7s %-6d %s\n", e.ID, e.BookID, e.Action, e.Actor, e.At.Format("2006-01-02 15:04:05"))
			}
			return nil
		}),
	}

	cmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd, searchCmd, logCmd)
	return cmd
}

// ------------------ Customers ------------------

type customerFlags struct {
	name, phone, email string
	member             bool
}

func (f *customerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "customer name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "email (optional)")
	cmd.Flags().BoolVar(&f.member, "member", false, "membership")
}

func (f customerFlags) input() bookstore.CustomerInput {
	return bookstore.CustomerInput{Name: f.name, Phone: f.phone, Email: f.email, Membership: f.member}
}

func printCustomer(w io.Writer, c *bookstore.Customer) {
	member := "No"
	if c.Membership {
		member = "Yes"
	}
	fmt.Fprintf(w, "%-5d %-30s %-16s %-30s %s\n", c.ID, c.Name, c.Phone, c.Email, member)
}

func newCustomerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Manage customer accounts"}

	var add customerFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := mgr.Customers.AddCustomer(cmd.Context(), s, add.input())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customer added with ID %d.\n", id)
			return nil
		}),
	}
	add.register(addCmd)
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("phone")

	var upd customerFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a customer; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := mgr.Customers.GetCustomer(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := upd.input()
			if !cmd.Flags().Changed("name") {
				in.Name = cur.Name
			}
			if !cmd.Flags().Changed("phone") {
				in.Phone = cur.Phone
			}
			if !cmd.Flags().Changed("email") {
				in.Email = cur.Email
			}
			if !cmd.Flags().Changed("member") {
				in.Membership = cur.Membership
			}
			if err := mgr.Customers.UpdateCustomer(cmd.Context(), s, id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customer %d updated.\n", id)
			return nil
		}),
	}
	upd.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer without orders",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := mgr.Customers.DeleteCustomer(cmd.Context(), s, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customer %d deleted.\n", id)
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			customers, err := mgr.Customers.ListCustomers(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(customers) == 0 {
				fmt.Fprintln(w, "No customers found.")
				return nil
			}
			fmt.Fprintf(w, "%-5s %-30s %-16s %-30s %s\n", "ID", "Name", "Phone", "Email", "Member")
			for _, c := range customers {
				printCustomer(w, c)
			}
			return nil
		}),
	}

	cmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd)
	return cmd
}

// ------------------ Staff ------------------

func newStaffCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "staff", Short: "Manage staff accounts (Manager only)"}

	var (
		add     bookstore.StaffInput
		addRole string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a staff member",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			add.Role = bookstore.Role(addRole)
			pw, err := readPassword("Password for " + add.Email + ": ")
			if err != nil {
				return err
			}
			add.Password = pw
			id, err := mgr.Staff.AddStaff(cmd.Context(), s, add)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staff added with ID %d.\n", id)
			return nil
		}),
	}
	addCmd.Flags().StringVar(&add.Name, "name", "", "name")
	addCmd.Flags().StringVar(&addRole, "role", string(bookstore.RoleClerk), "Manager, Clerk or Librarian")
	addCmd.Flags().StringVar(&add.Email, "email", "", "email")
	addCmd.Flags().StringVar(&add.Phone, "phone", "", "phone")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("email")
	_ = addCmd.MarkFlagRequired("phone")

	var (
		upd        bookstore.StaffInput
		updRole    string
		changePass bool
	)
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a staff member; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := mgr.Staff.GetStaff(cmd.Context(), s, id)
			if err != nil {
				return err
			}
			in := upd
			in.Role = bookstore.Role(updRole)
			if !cmd.Flags().Changed("name") {
				in.Name = cur.Name
			}
			if !cmd.Flags().Changed("role") {
				in.Role = cur.Role
			}
			if !cmd.Flags().Changed("email") {
				in.Email = cur.Email
			}
			if !cmd.Flags().Changed("phone") {
				in.Phone = cur.Phone
			}
			if changePass {
				if in.Password, err = readPassword("New password: "); err != nil {
					return err
				}
			}
			if err := mgr.Staff.UpdateStaff(cmd.Context(), s, id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staff %d updated.\n", id)
			return nil
		}),
	}
	updateCmd.Flags().StringVar(&upd.Name, "name", "", "name")
	updateCmd.Flags().StringVar(&updRole, "role", "", "Manager, Clerk or Librarian")
	updateCmd.Flags().StringVar(&upd.Email, "email", "", "email")
	updateCmd.Flags().StringVar(&upd.Phone, "phone", "", "phone")
	updateCmd.Flags().BoolVar(&changePass, "password", false, "prompt for a new password")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a staff member",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := mgr.Staff.DeleteStaff(cmd.Context(), s, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staff %d deleted.\n", id)
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List staff",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			staff, err := mgr.Staff.ListStaff(cmd.Context(), s)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-5s %-30s %-10s %-30s %-16s %s\n", "ID", "Name", "Role", "Email", "Phone", "Hired")
			for _, st := range staff {
				fmt.Fprintf(w, "%-5d %-30s %-10s %-30s %-16s %s\n",
					st.ID, st.Name, st.Role, st.Email, st.Phone, st.HireDate.Format("2006-01-02"))
			}
			return nil
		}),
	}

	cmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd)
	return cmd
}

// ------------------ Orders ------------------

// parseLine reads "bookID:qty".
func parseLine(s string) (bookstore.LineRequest, error) {
	id, qty, ok := strings.Cut(s, ":")
	if !ok {
		return bookstore.LineRequest{}, &bookstore.Error{Kind: bookstore.ErrValidation, Op: "parse line " + strconv.Quote(s), Field: "line"}
	}
	bookID, err := parseID(id)
	if err != nil {
		return bookstore.LineRequest{}, err
	}
	if !bookstore.ValidQuantity(qty) {
		return bookstore.LineRequest{}, &bookstore.Error{Kind: bookstore.ErrValidation, Op: "parse line " + strconv.Quote(s), Field: "quantity"}
	}
	n, _ := strconv.Atoi(strings.TrimSpace(qty))
	return bookstore.LineRequest{BookID: bookID, Quantity: n}, nil
}

func printOrder(w io.Writer, o *bookstore.Order) {
	fmt.Fprintln(w, bookstore.PrettyOrder(o))
	if len(o.Items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-6s %-5s %10s %10s\n", "Book", "Qty", "Price", "Subtotal")
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %-6d %-5d %10s %10s\n", it.BookID, it.Quantity, it.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
}

func newOrderCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Place and manage orders"}

	var (
		customer string
		lines    []string
		status   string
	)
	placeCmd := &cobra.Command{
		Use:   "place",
		Short: "Place an order in one step",
		Example: `  bookstore order place --customer 7 --line 12:2 --line 3:1
  bookstore order place --customer 7 --line 12:1 --status Pending`,
		Args: cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
			customerID, err := parseID(customer)
			if err != nil {
				return err
			}
			reqs := make([]bookstore.LineRequest, 0, len(lines))
			for _, l := range lines {
				r, err := parseLine(l)
				if err != nil {
					return err
				}
				reqs = append(reqs, r)
			}
			id, err := mgr.PlaceOrder(cmd.Context(), s, customerID, reqs, bookstore.OrderStatus(status))
			if err != nil {
				return err
			}
			return showOrder(cmd.Context(), cmd.OutOrStdout(), mgr, id)
		}),
	}
	placeCmd.Flags().StringVar(&customer, "customer", "", "customer ID (required)")
	placeCmd.Flags().StringArrayVar(&lines, "line", nil, "bookID:quantity, repeatable")
	placeCmd.Flags().StringVar(&status, "status", string(bookstore.StatusCompleted), "Pending or Completed")
	_ = placeCmd.MarkFlagRequired("customer")
	_ = placeCmd.MarkFlagRequired("line")

	transition := func(use, short string, do func(*bookstore.OrderWorkflow) func(context.Context, bookstore.Session, int64) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, s bookstore.Session) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := do(mgr.Orders)(cmd.Context(), s, id); err != nil {
					return err
				}
				return showOrder(cmd.Context(), cmd.OutOrStdout(), mgr, id)
			}),
		}
	}
	completeCmd := transition("complete", "Complete a pending order and take its stock",
		func(w *bookstore.OrderWorkflow) func(context.Context, bookstore.Session, int64) error { return w.Complete })
	cancelCmd := transition("cancel", "Cancel a pending order",
		func(w *bookstore.OrderWorkflow) func(context.Context, bookstore.Session, int64) error { return w.Cancel })

	var listStatus string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: a.authed(func(cmd *cobra.Command, _ []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			orders, err := mgr.Orders.ListOrders(cmd.Context(), bookstore.OrderStatus(listStatus))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(orders) == 0 {
				fmt.Fprintln(w, "No orders found.")
				return nil
			}
			for _, o := range orders {
				fmt.Fprintln(w, bookstore.PrettyOrder(o))
			}
			return nil
		}),
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by Pending, Completed or Cancelled")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string, mgr *bookstore.BookstoreManager, _ bookstore.Session) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return showOrder(cmd.Context(), cmd.OutOrStdout(), mgr, id)
		}),
	}

	cmd.AddCommand(placeCmd, completeCmd, cancelCmd, listCmd, showCmd)
	return cmd
}

func showOrder(ctx context.Context, w io.Writer, mgr *bookstore.BookstoreManager, id int64) error {
	o, err := mgr.Orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	printOrder(w, o)
	return nil
}

// formatAmount renders money with two decimals.
func formatAmount(d decimal.Decimal) string { return d.StringFixed(2) }
