// Command quickplate is a terminal front end for the QuickPlate ordering
// backend: browse the menu, manage a cart, check out, and track orders live.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/internal/app"
	"github.com/quickplate/ordering-client/internal/config"
	"github.com/quickplate/ordering-client/internal/domain/menu"
	"github.com/quickplate/ordering-client/internal/domain/order"
	"github.com/quickplate/ordering-client/internal/session"
	"github.com/quickplate/ordering-client/internal/validate"
	"github.com/quickplate/ordering-client/pkg/logger"
)

func main() {
	// .env is optional; environment beats file either way.
	_ = godotenv.Load()

	cfg := config.LoadOrDefault()
	log := logger.NewDefault("quickplate")

	a, err := app.New(cfg, app.Hooks{
		OnSignedOut: func(reason string) {
			fmt.Printf("\n! Signed out (%s). Use `login` to sign in again.\n", reason)
		},
		OnNotice: func(n app.Notice) {
			fmt.Printf("\n* %s — %s\n", n.Title, n.Body)
		},
		OnPushState: func(connected bool, err error) {
			if connected {
				fmt.Println("\n* Connected to real-time updates")
			} else if err != nil {
				log.WithError(err).Debug("live updates unavailable, polling continues")
			}
		},
	}, log)
	if err != nil {
		log.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	defer a.Close()

	if cfg.DebugAddr != "" {
		go func() {
			if err := a.ServeDebug(cfg.DebugAddr); err != nil {
				log.WithError(err).Warn("debug listener stopped")
			}
		}()
	}

	if user, ok := a.CurrentUser(); ok {
		fmt.Printf("Welcome back, %s.\n", user.Name)
	} else {
		fmt.Println("Welcome to QuickPlate. Use `login` or `register` to get started.")
	}
	fmt.Println("Type `help` for commands.")

	repl(a)
}

func repl(a *app.App) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		switch cmd {
		case "help":
			printHelp()
		case "register":
			doRegister(ctx, a)
		case "login":
			doLogin(ctx, a)
		case "logout":
			_ = a.Logout()
		case "menu":
			doMenu(ctx, a, args)
		case "categories":
			doCategories(ctx, a)
		case "cart":
			doCart(ctx, a)
		case "add":
			doAdd(ctx, a, args)
		case "update":
			doUpdate(ctx, a, args)
		case "remove":
			doRemove(ctx, a, args)
		case "clear":
			doClear(ctx, a)
		case "checkout":
			doCheckout(ctx, a)
		case "orders":
			doOrders(ctx, a)
		case "track":
			cancel()
			doTrack(a, args)
			continue
		case "quit", "exit":
			cancel()
			return
		default:
			fmt.Printf("Unknown command %q. Type `help`.\n", cmd)
		}
		cancel()
	}
}

func printHelp() {
	fmt.Print(`Commands:
  register                    create an account
  login                       sign in
  logout                      sign out
  menu [category] [search]    browse the menu (pages on <enter>)
  categories                  category overview
  cart                        show the cart
  add <menuItemId> [qty]      add an item to the cart
  update <itemId> <qty>       change a cart line quantity
  remove <itemId>             remove a cart line
  clear                       empty the cart
  checkout                    place an order from the cart
  orders                      list your orders
  track <orderId>             follow an order until delivered (ctrl-c free: <enter> stops)
  quit                        leave
`)
}

func doRegister(ctx context.Context, a *app.App) {
	name := prompt("Name: ")
	email := prompt("Email: ")
	password := promptSecret("Password: ")
	confirm := promptSecret("Confirm password: ")
	phone := prompt("Phone: ")

	if err := a.Register(ctx, name, email, password, confirm, phone); err != nil {
		printFieldErrors(err, "Registration failed")
		return
	}
	fmt.Println("Account created. Use `login` to sign in.")
}

func doLogin(ctx context.Context, a *app.App) {
	email := prompt("Email: ")
	password := promptSecret("Password: ")

	if err := a.Login(ctx, email, password); err != nil {
		printFieldErrors(err, "Login failed")
		return
	}
	if user, ok := a.CurrentUser(); ok {
		fmt.Printf("Signed in as %s.\n", user.Name)
	}
}

func doMenu(ctx context.Context, a *app.App, args []string) {
	q := api.MenuQuery{Limit: 8}
	if len(args) > 0 {
		q.Category = args[0]
	}
	if len(args) > 1 {
		q.Search = strings.Join(args[1:], " ")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		page, err := a.Menu.Page(ctx, q)
		if err := a.CheckAuth(err); err != nil {
			fmt.Println(api.ServerMessage(err, "Failed to load menu"))
			return
		}

		for _, item := range page.Items {
			printMenuItem(item)
		}
		if !page.Pagination.HasMore || page.Pagination.NextCursor == nil {
			return
		}
		fmt.Print("-- more (enter to continue, q to stop) -- ")
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "q" {
			return
		}
		q.Cursor = *page.Pagination.NextCursor
	}
}

func printMenuItem(item menu.Item) {
	marker := " "
	if !item.IsAvailable {
		marker = "✗"
	} else if item.LowStock() {
		marker = "!"
	}
	fmt.Printf("%s #%-4d %-28s $%-8s %s\n", marker, item.ID, item.Name, item.Price, item.Category)
	if item.LowStock() && item.IsAvailable {
		fmt.Printf("        only %d left\n", item.InventoryCount)
	}
}

func doCategories(ctx context.Context, a *app.App) {
	cats, err := a.Menu.Categories(ctx)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to load categories"))
		return
	}
	for _, c := range cats.Categories {
		fmt.Printf("%-16s %3d items, %3d available, avg $%.2f\n",
			c.Category, c.TotalItems, c.AvailableItems, c.AvgPrice)
	}
	fmt.Printf("Total: %d categories, %d items (%d available)\n",
		cats.Summary.TotalCategories, cats.Summary.TotalItems, cats.Summary.TotalAvailable)
}

func doCart(ctx context.Context, a *app.App) {
	crt, err := a.Cart.Get(ctx)
	if err := a.CheckAuth(err); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Println("Sign in to see your cart.")
			return
		}
		fmt.Println(api.ServerMessage(err, "Failed to load cart"))
		return
	}

	if len(crt.Items) == 0 {
		fmt.Println("Your cart is empty.")
		return
	}
	for _, item := range crt.Items {
		fmt.Printf("  [%d] %dx %-28s $%s\n", item.ID, item.Quantity, item.MenuItem.Name, item.ItemTotal)
		if item.AvailabilityWarning != nil && *item.AvailabilityWarning != "" {
			fmt.Printf("       ⚠ %s\n", *item.AvailabilityWarning)
		}
	}
	fmt.Printf("  %d items, subtotal $%s, total $%s\n", crt.ItemCount, crt.Subtotal, crt.Total)
}

func doAdd(ctx context.Context, a *app.App, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: add <menuItemId> [qty]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Menu item id must be a number.")
		return
	}
	qty := 1
	if len(args) > 1 {
		qty, err = strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("Quantity must be a number.")
			return
		}
	}
	if err := validate.Quantity(qty); err != nil {
		printFieldErrors(err, "Invalid quantity")
		return
	}

	resp, err := a.Cart.Add(ctx, id, qty)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to add item to cart"))
		return
	}
	msg := resp.Message
	if msg == "" {
		msg = "Item added to cart"
	}
	fmt.Println(msg)
	if resp.Reservation.Reserved > 0 {
		fmt.Printf("  reserved %d, %d still available\n", resp.Reservation.Reserved, resp.Reservation.Available)
	}
}

func doUpdate(ctx context.Context, a *app.App, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: update <itemId> <qty>")
		return
	}
	itemID, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Both arguments must be numbers.")
		return
	}
	if err := validate.Quantity(qty); err != nil {
		printFieldErrors(err, "Invalid quantity")
		return
	}

	resp, err := a.Cart.UpdateQuantity(ctx, itemID, qty)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to update cart"))
		return
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("Cart updated")
	}
}

func doRemove(ctx context.Context, a *app.App, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: remove <itemId>")
		return
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Item id must be a number.")
		return
	}

	resp, err := a.Cart.Remove(ctx, itemID)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to remove item"))
		return
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("Item removed from cart")
	}
}

func doClear(ctx context.Context, a *app.App) {
	resp, err := a.Cart.Clear(ctx)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to clear cart"))
		return
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("Cart cleared")
	}
}

func doCheckout(ctx context.Context, a *app.App) {
	name := prompt("Delivery name: ")
	address := prompt("Delivery address: ")
	phone := prompt("Delivery phone: ")

	if err := validate.Checkout(name, address, phone); err != nil {
		printFieldErrors(err, "Invalid delivery details")
		return
	}

	resp, err := a.Orders.Place(ctx, api.PlaceOrderRequest{
		DeliveryName:    name,
		DeliveryAddress: address,
		DeliveryPhone:   phone,
	}, a.Cart.Invalidate)
	if err := a.CheckAuth(err); err != nil {
		fmt.Println(api.ServerMessage(err, "Failed to place order"))
		return
	}

	fmt.Printf("Order #%d placed — total $%.2f. Track it with `track %d`.\n",
		resp.Order.ID, resp.Order.TotalAmount, resp.Order.ID)
}

func doOrders(ctx context.Context, a *app.App) {
	orders, err := a.Orders.List(ctx)
	if err := a.CheckAuth(err); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Println("Sign in to see your orders.")
			return
		}
		fmt.Println(api.ServerMessage(err, "Failed to load orders"))
		return
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return
	}
	for _, ord := range orders {
		fmt.Printf("  #%-5d %-18s $%-8.2f %s\n", ord.ID, ord.Status, ord.TotalAmount, ord.CreatedAt)
	}
}

func doTrack(a *app.App, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: track <orderId>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Order id must be a number.")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	delivered := make(chan struct{})
	var closeOnce sync.Once
	lastStage := order.StatusUnknown

	stop := a.Orders.Watch(ctx, id, func(ord order.Order) {
		stage := ord.StatusStage()
		if stage != lastStage {
			lastStage = stage
			printTimeline(ord)
		}
		if stage == order.StatusDelivered {
			closeOnce.Do(func() { close(delivered) })
		}
	}, func(err error) {
		if errors.Is(err, api.ErrNotFound) {
			fmt.Printf("Order #%d not found.\n", id)
			closeOnce.Do(func() { close(delivered) })
			return
		}
		_ = a.CheckAuth(err)
	})
	defer stop()

	fmt.Printf("Tracking order #%d — press enter to stop.\n", id)

	stopped := make(chan struct{})
	go func() {
		bufio.NewScanner(os.Stdin).Scan()
		close(stopped)
	}()

	select {
	case <-delivered:
		fmt.Println("Done.")
	case <-stopped:
	}
}

func printTimeline(ord order.Order) {
	stages := []order.Status{
		order.StatusReceived,
		order.StatusPreparing,
		order.StatusOutForDelivery,
		order.StatusDelivered,
	}
	current := ord.StatusStage()
	fmt.Printf("\nOrder #%d\n", ord.ID)
	for _, s := range stages {
		mark := " "
		if s.Rank() <= current.Rank() {
			mark = "✓"
		}
		fmt.Printf("  [%s] %s\n", mark, s)
	}
}

func printFieldErrors(err error, fallback string) {
	var fieldErrs validate.FieldErrors
	if errors.As(err, &fieldErrs) {
		for field, msg := range fieldErrs {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}
	fmt.Println(api.ServerMessage(err, fallback))
}

func prompt(label string) string {
	fmt.Print(label)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func promptSecret(label string) string {
	fmt.Print(label)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return prompt("")
	}
	return string(data)
}
