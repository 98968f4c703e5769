package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, args []string) error
	List(ctx context.Context) error
	OpenPanel(ctx context.Context) error
	ClosePanel(ctx context.Context) error
	Inc(ctx context.Context, args []string) error
	Dec(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
	Checkout(ctx context.Context, args []string) error
	Orders(ctx context.Context) error
	Confirm(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Storage(ctx context.Context) error
	Reset(ctx context.Context) error
}

const helpText = `Available commands:
  add [<id> <title> <price> [qty]]  add a product (interactive without arguments)
  (l)ist                            show the cart
  open | close                      show or hide the cart panel
  inc <id> | dec <id>               change quantity by one
  rm <id>                           remove a product
  clear                             empty the cart
  checkout [--test]                 pay for the cart (--test fills sample data)
  orders                            list placed orders
  confirm [<order id | url>]        show an order confirmation
  login <id> [name] [email]         sign in (as the site's auth would)
  logout                            sign out
  storage                           list stored keys
  reset                             delete all stored data
  exit | quit                       leave`

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit" or "quit". Errors returned by handlers are printed and the loop
// goes on. Handlers prompt on the same reader, so nothing is read ahead.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("%s> ", statusFn()))
		line, rerr := reader.ReadString('\n')
		if rerr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "add":
			err = a.Add(ctx, args)
		case "l", "list":
			err = a.List(ctx)
		case "open":
			err = a.OpenPanel(ctx)
		case "close":
			err = a.ClosePanel(ctx)
		case "inc":
			err = a.Inc(ctx, args)
		case "dec":
			err = a.Dec(ctx, args)
		case "rm":
			err = a.Remove(ctx, args)
		case "clear":
			err = a.Clear(ctx)
		case "checkout":
			err = a.Checkout(ctx, args)
		case "orders":
			err = a.Orders(ctx)
		case "confirm":
			err = a.Confirm(ctx, args)
		case "login":
			err = a.Login(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "storage":
			err = a.Storage(ctx)
		case "reset":
			err = a.Reset(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("error:", err)
		}
	}
}
