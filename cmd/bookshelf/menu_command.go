package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/book"
)

const menuText = `
=== Bookshelf ===
1) Add book
2) Add book by ISBN (Open Library)
3) Remove book
4) List books
5) Find book
6) Quit`

func newMenuCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive text menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				m := &menu{
					svc: svc,
					in:  bufio.NewScanner(cmd.InOrStdin()),
					out: cmd.OutOrStdout(),
				}
				return m.run(cmd.Context())
			})
		},
	}
}

// menu drives the interactive loop. Operation errors are printed and the loop
// continues; only end of input or quit ends it.
type menu struct {
	svc *book.Service
	in  *bufio.Scanner
	out io.Writer
}

var errEndOfInput = errors.New("end of input")

func (m *menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", errEndOfInput
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *menu) run(ctx context.Context) error {
	for {
		fmt.Fprintln(m.out, menuText)
		choice, err := m.prompt("Choice: ")
		if err != nil {
			return m.finish(err)
		}

		switch choice {
		case "1":
			err = m.add(ctx)
		case "2":
			err = m.addByISBN(ctx)
		case "3":
			err = m.remove(ctx)
		case "4":
			err = m.list(ctx)
		case "5":
			err = m.find(ctx)
		case "6", "q", "quit":
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Enter a number between 1 and 6.")
			continue
		}

		if errors.Is(err, errEndOfInput) {
			return m.finish(err)
		}
		if err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

func (m *menu) finish(err error) error {
	if errors.Is(err, errEndOfInput) {
		fmt.Fprintln(m.out)
		return nil
	}
	return err
}

func (m *menu) add(ctx context.Context) error {
	var req book.CreateRequest
	var err error
	if req.Title, err = m.prompt("Title: "); err != nil {
		return err
	}
	if req.Author, err = m.prompt("Author: "); err != nil {
		return err
	}
	if req.ISBN, err = m.prompt("ISBN: "); err != nil {
		return err
	}
	b, err := m.svc.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Added: %s\n", b)
	return nil
}

func (m *menu) addByISBN(ctx context.Context) error {
	isbn, err := m.prompt("ISBN: ")
	if err != nil {
		return err
	}
	b, err := m.svc.CreateByISBN(ctx, isbn)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Added: %s\n", b)
	return nil
}

func (m *menu) remove(ctx context.Context) error {
	isbn, err := m.prompt("ISBN of the book to remove: ")
	if err != nil {
		return err
	}
	if err := m.svc.Delete(ctx, isbn); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Book removed.")
	return nil
}

func (m *menu) list(ctx context.Context) error {
	books, err := m.svc.List(ctx, 0, math.MaxInt)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(m.out, "The catalog is empty.")
		return nil
	}
	for i, b := range books {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, b)
	}
	return nil
}

func (m *menu) find(ctx context.Context) error {
	isbn, err := m.prompt("ISBN to look up: ")
	if err != nil {
		return err
	}
	b, err := m.svc.Get(ctx, isbn)
	if errors.Is(err, book.ErrNotFound) {
		fmt.Fprintln(m.out, "Book not found.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, b)
	return nil
}
