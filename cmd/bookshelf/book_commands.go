package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/book"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				books, err := svc.List(cmd.Context(), skip, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(books) == 0 {
					fmt.Fprintln(out, "The catalog is empty.")
					return nil
				}
				fmt.Fprintln(out, renderBooks(books, skip))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "Number of books to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of books to show")
	return cmd
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <isbn>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				b, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), b)
				return nil
			})
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var req book.CreateRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				b, err := svc.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", b)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&req.Author, "author", "", "Book author")
	cmd.Flags().StringVar(&req.ISBN, "isbn", "", "Book ISBN")
	return cmd
}

func newAddISBNCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-isbn <isbn>",
		Short: "Add a book using metadata from Open Library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				b, err := svc.CreateByISBN(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", b)
				return nil
			})
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var title, author string
	cmd := &cobra.Command{
		Use:   "update <isbn>",
		Short: "Change the title and/or author of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req book.UpdateRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("author") {
				req.Author = &author
			}
			if req.Title == nil && req.Author == nil {
				return fmt.Errorf("nothing to update: pass --title and/or --author")
			}
			return ctx.withService(func(svc *book.Service) error {
				b, err := svc.Update(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", b)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <isbn>",
		Aliases: []string{"rm"},
		Short:   "Remove a book",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *book.Service) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Book removed.")
				return nil
			})
		},
	}
}
