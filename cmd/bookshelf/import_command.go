package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/book"
)

// readISBNs returns one ISBN per non-blank line, skipping '#' comments.
func readISBNs(r io.Reader) ([]string, error) {
	var isbns []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isbns = append(isbns, line)
	}
	return isbns, sc.Err()
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import [isbn...]",
		Short: "Add many books by ISBN using Open Library",
		Long:  "Adds every ISBN given as argument or listed in --file (one per line). Existing ISBNs are skipped; other failures are reported and the import continues.",
		RunE: func(cmd *cobra.Command, args []string) error {
			isbns := append([]string(nil), args...)
			if file != "" {
				var r io.Reader = cmd.InOrStdin()
				if file != "-" {
					f, err := os.Open(file)
					if err != nil {
						return fmt.Errorf("open isbn list: %w", err)
					}
					defer f.Close()
					r = f
				}
				fromFile, err := readISBNs(r)
				if err != nil {
					return fmt.Errorf("read isbn list: %w", err)
				}
				isbns = append(isbns, fromFile...)
			}
			if len(isbns) == 0 {
				return errors.New("no ISBNs given")
			}

			return ctx.withService(func(svc *book.Service) error {
				out := cmd.OutOrStdout()
				var added, skipped, failed int
				for _, isbn := range isbns {
					b, err := svc.CreateByISBN(cmd.Context(), isbn)
					switch {
					case err == nil:
						added++
						fmt.Fprintf(out, "added   %s\n", b)
					case errors.Is(err, book.ErrDuplicateISBN):
						skipped++
						fmt.Fprintf(out, "exists  %s\n", isbn)
					default:
						failed++
						fmt.Fprintf(out, "failed  %s: %v\n", isbn, err)
					}
				}
				fmt.Fprintf(out, "%d added, %d already present, %d failed\n", added, skipped, failed)
				if failed > 0 {
					return fmt.Errorf("%d of %d ISBNs failed", failed, len(isbns))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "File with one ISBN per line (- for stdin)")
	return cmd
}
