// Book commands: add, list, update, delete.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage the book catalog",
}

var (
	bookTitle      string
	bookAuthor     string
	bookYear       int
	bookCategoryID int64
	bookImageURL   string

	bookListAvailable bool
)

func bookFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bookTitle, "title", "", "title")
	cmd.Flags().StringVar(&bookAuthor, "author", "", "author")
	cmd.Flags().IntVar(&bookYear, "year", 0, "publication year (1-10000)")
	cmd.Flags().Int64Var(&bookCategoryID, "category", 0, "category id (0 for none)")
	cmd.Flags().StringVar(&bookImageURL, "image", "", "cover image URL")
}

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book to the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		book, err := eng.CreateBook(&library.Book{
			Title:      bookTitle,
			Author:     bookAuthor,
			Year:       bookYear,
			CategoryID: bookCategoryID,
			ImageURL:   bookImageURL,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created book %d: %s by %s\n", book.ID, book.Title, book.Author)
		return nil
	},
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books ordered by title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if bookListAvailable {
			books, err := eng.ListAvailableBooks()
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-35s %-25s %-6s\n", "ID", "TITLE", "AUTHOR", "YEAR")
			for _, b := range books {
				fmt.Printf("%-5d %-35s %-25s %-6d\n", b.ID, b.Title, b.Author, b.Year)
			}
			return nil
		}

		books, err := eng.ListBooks("")
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-35s %-25s %-6s %-20s %-9s\n", "ID", "TITLE", "AUTHOR", "YEAR", "CATEGORY", "AVAILABLE")
		for _, b := range books {
			fmt.Printf("%-5d %-35s %-25s %-6d %-20s %-9s\n", b.ID, b.Title, b.Author, b.Year, b.CategoryName, yesNo(b.Available))
		}
		return nil
	},
}

var bookUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a book's details",
	Long: `Update rewrites a book's descriptive fields. Availability cannot be
changed here; it only moves through loan operations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		// Start from the stored record so omitted flags keep their value.
		book, err := eng.GetBook(id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("title") {
			book.Title = bookTitle
		}
		if cmd.Flags().Changed("author") {
			book.Author = bookAuthor
		}
		if cmd.Flags().Changed("year") {
			book.Year = bookYear
		}
		if cmd.Flags().Changed("category") {
			book.CategoryID = bookCategoryID
		}
		if cmd.Flags().Changed("image") {
			book.ImageURL = bookImageURL
		}

		book, err = eng.UpdateBook(id, book)
		if err != nil {
			return err
		}
		fmt.Printf("Updated book %d: %s by %s\n", book.ID, book.Title, book.Author)
		return nil
	},
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a book with no active loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.DeleteBook(id); err != nil {
			return err
		}
		fmt.Printf("Deleted book %d\n", id)
		return nil
	},
}

func init() {
	bookFlags(bookAddCmd)
	bookFlags(bookUpdateCmd)
	bookListCmd.Flags().BoolVar(&bookListAvailable, "available", false, "only books available for loan")

	bookCmd.AddCommand(bookAddCmd)
	bookCmd.AddCommand(bookListCmd)
	bookCmd.AddCommand(bookUpdateCmd)
	bookCmd.AddCommand(bookDeleteCmd)
}
