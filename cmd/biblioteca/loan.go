// Loan commands: add, list, return, delete.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var loanCmd = &cobra.Command{
	Use:   "loan",
	Short: "Manage loans",
}

var (
	loanBookID int64
	loanUserID int64
	loanDate   string
)

var loanAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Lend an available book to a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		date := loanDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		loan, err := eng.CreateLoan(loanBookID, loanUserID, date)
		if err != nil {
			return err
		}
		fmt.Printf("Created loan %d: book %d to user %d on %s\n", loan.ID, loan.BookID, loan.UserID, loan.LoanDate)
		return nil
	},
}

var loanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loans, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		loans, err := eng.ListLoans("")
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-35s %-25s %-12s %-8s\n", "ID", "BOOK", "USER", "DATE", "RETURNED")
		for _, l := range loans {
			fmt.Printf("%-5d %-35s %-25s %-12s %-8s\n", l.ID, l.BookTitle, l.UserName, l.LoanDate, yesNo(l.Returned))
		}
		return nil
	},
}

var loanReturnCmd = &cobra.Command{
	Use:   "return <id>",
	Short: "Return a loaned book",
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

		if err := eng.ReturnLoan(id); err != nil {
			return err
		}
		fmt.Printf("Returned loan %d\n", id)
		return nil
	},
}

var loanDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a loan record",
	Long: `Delete removes a loan record. Deleting a loan that is still active
releases the book back to available first.`,
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

		if err := eng.DeleteLoan(id); err != nil {
			return err
		}
		fmt.Printf("Deleted loan %d\n", id)
		return nil
	},
}

func init() {
	loanAddCmd.Flags().Int64Var(&loanBookID, "book", 0, "book id (required)")
	loanAddCmd.Flags().Int64Var(&loanUserID, "user", 0, "user id (required)")
	loanAddCmd.Flags().StringVar(&loanDate, "date", "", "loan date YYYY-MM-DD (default: today)")
	_ = loanAddCmd.MarkFlagRequired("book")
	_ = loanAddCmd.MarkFlagRequired("user")

	loanCmd.AddCommand(loanAddCmd)
	loanCmd.AddCommand(loanListCmd)
	loanCmd.AddCommand(loanReturnCmd)
	loanCmd.AddCommand(loanDeleteCmd)
}
