// User commands: add, list, update, delete, set-password.
package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-catalog/library"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage registered users",
}

var (
	userFirstName  string
	userLastName   string
	userNationalID string
	userEmail      string
)

func userFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userFirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&userLastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&userNationalID, "national-id", "", "national id (unique)")
	cmd.Flags().StringVar(&userEmail, "email", "", "email address")
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		user, err := eng.CreateUser(&library.User{
			FirstName:  userFirstName,
			LastName:   userLastName,
			NationalID: userNationalID,
			Email:      userEmail,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %d: %s\n", user.ID, user.DisplayName())
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users ordered by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		users, err := eng.ListUsers("")
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-30s %-15s %-30s\n", "ID", "NAME", "NATIONAL ID", "EMAIL")
		for _, u := range users {
			fmt.Printf("%-5d %-30s %-15s %-30s\n", u.ID, u.DisplayName(), u.NationalID, u.Email)
		}
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user's details",
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

		// Start from the stored record so omitted flags keep their value.
		user, err := eng.GetUser(id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("first-name") {
			user.FirstName = userFirstName
		}
		if cmd.Flags().Changed("last-name") {
			user.LastName = userLastName
		}
		if cmd.Flags().Changed("national-id") {
			user.NationalID = userNationalID
		}
		if cmd.Flags().Changed("email") {
			user.Email = userEmail
		}

		user, err = eng.UpdateUser(id, user)
		if err != nil {
			return err
		}
		fmt.Printf("Updated user %d: %s\n", user.ID, user.DisplayName())
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user with no active loans",
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

		if err := eng.DeleteUser(id); err != nil {
			return err
		}
		fmt.Printf("Deleted user %d\n", id)
		return nil
	},
}

var userSetPasswordCmd = &cobra.Command{
	Use:   "set-password <id>",
	Short: "Set a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		password, err := readPassword("Enter new password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := readPassword("Confirm new password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.SetUserPassword(id, password); err != nil {
			return err
		}
		fmt.Printf("Password updated for user %d\n", id)
		return nil
	},
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func init() {
	userFlags(userAddCmd)
	userFlags(userUpdateCmd)

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userSetPasswordCmd)
}
