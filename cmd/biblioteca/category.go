// Category commands: add, list, update, delete.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage book categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		cat, err := eng.CreateCategory(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created category %d: %s\n", cat.ID, cat.Name)
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories ordered by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		cats, err := eng.ListCategories("")
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-30s\n", "ID", "NAME")
		for _, c := range cats {
			fmt.Printf("%-5d %-30s\n", c.ID, c.Name)
		}
		return nil
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:   "update <id> <name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
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

		cat, err := eng.UpdateCategory(id, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Updated category %d: %s\n", cat.ID, cat.Name)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category no book references",
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

		if err := eng.DeleteCategory(id); err != nil {
			return err
		}
		fmt.Printf("Deleted category %d\n", id)
		return nil
	},
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryUpdateCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)
}
