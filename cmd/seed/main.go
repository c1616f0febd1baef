// Command seed rebuilds the local database with sample catalog data.
package main

import (
	"fmt"
	"os"
	"time"

	"library-catalog/library"
)

func main() {
	// Clean up any existing database files
	fmt.Println("Cleaning up existing database files...")
	dbFiles := []string{"library.db", "library.db-shm", "library.db-wal"}
	for _, file := range dbFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}

	eng, err := library.NewEngine("library.db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	categories := map[string]int64{}
	for _, name := range []string{"Fiction", "Non-fiction", "Science Fiction", "History"} {
		cat, err := eng.CreateCategory(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating category %s: %v\n", name, err)
			os.Exit(1)
		}
		categories[name] = cat.ID
	}

	users := []*library.User{
		{FirstName: "Ada", LastName: "Lovelace", NationalID: "10000001", Email: "ada@example.com"},
		{FirstName: "Alan", LastName: "Turing", NationalID: "10000002", Email: "alan@example.com"},
		{FirstName: "Grace", LastName: "Hopper", NationalID: "10000003", Email: "grace@example.com"},
	}
	userIDs := make([]int64, 0, len(users))
	for _, u := range users {
		created, err := eng.CreateUser(u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating user %s: %v\n", u.DisplayName(), err)
			os.Exit(1)
		}
		userIDs = append(userIDs, created.ID)
	}

	books := []*library.Book{
		{Title: "1984", Author: "George Orwell", Year: 1949, CategoryID: categories["Fiction"]},
		{Title: "Animal Farm", Author: "George Orwell", Year: 1945, CategoryID: categories["Fiction"]},
		{Title: "Dune", Author: "Frank Herbert", Year: 1965, CategoryID: categories["Science Fiction"]},
		{Title: "The Art of War", Author: "Sun Tzu", Year: 500, CategoryID: categories["History"]},
		{Title: "The Diary of a Young Girl", Author: "Anne Frank", Year: 1947, CategoryID: categories["Non-fiction"]},
	}
	bookIDs := make([]int64, 0, len(books))
	for _, b := range books {
		created, err := eng.CreateBook(b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating book %s: %v\n", b.Title, err)
			os.Exit(1)
		}
		bookIDs = append(bookIDs, created.ID)
	}

	// One finished loan cycle and one loan still out.
	today := time.Now().Format("2006-01-02")
	done, err := eng.CreateLoan(bookIDs[0], userIDs[0], "2024-01-15")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating loan: %v\n", err)
		os.Exit(1)
	}
	if err := eng.ReturnLoan(done.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error returning loan: %v\n", err)
		os.Exit(1)
	}
	if _, err := eng.CreateLoan(bookIDs[2], userIDs[1], today); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating loan: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d categories, %d users, %d books, 2 loans.\n", len(categories), len(users), len(books))
}
