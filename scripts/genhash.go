// One-off: go run scripts/genhash.go user@example.com secret ["Display Name"]
// Prints an INSERT you can paste into psql to seed a user.
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: genhash <email> <password> [name]")
		os.Exit(2)
	}
	email := os.Args[1]
	name := email
	if len(os.Args) > 3 {
		name = os.Args[3]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), 10)
	if err != nil {
		panic(err)
	}
	fmt.Printf("INSERT INTO users (email, name, password_hash) VALUES ('%s', '%s', '%s');\n",
		sqlQuote(email), sqlQuote(name), string(h))
}

func sqlQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
