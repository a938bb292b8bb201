// Package main is a utility for generating the bcrypt hash of the admin
// password. The server is configured with the hash (auth.admin_password_hash
// or EVR_AUTH_ADMIN_PASSWORD_HASH), never the plaintext password, so this tool
// is run once when provisioning a deployment.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/event-registry/event-registry/internal/auth"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		fmt.Fprintln(os.Stderr, "usage: hash [password]")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
