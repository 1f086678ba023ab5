//go:build ignore

// Prints a bearer token signed with JWT_SECRET for calling the API locally:
//
//	go run scripts/issue_token.go -role ROLE_ADMIN
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/model"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "", "user id (random when empty)")
	role := flag.String("role", model.RoleUser, "role granted to the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	id := uuid.New()
	if *subject != "" {
		parsed, err := uuid.Parse(*subject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(1)
		}
		id = parsed
	}

	token, err := auth.NewAuthenticator(secret).Sign(model.Principal{ID: id, Roles: []string{*role}}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
