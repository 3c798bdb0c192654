// Run this once per user, locally, to authorize Calendar and Gmail access and
// store the OAuth token the scheduler reads from its token directory.
//
// Usage:
//
//	go run scripts/google-auth/main.go <user_id> [credentials.json] [token_dir]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"intelligent-scheduler/pkg/gauth"
	"intelligent-scheduler/pkg/gcalendar"
	"intelligent-scheduler/pkg/gmail"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <user_id> [credentials.json] [token_dir]", os.Args[0])
	}
	userID := os.Args[1]
	credsPath := "google-credentials.json"
	if len(os.Args) > 2 {
		credsPath = os.Args[2]
	}
	tokenDir := "./tokens"
	if len(os.Args) > 3 {
		tokenDir = os.Args[3]
	}

	data, err := os.ReadFile(credsPath)
	if err != nil {
		log.Fatalf("Failed to read credentials file %q: %v", credsPath, err)
	}

	config, err := google.ConfigFromJSON(data, gcalendar.Scope, gmail.Scope)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v\nMake sure %q is an OAuth Desktop App credentials file.", err, credsPath)
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Println("=================================================================")
	fmt.Printf("STEP 1: open this URL and sign in as %s:\n", userID)
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println()
	fmt.Println("=================================================================")
	fmt.Print("STEP 2: paste the authorization code and press Enter: ")

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	tok, err := config.Exchange(context.Background(), code)
	if err != nil {
		log.Fatalf("Failed to exchange authorization code: %v", err)
	}

	if err := gauth.SaveToken(tokenDir, userID, tok); err != nil {
		log.Fatalf("Failed to save token: %v", err)
	}

	fmt.Println()
	fmt.Printf("Token saved at %s\n", gauth.TokenPath(tokenDir, userID))
}
