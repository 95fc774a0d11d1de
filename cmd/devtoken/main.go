// Command devtoken issues a signed token for local development and
// testing against a running server. Production tokens come from the
// upstream identity service; this tool just signs with the same secret.
package main

import (
	"flag"
	"fmt"
	"log"

	"lotto-backend/internal/auth"
	"lotto-backend/internal/config"
	"lotto-backend/internal/models"
)

func main() {
	userID := flag.Int("user", 1, "User id embedded in the token")
	name := flag.String("name", "Administrator", "Display name")
	email := flag.String("email", "admin@lotto.local", "Email address")
	role := flag.String("role", "admin", "Role: clerk, accountant or admin")
	storeID := flag.Int("store", 1, "Store id the token is scoped to")
	flag.Parse()

	cfg := config.Load()
	jwtManager := auth.NewJWTManager(cfg)

	user := &models.User{
		ID:       *userID,
		Name:     *name,
		Email:    *email,
		Role:     *role,
		StoreID:  *storeID,
		IsActive: true,
	}

	token, err := jwtManager.GenerateToken(user)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	if !user.CanClose() {
		fmt.Printf("Note: role %q can record readings but cannot resolve anomalies or post day-closes\n", user.Role)
	}
	fmt.Println(token)
}
