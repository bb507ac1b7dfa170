package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"flip_royale/internal/service"

	"github.com/joho/godotenv"
)

// issue_token prints a service JWT for the internal operator endpoints
func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "", "operator name recorded in audit logs")
	role := flag.String("role", service.RoleOperator, "token role")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-sub is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	service.InitJWT(secret)
	token, err := service.GenerateServiceToken(*subject, *role, *ttl)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
}
