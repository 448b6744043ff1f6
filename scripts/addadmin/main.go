package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"clinicdesk/config"
	"clinicdesk/database"
	adminRepo "clinicdesk/database/repository/admin"
	"clinicdesk/services/admin"
)

// addadmin seeds a dashboard account:
//
//	go run ./scripts/addadmin -email desk@clinic.example -password 'S3cret!pass'
//
// The password may also come from ADMIN_PASSWORD so it stays out of shell history.
func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (default $ADMIN_PASSWORD)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig()
	database.InitDB()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	defer database.Disconnect(ctx) //nolint:errcheck

	svc := &admin.DefaultAdminService{Repo: adminRepo.NewMongoAdminRepo()}
	a, err := svc.CreateAdmin(ctx, *email, *password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Printf("Created admin %s (%s)\n", a.Email, a.ID)
}
