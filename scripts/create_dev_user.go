package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

func main() {
	// Parse command line flags
	login := flag.String("login", "dev", "Login for the development user")
	password := flag.String("password", "dev-password-123", "Password for the development user")
	admin := flag.Bool("admin", true, "Grant admin rights")
	dbPath := flag.String("db", "jobtrack.sqlite", "Path to the sqlite database")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatal("Failed to migrate users table:", err)
	}

	// Check if the user already exists
	var existing models.User
	if err := db.Where("login = ?", *login).First(&existing).Error; err == nil {
		fmt.Printf("Development user already exists!\n")
		fmt.Printf("Login: %s (ID: %d, admin: %v)\n", existing.Login, existing.ID, existing.IsAdmin)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	user := models.User{
		Login:     *login,
		Passwd:    string(hash),
		Email:     fmt.Sprintf("%s@jobtracknow.local", *login),
		FirstName: "Dev",
		LastName:  "User",
		IsAdmin:   *admin,
	}

	if err := db.Create(&user).Error; err != nil {
		log.Fatal("Failed to create user:", err)
	}

	fmt.Printf("✓ Development user created!\n")
	fmt.Printf("Login: %s\n", *login)
	fmt.Printf("Password: %s\n", *password)
	fmt.Printf("User ID: %d\n", user.ID)
	fmt.Println("\nStart the authorization flow with:")
	fmt.Printf("open 'http://localhost:8080/v1/authorize?response_type=code&redirect_uri=http://localhost:3000/callback&state=dev&code_challenge=<challenge>&code_challenge_method=S256'\n")
}
