package db

import (
	"log"

	"property-outline-cms/internal/config"
	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/user"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&domain.User{},
		&domain.Property{},
		&domain.PropertyUser{},
		&domain.PropertyData{},
		&domain.PropertyBackup{},
		&domain.PropertyHistory{},
		&domain.EditLock{},
		&domain.PreviewToken{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedAdmin creates the initial admin account when it does not exist.
// Replaces a separate create-admin script; configured via ADMIN_EMAIL
// and ADMIN_PASSWORD.
func SeedAdmin() {
	email := config.AppConfig.AdminEmail
	password := config.AppConfig.AdminPassword
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	userRepo := user.NewRepository(AppDb)

	_, err := userRepo.FindByEmail(email)
	if err == nil {
		log.Printf("Admin already exists: %s", email)
		return
	}

	userService := user.NewService(userRepo)
	admin := &domain.User{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
		IsActive: true,
	}
	if err := userService.CreateUser(admin); err != nil {
		log.Printf("Error creating admin: %v", err)
		return
	}
	log.Printf("Created admin: %s", email)
}
