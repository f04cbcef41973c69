package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"webhook_logs", "order_statuses", "orders", "users", "schools"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		schoolID := "SCH_DEMO_001"
		var exists int
		if err := db.QueryRow("SELECT 1 FROM schools WHERE school_id = $1", schoolID).Scan(&exists); err != nil {
			if _, err := db.Exec(
				"INSERT INTO schools (school_id, name, contact_email, is_active, created_at, updated_at) VALUES ($1, $2, $3, true, now(), now())",
				schoolID, "Greenfield Public School", "office@greenfield.example.com"); err != nil {
				log.Fatalf("failed to insert school: %v", err)
			}
			fmt.Println("Seeded school:", schoolID)
		}

		adminEmail := "admin@schoolpay.local"
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", adminEmail).Scan(&exists); err != nil {
			if _, err := db.Exec(
				"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES ($1, $2, $3, 'admin', true, now(), now())",
				adminEmail, "Portal Admin", string(hash)); err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		trusteeEmail := "trustee@schoolpay.local"
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", trusteeEmail).Scan(&exists); err != nil {
			if _, err := db.Exec(
				"INSERT INTO users (email, name, password_hash, role, school_id, is_active, created_at, updated_at) VALUES ($1, $2, $3, 'trustee', $4, true, now(), now())",
				trusteeEmail, "Demo Trustee", string(hash), schoolID); err != nil {
				log.Fatalf("failed to insert trustee user: %v", err)
			}
			fmt.Println("Seeded trustee user:", trusteeEmail)
		}

		fmt.Println("Seeding complete")
	},
}
