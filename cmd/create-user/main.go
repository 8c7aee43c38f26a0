// CLI tool to create a user with bcrypt-hashed password, default settings,
// and optionally a first weigh-in so the trend endpoints have a seed point.
// Usage: go run ./cmd/create-user (from the repo root)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	conn, err := pgx.Connect(context.Background(), os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	fmt.Print("Starting weight in kg (blank to skip): ")
	weightRaw, _ := reader.ReadString('\n')
	weightRaw = strings.TrimSpace(weightRaw)

	var weightKG float64
	if weightRaw != "" {
		weightKG, err = strconv.ParseFloat(weightRaw, 64)
		if err != nil || weightKG <= 0 || weightKG > 500 {
			fmt.Fprintf(os.Stderr, "Invalid weight %q\n", weightRaw)
			os.Exit(1)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	authToken := uuid.New().String()

	var userID int
	err = conn.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		username, email, string(hash), authToken,
	).Scan(&userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	// Settings row starts on table defaults; the weight (when given) also
	// seeds the profile so the baseline TDEE can compute sooner.
	if weightRaw != "" {
		_, err = conn.Exec(context.Background(),
			`INSERT INTO user_settings (user_id, weight_kg) VALUES ($1, $2)`, userID, weightKG)
	} else {
		_, err = conn.Exec(context.Background(),
			`INSERT INTO user_settings (user_id) VALUES ($1)`, userID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user settings: %v\n", err)
		os.Exit(1)
	}

	if weightRaw != "" {
		_, err = conn.Exec(context.Background(),
			`INSERT INTO weight_log (user_id, measured_at, weight_kg, source)
			 VALUES ($1, now(), $2, 'manual')`, userID, weightKG)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating first weigh-in: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:         %d\n", userID)
	fmt.Printf("  Username:   %s\n", username)
	fmt.Printf("  Auth Token: %s\n", authToken)
}
