package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Prefix only — the platform adds its own timestamps.
	log.SetPrefix("trimline/go-api: ")
	log.SetFlags(0)

	// .env is optional: deployed environments inject config directly.
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using process environment")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	h := &Handler{
		db:            getDBPool(),
		openAIBaseURL: baseURL,
	}
	defer h.db.Close()

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "localhost:3000"
	}
	if err := router.Run(addr); err != nil {
		log.Fatal(err)
	}
}
