package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
)

func main() {
	// Set properties of the predefined Logger, including
	// the log entry prefix and a flag to disable printing
	// the time, source file, and line number.
	log.SetPrefix("lg/fitlog-go-api: ")
	log.SetFlags(0)

	cfg := loadConfig()
	gin.SetMode(cfg.GinMode)

	pool := getDBPool(cfg.DBURL)
	defer pool.Close()

	h := Handler{db: pool, defaultLoc: cfg.DefaultTZ}

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	if err := router.Run(cfg.HTTPAddress); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
