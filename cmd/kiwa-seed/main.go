// Command kiwa-seed replaces the menu with the house menu.
package main

import (
	"log"

	"kiwa/internal/config"
	"kiwa/internal/repos"
)

func main() {
	cfg := config.Load()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	n, err := repos.ReseedMenu(db)
	if err != nil {
		log.Fatalf("[seed] %v", err)
	}
	log.Printf("[seed] menu reseeded with %d items", n)
}
