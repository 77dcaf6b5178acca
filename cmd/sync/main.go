package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mirrorstack/stripemirror/internal/pkg/database"
	"github.com/mirrorstack/stripemirror/internal/pkg/env"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripesync"
)

const syncTimeout = 30 * time.Minute

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if !stripeapi.HasAPIKey() {
		log.Fatal("STRIPE_SECRET_KEY is not configured")
	}

	database.SetupDatabase()
	set := stripesync.NewSyncSetFromDB(database.GetDB())

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "products":
		err = set.Products.SyncAll(ctx)
	case "prices":
		err = set.Prices.SyncAll(ctx)
	case "coupons":
		err = set.Coupons.SyncAll(ctx)
	case "customers":
		err = set.Customers.SyncAllForUsers(ctx)
	case "catalog":
		// Products before prices so price rows never create their product
		// one fetch at a time.
		if err = set.Products.SyncAll(ctx); err == nil {
			if err = set.Prices.SyncAll(ctx); err == nil {
				err = set.Coupons.SyncAll(ctx)
			}
		}
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Sync %s failed: %v", os.Args[1], err)
	}
	log.Printf("Sync %s completed", os.Args[1])
}

func printUsage() {
	fmt.Println("Usage: go run cmd/sync/main.go [command]")
	fmt.Println("Available commands:")
	fmt.Println("  products  - Mirror the full product listing")
	fmt.Println("  prices    - Mirror the full price listing")
	fmt.Println("  coupons   - Mirror the full coupon listing")
	fmt.Println("  catalog   - Products, prices and coupons in order")
	fmt.Println("  customers - Refresh every linked customer mirror")
}
