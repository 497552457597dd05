//go:build ignore
// +build ignore

// Package main provides a manual concurrency stress test for the borrow endpoint.
//
// Usage:
//
//	go run ./scripts/concurrency_test.go <item_id> <patron1_id> [patron2_id ...]
//
// Or use the convenience environment variables:
//
//	ITEM_ID=<uuid>  PATRON_IDS=<uuid1>,<uuid2>,...  go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires N goroutines (one per patron) all attempting to borrow the same item
//     simultaneously.
//  2. Prints how many got the loan vs. were rejected.
//  3. With a single-copy item, exactly one borrow may succeed; the per-item row
//     lock inside the borrow transaction enforces this at the database level.
//
// Prerequisites:
//   - Server must be running with DATABASE_URL set.
//   - One available item and N patrons must exist in the DB.

package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type borrowResult struct {
	PatronID   string
	StatusCode int
	Body       string
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	itemID := os.Getenv("ITEM_ID")
	patronIDsEnv := os.Getenv("PATRON_IDS")

	var patronIDs []string
	if patronIDsEnv != "" {
		patronIDs = strings.Split(patronIDsEnv, ",")
	}

	// Support positional args: script <item_id> [patron_ids...]
	args := os.Args[1:]
	if len(args) >= 1 {
		itemID = args[0]
	}
	if len(args) >= 2 {
		patronIDs = args[1:]
	}

	if itemID == "" {
		log.Fatal("Usage: ITEM_ID=<uuid> PATRON_IDS=<p1,p2,...> go run ./scripts/concurrency_test.go\n" +
			"  or: go run ./scripts/concurrency_test.go <item_id> <patron1_id> [patron2_id ...]")
	}
	if len(patronIDs) == 0 {
		log.Fatal("At least one patron ID must be provided via PATRON_IDS env or positional args")
	}

	fmt.Printf("=== Borrow Concurrency Test ===\n")
	fmt.Printf("Server  : %s\n", serverAddr)
	fmt.Printf("Item    : %s\n", itemID)
	fmt.Printf("Patrons : %d\n\n", len(patronIDs))

	results := make([]borrowResult, len(patronIDs))
	var wg sync.WaitGroup

	// Fire all goroutines simultaneously using a barrier.
	start := make(chan struct{})

	for i, pid := range patronIDs {
		wg.Add(1)
		go func(idx int, patronID string) {
			defer wg.Done()
			<-start
			results[idx] = attemptBorrow(serverAddr, itemID, strings.TrimSpace(patronID))
		}(i, pid)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)

	wg.Wait()
	fmt.Print("All requests completed.\n\n")

	var loans, rejections, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] patron=%-38s err=%v\n", r.PatronID, r.Err)
		case r.StatusCode == http.StatusCreated:
			loans++
			fmt.Printf("  [LOAN] patron=%-38s status=%d\n", r.PatronID, r.StatusCode)
		case r.StatusCode == http.StatusConflict:
			rejections++
			fmt.Printf("  [RJCT] patron=%-38s status=%d %s\n", r.PatronID, r.StatusCode, r.Body)
		default:
			failures++
			fmt.Printf("  [FAIL] patron=%-38s status=%d %s\n", r.PatronID, r.StatusCode, r.Body)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Loans      : %d\n", loans)
	fmt.Printf("Rejections : %d\n", rejections)
	fmt.Printf("Failures   : %d\n", failures)
	fmt.Printf("Total      : %d\n\n", len(patronIDs))

	fmt.Println("--- Invariant Check ---")
	fmt.Println("Each item holds at most one active loan; the unique index on loans.item_id")
	fmt.Println("and the FOR UPDATE lock on the item row back this at the database level.")
	fmt.Printf("Loans recorded: %d — anything above 1 means the invariant is broken.\n", loans)

	if loans > 1 {
		os.Exit(1)
	}
}

// attemptBorrow sends POST /items/{itemID}/borrow for the given patronID.
func attemptBorrow(serverAddr, itemID, patronID string) borrowResult {
	url := fmt.Sprintf("%s/items/%s/borrow", serverAddr, itemID)
	body := fmt.Sprintf(`{"patron_id":"%s"}`, patronID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		return borrowResult{PatronID: patronID, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return borrowResult{
		PatronID:   patronID,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
}
