// Command stress_test fires concurrent sale orders at a running server and
// checks that stock never goes negative.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	baseURL       = flag.String("url", "http://localhost:8080", "server base URL")
	initialStock  = flag.Int("stock", 20, "initial stock of the test product")
	totalRequests = flag.Int("requests", 50, "number of concurrent sale orders")
)

type client struct {
	http  *http.Client
	token string
}

func (c *client) call(method, path string, body any, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequest(method, *baseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func must(status int, err error, want int, what string) {
	if err != nil {
		log.Fatalf("%s: %v", what, err)
	}
	if status != want {
		log.Fatalf("%s: unexpected status %d", what, status)
	}
}

func main() {
	flag.Parse()
	c := &client{http: &http.Client{Timeout: 10 * time.Second}}
	run := uuid.NewString()[:8]

	// Register and log in
	user := map[string]string{"username": "stress-" + run, "email": "stress-" + run + "@example.com", "password": run}
	status, err := c.call(http.MethodPost, "/api/auth/signup", user, nil)
	must(status, err, http.StatusCreated, "signup")
	var login struct {
		Token string `json:"token"`
	}
	status, err = c.call(http.MethodPost, "/api/auth/login", user, &login)
	must(status, err, http.StatusOK, "login")
	c.token = login.Token

	// Seed a warehouse and product
	var wh struct{ ID int64 }
	status, err = c.call(http.MethodPost, "/api/warehouses", map[string]string{"name": "stress-" + run, "location": "Load, Test"}, &wh)
	must(status, err, http.StatusCreated, "create warehouse")
	var product struct {
		ID            int64 `json:"id"`
		StockQuantity int   `json:"stockQuantity"`
	}
	status, err = c.call(http.MethodPost, "/api/products", map[string]any{
		"name": "Stress " + run, "sku": "STRESS-" + run, "category": "Stress", "price": "1.00",
		"stockQuantity": *initialStock, "minStockLevel": 0, "warehouseId": wh.ID,
	}, &product)
	must(status, err, http.StatusCreated, "create product")

	// Create pending orders, then process them concurrently
	ids := make([]int64, 0, *totalRequests)
	for i := 0; i < *totalRequests; i++ {
		var order struct{ ID int64 }
		status, err := c.call(http.MethodPost, "/api/orders", map[string]any{
			"type":       "SALE",
			"orderItems": []map[string]any{{"productId": product.ID, "quantity": 1}},
		}, &order)
		must(status, err, http.StatusCreated, "create order")
		ids = append(ids, order.ID)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			status, err := c.call(http.MethodPut, fmt.Sprintf("/api/orders/%d/process", id), nil, nil)
			if err == nil && status == http.StatusOK {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(id)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()
	expected := min(*initialStock, *totalRequests)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if int(success) != expected {
		fmt.Printf("FAIL: Expected %d processed orders, got %d\n", expected, success)
		ok = false
	} else {
		fmt.Printf("PASS: Exactly %d orders processed\n", expected)
	}

	status, err = c.call(http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), nil, &product)
	must(status, err, http.StatusOK, "get product")
	fmt.Printf("Final Stock: %d\n", product.StockQuantity)
	if product.StockQuantity != *initialStock-expected {
		fmt.Printf("FAIL: Expected stock %d, got %d\n", *initialStock-expected, product.StockQuantity)
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
}
