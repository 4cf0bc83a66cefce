package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type scenario struct {
	Name        string
	Description string
}

type model struct {
	scenarios []scenario
	selected  int
	status    string
	metrics   string
	busy      bool
}

func initialModel() model {
	return model{
		scenarios: []scenario{
			{"seed", "Create a demo product"},
			{"checkout", "Cart -> checkout -> order -> payment"},
			{"idem", "Replay order creation with one Idempotency-Key"},
			{"bench", "Run checkout benchmark"},
		},
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.scenarios)-1 {
				m.selected++
			}
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Running..."
			return m, runScenarioCmd(m.scenarios[m.selected].Name)
		}
	case scenarioResult:
		m.busy = false
		m.status = msg.status
		m.metrics = msg.metrics
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "online-store-go CLI")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Scenarios:")
	for i, scn := range m.scenarios {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s - %s\n", marker, scn.Name, scn.Description)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	if m.metrics != "" {
		fmt.Fprintf(b, "Metrics: %s\n", m.metrics)
	}
	fmt.Fprintln(b, "\nControls: up/down select scenario, enter to run, q to quit")
	return b.String()
}

type scenarioResult struct {
	status  string
	metrics string
}

func runScenarioCmd(scn string) tea.Cmd {
	return func() tea.Msg {
		switch scn {
		case "seed":
			return runSeed()
		case "idem":
			return runIdempotencyProbe()
		case "bench":
			return scenarioResult{status: "Benchmark finished", metrics: runBenchmark()}
		default:
			return runCheckout(uuid.NewString())
		}
	}
}

func runSeed() scenarioResult {
	body, err := postJSON(productBase()+"/products", "", map[string]any{
		"sku":      "BOOK000001",
		"name":     "The Go Programming Language",
		"price":    "39.99",
		"currency": "USD",
		"stock":    "100",
	})
	if err != nil {
		// A 409 on re-run just means the demo product is already there.
		if strings.Contains(err.Error(), "duplicate_sku") {
			return scenarioResult{status: "Product already seeded"}
		}
		return scenarioResult{status: fmt.Sprintf("Seed failed: %v", err)}
	}
	return scenarioResult{status: fmt.Sprintf("Seeded: %s", body)}
}

// runCheckout drives the whole choreography for one customer: cart add,
// checkout, then poll until the payment outcome lands on the order.
func runCheckout(customerID string) scenarioResult {
	_, err := putJSON(cartBase()+"/carts/"+customerID+"/items", map[string]any{
		"sku":        "BOOK000001",
		"quantity":   "1",
		"unit_price": "39.99",
		"currency":   "USD",
	})
	if err != nil {
		return scenarioResult{status: fmt.Sprintf("Cart add failed: %v", err)}
	}
	if _, err := postJSON(cartBase()+"/carts/"+customerID+"/checkout", "", nil); err != nil {
		return scenarioResult{status: fmt.Sprintf("Checkout failed: %v", err)}
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(500 * time.Millisecond)
		body, err := getJSON(orderBase() + "/orders?customer_id=" + customerID)
		if err != nil {
			continue
		}
		var out struct {
			Orders []struct {
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"orders"`
		}
		if json.Unmarshal([]byte(body), &out) != nil || len(out.Orders) == 0 {
			continue
		}
		status := out.Orders[0].Status
		if status == "PAID" || status == "PAYMENT_FAILED" {
			return scenarioResult{status: fmt.Sprintf("Order %s settled as %s", out.Orders[0].OrderID, status)}
		}
	}
	return scenarioResult{status: "Checkout accepted but no payment outcome within 10s"}
}

// runIdempotencyProbe replays POST /orders with one Idempotency-Key and
// checks both responses name the same order.
func runIdempotencyProbe() scenarioResult {
	key := uuid.NewString()
	payload := map[string]any{"customer_id": uuid.NewString()}

	first, err := postJSON(orderBase()+"/orders", key, payload)
	if err != nil {
		return scenarioResult{status: fmt.Sprintf("First create failed: %v", err)}
	}
	second, err := postJSON(orderBase()+"/orders", key, payload)
	if err != nil {
		return scenarioResult{status: fmt.Sprintf("Replay failed: %v", err)}
	}

	var a, b struct {
		OrderID string `json:"order_id"`
	}
	if json.Unmarshal([]byte(first), &a) != nil || json.Unmarshal([]byte(second), &b) != nil {
		return scenarioResult{status: "Could not decode order responses"}
	}
	if a.OrderID != b.OrderID {
		return scenarioResult{status: fmt.Sprintf("PROBE FAILED: two orders %s / %s", a.OrderID, b.OrderID)}
	}
	return scenarioResult{status: fmt.Sprintf("Replay returned the same order %s", a.OrderID)}
}

func runBenchmark() string {
	duration := 5 * time.Second
	vus := 5
	var mu sync.Mutex
	var total time.Duration
	var count int
	var errs int
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < vus; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
					start := time.Now()
					res := runCheckout(uuid.NewString())
					mu.Lock()
					if strings.Contains(res.status, "failed") {
						errs++
					} else {
						count++
						total += time.Since(start)
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	avg := time.Duration(0)
	if count > 0 {
		avg = total / time.Duration(count)
	}
	throughput := float64(count) / duration.Seconds()
	return fmt.Sprintf("count=%d errors=%d avg=%s throughput=%.2f checkouts/s", count, errs, avg, throughput)
}

func postJSON(url, idemKey string, payload any) (string, error) {
	return do(http.MethodPost, url, idemKey, payload)
}

func putJSON(url string, payload any) (string, error) {
	return do(http.MethodPut, url, "", payload)
}

func getJSON(url string) (string, error) {
	return do(http.MethodGet, url, "", nil)
}

func do(method, url, idemKey string, payload any) (string, error) {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	return string(data), nil
}

func main() {
	runCmd := flag.String("run", "", "run scenario: seed|checkout|idem|bench")
	flag.Parse()

	if *runCmd != "" {
		res := runScenarioCmd(*runCmd)().(scenarioResult)
		fmt.Println(res.status)
		if res.metrics != "" {
			fmt.Println(res.metrics)
		}
		return
	}

	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func cartBase() string    { return getenv("CART_BASE_URL", "http://localhost:8081") }
func orderBase() string   { return getenv("ORDER_BASE_URL", "http://localhost:8082") }
func productBase() string { return getenv("PRODUCT_BASE_URL", "http://localhost:8084") }

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
