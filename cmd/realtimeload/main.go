// Package main provides a load testing tool for the realtime tweet fan-out.
//
// The listener account follows the poster. Every client opens a websocket as the listener and counts tweet_created
// events while the poster publishes tweets at a fixed interval.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	TweetsPosted         int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 5 * time.Second}

type envelope struct {
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type event struct {
	Type string `json:"type"`
}

func main() {
	host := flag.String("host", "localhost:4000", "API server host")
	listenerEmail := flag.String("listener", "demo@example.com", "Account whose feed the clients watch")
	posterEmail := flag.String("poster", "", "Account that posts tweets (must be followable by the listener)")
	password := flag.String("password", "Passw0rd!", "Password for both accounts")
	clients := flag.Int("clients", 50, "Number of concurrent websocket clients")
	interval := flag.Duration("interval", 2*time.Second, "Delay between posted tweets")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	if *posterEmail == "" {
		log.Fatal("-poster is required")
	}

	log.Printf("Starting realtime load test")
	log.Printf("Target: %s, clients: %d, duration: %v", *host, *clients, *duration)

	listener, err := login(*host, *listenerEmail, *password)
	if err != nil {
		log.Fatalf("Listener login failed: %v", err)
	}
	poster, err := login(*host, *posterEmail, *password)
	if err != nil {
		log.Fatalf("Poster login failed: %v", err)
	}
	if err := follow(*host, listener.AccessToken, poster.User.ID); err != nil {
		log.Printf("Follow failed (already following?): %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, listener.AccessToken, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	wg.Add(1)
	go runPoster(*host, poster.AccessToken, *interval, stopChan, &wg)

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

type session struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID uint `json:"id"`
	} `json:"user"`
}

func postJSON(u, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s failed with status %d", u, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(host, email, password string) (*session, error) {
	var env envelope
	err := postJSON(fmt.Sprintf("http://%s/api/users/login", host), "", map[string]string{
		"email":    email,
		"password": password,
	}, &env)
	if err != nil {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(env.Result, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func follow(host, token string, userID uint) error {
	return postJSON(fmt.Sprintf("http://%s/api/users/follow", host), token,
		map[string]uint{"followed_user_id": userID}, nil)
}

func getTicket(host, token string) (string, error) {
	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), token, struct{}{}, &result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runPoster(host, token string, interval time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	u := fmt.Sprintf("http://%s/api/tweets", host)
	for n := 1; ; n++ {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			err := postJSON(u, token, map[string]any{
				"type":     0,
				"audience": 0,
				"content":  fmt.Sprintf("load test tweet %d #realtimeload", n),
			}, nil)
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			atomic.AddInt64(&metrics.TweetsPosted, 1)
		}
	}
}

func runClient(host, token string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	// Tickets are single use, so each connection needs its own.
	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			var ev event
			if err := c.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Type == "tweet_created" {
				atomic.AddInt64(&metrics.EventsReceived, 1)
			}
		}
	}()

	<-stopChan
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func printMetrics() {
	posted := atomic.LoadInt64(&metrics.TweetsPosted)
	connected := atomic.LoadInt64(&metrics.ConnectionsSuccess)
	received := atomic.LoadInt64(&metrics.EventsReceived)

	log.Println("Test Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", connected)
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Tweets Posted: %d", posted)
	log.Printf("Events Received: %d (expected up to %d)", received, posted*connected)
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
