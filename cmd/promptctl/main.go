package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ahlec/Phil-sub000/internal/infra/feishu"
)

const usage = `Usage: promptctl <command> [args]

Commands:
  buckets <community_id>   List the buckets of a community
  tick                     Run the chrono scheduler once
  sweep                    Drop expired sessions and reactable posts
  alert-test [message]     Send a test operator alert to Feishu`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "buckets":
		if len(os.Args) < 3 {
			fmt.Println("Usage: promptctl buckets <community_id>")
			os.Exit(1)
		}
		err = call(http.MethodGet, "/api/communities/"+os.Args[2]+"/buckets")
	case "tick":
		err = call(http.MethodPost, "/api/chronos/tick")
	case "sweep":
		err = call(http.MethodPost, "/api/sweep")
	case "alert-test":
		err = alertTest(strings.Join(os.Args[2:], " "))
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// call invokes the running bot's local API and prints the response
func call(method, path string) error {
	port := os.Getenv("API_PORT")
	if port == "" || port == "0" {
		return fmt.Errorf("API_PORT must be set to the bot's API port")
	}

	req, err := http.NewRequest(method, "http://127.0.0.1:"+port+path, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pretty interface{}
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}

func alertTest(message string) error {
	appID := os.Getenv("FEISHU_APP_ID")
	appSecret := os.Getenv("FEISHU_APP_SECRET")
	chatID := os.Getenv("FEISHU_ALERT_CHAT_ID")
	if appID == "" || appSecret == "" || chatID == "" {
		return fmt.Errorf("FEISHU_APP_ID, FEISHU_APP_SECRET and FEISHU_ALERT_CHAT_ID must be set")
	}
	if message == "" {
		message = "Test alert from promptctl"
	}

	client := feishu.NewClient(appID, appSecret)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.SendRichText(ctx, chatID, "Prompt bot alert test", []string{message}); err != nil {
		return err
	}
	fmt.Println("Alert sent successfully!")
	return nil
}
