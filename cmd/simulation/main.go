package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/serverutils"

	"github.com/joho/godotenv"
)

// Interactive client for the chat endpoint. Reads one message per line
// from stdin and prints the coach's reply and session transitions.
func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("COACH_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000/api/coach/v1"
	}
	token := os.Getenv("COACH_ACCESS_TOKEN")
	if token == "" {
		log.Fatal("COACH_ACCESS_TOKEN is not set")
	}

	fmt.Println("=== Money Coach Chat Client ===")
	fmt.Println("Type a message and press enter. Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYOU: ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		start := time.Now()
		res, err := sendChat(baseURL, token, text)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		if res.ClosedSessionId != nil {
			fmt.Printf("[previous session %s closed]\n", *res.ClosedSessionId)
		}
		if res.IsNewSession {
			fmt.Printf("[new session %s]\n", res.SessionId)
		}
		fmt.Printf("COACH (%v): %s\n", time.Since(start).Round(time.Millisecond), res.AssistantMessage.Content)
	}
}

func sendChat(baseURL, token, text string) (*dto.SendChatResponse, error) {
	payload, err := json.Marshal(dto.SendChatRequest{Message: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	var res serverutils.BaseResponse[dto.SendChatResponse]
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
