// chat-cli is a terminal client for the chatbot service. It owns the two
// pieces of client-side state: the device id that keeps an anonymous user
// stable across runs, and a local mirror of the current order shown when
// the server can't be reached.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tobiadex/chopchat/internal/localstore"
	"github.com/tobiadex/chopchat/internal/menu"
)

type envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Message string          `json:"message,omitempty"`
}

func main() {
	server := flag.String("server", "http://localhost:8080", "chatbot service base URL")
	flag.Parse()

	store, err := localstore.Open("chopchat")
	if err != nil {
		fmt.Fprintln(os.Stderr, "open local store:", err)
		os.Exit(1)
	}
	deviceID, err := store.DeviceID()
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve device id:", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	fmt.Println("Welcome to chopchat! Type 1 to see the menu. Ctrl-D to quit.")

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			fmt.Println()
			return
		}
		input := strings.TrimSpace(sc.Text())
		if input == "" {
			continue
		}

		msgs, err := send(client, *server, input, deviceID)
		if err != nil {
			// Offline fallback: show the last mirrored order for 97.
			if input == "97" {
				var draft json.RawMessage
				if ok, derr := store.LoadDraft(&draft); derr == nil && ok {
					fmt.Println("(offline — showing last known order)")
					fmt.Println(indentJSON(draft))
					continue
				}
			}
			fmt.Println("Could not reach the server:", err)
			continue
		}

		for _, m := range msgs {
			render(m)
			switch m.Type {
			case "current_order":
				if len(m.Content) > 0 && string(m.Content) != "null" {
					_ = store.SaveDraft(m.Content)
				}
			case "success":
				if input == "0" {
					_ = store.ClearDraft()
				}
			}
		}
	}
}

func send(client *http.Client, server, message, deviceID string) ([]envelope, error) {
	body, _ := json.Marshal(map[string]string{"message": message, "deviceId": deviceID})
	res, err := client.Post(server+"/chatbot", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var msgs []envelope
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}
	var m envelope
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, err
	}
	return []envelope{m}, nil
}

func render(m envelope) {
	switch m.Type {
	case "menu":
		renderMenu(m)
	case "payment":
		var rec struct {
			Amount           json.Number `json:"amount"`
			Reference        string      `json:"reference"`
			AuthorizationURL string      `json:"authorization_url"`
		}
		if err := json.Unmarshal(m.Content, &rec); err == nil {
			fmt.Printf("Pay %s — open this link to complete checkout:\n  %s\n  (ref %s)\n",
				naira(rec.Amount), rec.AuthorizationURL, rec.Reference)
		}
	case "error", "success":
		var text string
		if err := json.Unmarshal(m.Content, &text); err == nil {
			fmt.Println(text)
		} else {
			fmt.Println(string(m.Content))
		}
	default:
		if len(m.Content) > 0 && string(m.Content) != "null" {
			fmt.Println(indentJSON(m.Content))
		}
	}
	if m.Message != "" {
		fmt.Println(m.Message)
	}
}

func renderMenu(m envelope) {
	var content struct {
		Categories map[string][]struct {
			ID          int         `json:"id"`
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Price       json.Number `json:"price"`
		} `json:"categories"`
		CategoryOrder []string `json:"category_order"`
	}
	if err := json.Unmarshal(m.Content, &content); err != nil {
		fmt.Println(indentJSON(m.Content))
		return
	}
	cats := content.CategoryOrder
	if len(cats) == 0 {
		for c := range content.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
	}
	for _, c := range cats {
		fmt.Println(c)
		for _, it := range content.Categories[c] {
			fmt.Printf("  %d. %s — %s\n     %s\n", it.ID, it.Name, naira(it.Price), it.Description)
		}
	}
}

func naira(n json.Number) string {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return "₦" + n.String()
	}
	return menu.FormatNaira(d)
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
