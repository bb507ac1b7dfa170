package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
)

// ws_smoke registers a throwaway wallet, opens its starter pack and prints the
// record_updated events the server pushes for it.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	prefix := os.Getenv("SIGN_MESSAGE_PREFIX")
	if prefix == "" {
		prefix = "Flip Royale:"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	key, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	log.Printf("wallet %s", address)

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?address=%s", base, address), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readEvents := func(n int) {
		for i := 0; i < n; i++ {
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v", err)
				return
			}
			log.Printf("got: %s", string(msg))
		}
	}

	// ready
	readEvents(1)

	post(base, "/api/auth/register", map[string]any{"address": address, "username": "smoke"})
	readEvents(1)

	message := fmt.Sprintf("%s Open Pack\nTimestamp: %d", prefix, time.Now().Unix())
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	post(base, "/api/users/openPack", map[string]any{
		"userId":    address,
		"message":   message,
		"signature": hexutil.Encode(sig),
		"packType":  "common",
	})
	readEvents(1)

	log.Println("smoke test finished")
}

func post(base, path string, body any) {
	b, _ := json.Marshal(body)
	resp, err := http.Post("http://"+base+path, "application/json", bytes.NewReader(b))
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	log.Printf("POST %s -> %d %v", path, resp.StatusCode, out["ok"])
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("unexpected response: %v", out)
	}
}
