package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"voxel-relay/internal/config"
)

// sim-client connects as one player and generates plausible traffic: a
// random walk, occasional rotations, chat lines, block edits, and the odd
// transform toggle. Useful for soaking the relay by hand.

type vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal(err)
	}
	id := cfg.PlayerID
	if id == "" {
		id = fmt.Sprintf("sim-%06d", rand.Intn(1000000))
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSBase+"/"+id, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := send(conn, map[string]string{"name": cfg.PlayerName}); err != nil {
		log.Fatal(err)
	}
	log.Printf("connected as %s (%s)", cfg.PlayerName, id)

	go readLoop(conn)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	pos := vec{X: 32, Y: 32, Z: 32}
	ticker := time.NewTicker(time.Duration(cfg.StepMS) * time.Millisecond)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-interrupt:
			log.Println("closing")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			step++
			pos.X += rnd.Float64()*2 - 1
			pos.Z += rnd.Float64()*2 - 1
			if err := send(conn, map[string]any{"type": "position_update", "position": pos}); err != nil {
				log.Fatal(err)
			}
			if step%4 == 0 {
				rot := vec{Y: rnd.Float64() * 360}
				_ = send(conn, map[string]any{"type": "rotation_update", "rotation": rot})
			}
			if step%10 == 0 {
				edit := map[string]any{
					"action":  "add",
					"x":       float64(rnd.Intn(64)),
					"y":       float64(rnd.Intn(64)),
					"z":       float64(rnd.Intn(64)),
					"blockId": rnd.Intn(8) + 1,
				}
				_ = send(conn, map[string]any{"type": "block_update", "data": edit})
			}
			if step%16 == 0 {
				_ = send(conn, map[string]any{"type": "chat_message", "text": fmt.Sprintf("step %d", step)})
			}
			if step%40 == 0 {
				_ = send(conn, map[string]any{"type": "supersaiyan_toggle", "active": step%80 == 0})
			}
		}
	}
}

func readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("read: %v", err)
			os.Exit(0)
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			continue
		}
		log.Printf("<- %s: %s", base.Type, data)
	}
}

func send(conn *websocket.Conn, v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}
