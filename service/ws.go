package service

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// websocketHandler builds the /ws/decide handler registered onto
// HTTPServer's mux: one decided output record per inbound JSON frame,
// following cmd/mservice's websockets.go upgrade-then-read-loop shape,
// reduced to this domain's request/response pair (no firehose
// broadcast -- each connection only ever sees its own decisions).
func (d *Decider) websocketHandler() http.HandlerFunc {
	var upgrader = websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("service.Decider.WebSocket upgrade error", err)
			return
		}
		defer c.Close()

		ctx := r.Context()
		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				log.Println("service.Decider.WebSocket read error", err)
				break
			}

			var input map[string]interface{}
			if err := json.Unmarshal(message, &input); err != nil {
				if err := c.WriteMessage(mt, []byte(`{"error":"bad request"}`)); err != nil {
					log.Println("service.Decider.WebSocket write (err)", err)
				}
				continue
			}

			attrs, err := d.Decide(ctx, input)
			if err != nil {
				if err := c.WriteMessage(mt, []byte(`{"error":"decide failed"}`)); err != nil {
					log.Println("service.Decider.WebSocket write (err)", err)
				}
				continue
			}

			js, err := json.Marshal(&attrs)
			if err != nil {
				log.Println("service.Decider.WebSocket marshal error", err)
				continue
			}
			if err := c.WriteMessage(mt, js); err != nil {
				log.Println("service.Decider.WebSocket write:", err)
				break
			}
		}
	}
}
