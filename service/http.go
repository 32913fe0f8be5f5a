package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
)

// HTTPServer serves /decide (and, if enableWS, /ws/decide on the same
// listener) -- the same read-body/unmarshal/do/marshal/write shape as
// cmd/mservice's ctlplane.go HTTPServer, reduced to this domain's
// single operation. Both endpoints share one *http.Server so enabling
// the WebSocket front end never tries to bind addr twice.
func (d *Decider) HTTPServer(ctx context.Context, addr string, enableWS bool) error {
	log.Printf("service.Decider.HTTPServer starting on %s (ws=%v)", addr, enableWS)

	mux := http.NewServeMux()
	mux.HandleFunc("/decide", d.decideHandler())
	if enableWS {
		mux.HandleFunc("/ws/decide", d.websocketHandler())
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	return srv.ListenAndServe()
}

func (d *Decider) decideHandler() http.HandlerFunc {
	complain := func(w http.ResponseWriter, x interface{}, status int) {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":"%s"}`+"\n", x)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		js, err := ioutil.ReadAll(r.Body)
		if err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		if err := r.Body.Close(); err != nil {
			log.Printf("service.Decider.HTTPServer warning on Body.Close(): %v", err)
		}

		var input map[string]interface{}
		if err := json.Unmarshal(js, &input); err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}

		attrs, err := d.Decide(r.Context(), input)
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}

		js, err = json.Marshal(&attrs)
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		if _, err := w.Write(js); err != nil {
			log.Printf("service.Decider.HTTPServer warning on Write(): %v", err)
		}
	}
}
