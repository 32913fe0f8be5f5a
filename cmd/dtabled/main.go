// dtabled is a long-running decision-table service: it compiles a grid
// once at startup, optionally reloads it on a cron schedule, and
// serves decisions over HTTP, WebSocket, and/or MQTT front ends,
// following cmd/mservice/main.go's flag-driven, start-what-was-asked-
// for main loop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gridrules/dtable/core"
	"github.com/gridrules/dtable/grid"
	"github.com/gridrules/dtable/interpreters"
	"github.com/gridrules/dtable/service"
	"github.com/gridrules/dtable/service/audit"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)

	var (
		gridFilename = flag.String("grid", "", "grid filename (CSV or YAML)")
		httpAddr     = flag.String("h", ":8080", "HTTP service address (empty to disable)")
		ws           = flag.Bool("w", false, "also serve /ws/decide on the HTTP address")
		cron         = flag.String("reload-cron", "", "cron expression for periodic grid reload (empty to disable)")

		mqttBroker  = flag.String("mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883 (empty to disable)")
		mqttClient  = flag.String("mqtt-client-id", "dtabled", "MQTT client id")
		mqttReqTop  = flag.String("mqtt-request-topic", "dtable/request", "MQTT topic carrying input records")
		mqttReplTop = flag.String("mqtt-reply-topic", "dtable/reply", "MQTT topic carrying decided output records")

		auditFile = flag.String("audit", "", "bbolt filename for a decision audit log (empty to disable)")

		symbolize = flag.Bool("symbolize-keys", false, "decide against a copy of each input record")
		debug     = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	if *gridFilename == "" {
		log.Fatal("dtabled: -grid is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := core.Options{
		Interpreters: interpreters.Standard(),
		Debug:        *debug,
	}

	g, err := grid.LoadFile(*gridFilename)
	if err != nil {
		log.Fatal(err)
	}
	table, err := core.Parse(g, opts)
	if err != nil {
		log.Fatal(err)
	}

	d := service.NewDecider(table)
	d.SymbolizeKeys = *symbolize
	d.Debug = *debug

	if *auditFile != "" {
		a := audit.NewLog(*auditFile)
		if err := a.Open(); err != nil {
			log.Fatal(err)
		}
		defer a.Close()
		d.Audit = a
	}

	if *cron != "" {
		r := &service.Reloader{
			Filename: *gridFilename,
			Cron:     *cron,
			Options:  opts,
			Decider:  d,
			Debug:    *debug,
		}
		go func() {
			if err := r.Run(ctx); err != nil {
				log.Printf("dtabled: reloader stopped: %v", err)
			}
		}()
	}

	if *httpAddr != "" {
		go func() {
			if err := d.HTTPServer(ctx, *httpAddr, *ws); err != nil {
				log.Printf("dtabled: HTTPServer stopped: %v", err)
			}
		}()
	}

	if *mqttBroker != "" {
		cfg := service.MQTTConfig{
			Broker:       *mqttBroker,
			ClientID:     *mqttClient,
			RequestTopic: *mqttReqTop,
			ReplyTopic:   *mqttReplTop,
		}
		go func() {
			if err := d.MQTT(ctx, cfg); err != nil {
				log.Printf("dtabled: MQTT stopped: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	log.Printf("dtabled: shutting down")
	cancel()
}
