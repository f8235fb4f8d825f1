// Package main: background service.
//
// The background service owns the selected account and the keyring lock state of every configured network. It must
// use the same message broker as the wallet services. With the "local" broker type the background service runs inside
// the wallet process instead, see cmd/wallet.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tarancss/hd"

	"github.com/tarancss/acctpanel/background"
	"github.com/tarancss/acctpanel/lib/config"
	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/msg/amqp"
	"github.com/tarancss/acctpanel/lib/store"
	"github.com/tarancss/acctpanel/lib/store/db"
)

func main() {
	// get command line flags
	confPath := flag.String("c", "", "flag to get configuration from json file")
	monitor := flag.Bool("m", false, "flag to monitor the server with Prometheus at http://localhost:9100")
	flag.Parse()

	// extract configuration
	conf, err := config.ExtractConfiguration(*confPath)
	if err != nil {
		panic(err)
	}

	log.Printf("Configuration:%+v", conf)

	// connect to database
	var dbConn store.DB

	if dbConn, err = db.New(conf.DBType, conf.DBConn); err != nil {
		panic(err)
	}

	log.Printf("Connected to %s database:%s", conf.DBType, conf.DBConn)

	// load Prometheus monitor
	if *monitor {
		go func() {
			log.Println("Serving metrics API")

			h := http.NewServeMux()

			h.Handle("/metrics", promhttp.Handler())
			log.Printf("Metrics API stopped:%v", http.ListenAndServe(":9100", h))
		}()
	}

	// load message broker
	var mb msg.MsgBroker

	switch conf.MbType {
	case "amqp":
		if mb, err = amqp.New(conf.MbConn); err != nil {
			time.Sleep(10 * time.Second) // wait 10s for AMQP to be ready and try to reconnect

			if mb, err = amqp.New(conf.MbConn); err != nil {
				panic(err)
			}
		}

		if err = mb.Setup(nil); err != nil {
			panic(err)
		}

		defer func() {
			errClose := mb.Close()
			log.Printf("Closing messageBroker: %v", errClose)
		}()
	default:
		log.Fatalf("Unsupported message broker type for a standalone background service: %s", conf.MbType)
	}

	// load HD wallet
	seed, err := hex.DecodeString(conf.Seed)
	if err != nil {
		panic(err)
	}

	hdw, err := hd.Init(seed)
	if err != nil {
		panic(err)
	}

	// create background service
	b := background.New(conf.DBType, dbConn, mb, hdw, conf.Networks)
	defer b.Close()

	// capture CTRL+C or docker's SIGTERM for gracious exit
	go func() {
		sigchan := make(chan os.Signal, 10)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Println("Program killed !")
		// stop consuming intents, the intent being applied is finished first
		b.Stop()
	}()

	// serve every network and wait for all of them to stop
	log.Printf("Serve: %s", <-b.Serve())
}
