// Package main: wallet service.
//
// Warning: the wallet lists accounts straight from the database, so it should be the same database used by the
// background service. All writes go through the background service as intents. With the "local" message broker type
// the background service runs inside this process, which suits single instance setups.
package main

import (
	"context"
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
	"github.com/tarancss/acctpanel/lib/msg/local"
	"github.com/tarancss/acctpanel/lib/store"
	"github.com/tarancss/acctpanel/lib/store/db"
	"github.com/tarancss/acctpanel/wallet"
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

	opts, err := conf.GroupOptions()
	if err != nil {
		panic(err)
	}

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

	var bg *background.Background

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
	case "local":
		mb = local.New()
		// the background service needs the HD wallet to derive addresses
		seed, errSeed := hex.DecodeString(conf.Seed)
		if errSeed != nil {
			panic(errSeed)
		}

		hdw, errHD := hd.Init(seed)
		if errHD != nil {
			panic(errHD)
		}

		bg = background.New(conf.DBType, dbConn, mb, hdw, conf.Networks)
	default:
		log.Fatalf("Unknown message broker type: %s", conf.MbType)
	}

	// create wallet service
	w := wallet.New(conf.DBType, dbConn, mb, conf.Networks, conf.LockedMessage, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// panels must subscribe to snapshots before the background service publishes the current state
	if err = w.ManageEvents(ctx); err != nil {
		panic(err)
	}

	var bgDone chan string
	if bg != nil {
		bgDone = bg.Serve()
	}

	// capture CTRL+C or docker's SIGTERM for gracious exit
	finish := make(chan int)

	go func() {
		sigchan := make(chan os.Signal, 10)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Println("Program killed !")
		// do last actions and wait for all write operations to end
		cancel()

		if bg != nil {
			bg.Stop()
			log.Printf("Background: %s", <-bgDone)
		}

		w.Stop()
		close(finish)
	}()

	// launch RESTful API server
	log.Printf("Init: %s", w.Init(conf.RestfulEndpoint, conf.Port, conf.SSLPort, conf.SSLCert, conf.SSLKey))
	<-finish
}
