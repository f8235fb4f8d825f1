package wallet

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const timeout = 15

// Router returns the RESTful API of the wallet service.
func (w *Wallet) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", w.homeHandler)
	r.HandleFunc("/networks", w.networksHandler).Methods("GET")                     // get served networks
	r.HandleFunc("/accounts", w.accountsHandler).Methods("GET")                     // get grouped accounts
	r.HandleFunc("/accounts/{address}", w.accountHandler).Methods("POST", "DELETE") // add or remove an account
	r.HandleFunc("/select/{address}", w.selectHandler).Methods("POST")              // request a selection
	r.HandleFunc("/selection", w.selectionHandler).Methods("GET")                   // get the selection state
	r.HandleFunc("/keyring/{action}", w.keyringHandler).Methods("POST")             // lock or unlock keyrings
	r.HandleFunc("/derive/{group:.+}", w.deriveHandler).Methods("POST")             // derive a group address
	r.HandleFunc("/notifications", w.notificationsHandler).Methods("GET")           // drain notifications

	return r
}

// Init sets up and starts the http/https server to service the RESTful API for a wallet service. If sslPort, ssCert
// and sslKey are informed, it will start an https (TLS) server on the specified endpoint. It returns once Stop has
// been called.
func (w *Wallet) Init(endpoint, port, sslPort, sslCert, sslKey string) string {
	var err, errTLS error

	r := w.Router()

	// start http server
	if port != "" {
		w.s = &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + port,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		go func() {
			err = w.s.ListenAndServe()
		}()

		log.Printf("Listening to API http requests on %s:%s", endpoint, port)
	}
	// start https server
	if sslPort != "" && sslCert != "" && sslKey != "" {
		w.ss = &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + sslPort,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		go func() {
			errTLS = w.ss.ListenAndServeTLS(sslCert, sslKey)
		}()

		log.Printf("Listening to API https requests on %s:%s", endpoint, sslPort)
	}
	// wait for servers to be shutdown
	<-w.sc

	return fmt.Sprintf("shutdown http server:%v, https server:%v", err, errTLS)
}
