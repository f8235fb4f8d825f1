// Package acctpanel and its sub-packages implement the backend services of a wallet account switcher panel.
/*
acctpanel provides you with two microservices:

1) a wallet microservice (package wallet) that implements a RESTful API for user requests such as listing the accounts
 grouped for display, switching the selected account, locking the keyrings and adding or deriving accounts.

2) a background microservice (package background) that owns the authoritative selection and keyring lock state of
 every network and applies the requests of the wallets.

Architecture

The wallet and background services communicate via a message broker. Wallets send intents (select an account, lock the
keyrings, derive an address, ...) without waiting for them to be applied. The background service applies every intent
and publishes a snapshot of the resulting state. The message broker is implemented as a product agnostic layer
(package lib/msg) and is configured via a JSON config file at service startup. The "local" broker runs both services
in a single process.

Each wallet keeps a panel per network (package panel). A panel groups the account records by category and key
management group, reconciles optimistic selections with the snapshots received and raises a notification when the
keyrings become locked. Selections are confirmed only when a snapshot carries the requested address.

The background service persists accounts and selections to a database. Its layered implementation (package lib/store)
provides a database product agnostic interface to MongoDB, PostgreSQL or process memory. Wallets read the account
records from the same database.

The microservices can also be monitored via a Prometheus API by setting the flag "-m" at startup.

Wallet

The wallet microservice can be started running cmd/wallet/main.go. The wallet exposes an HTTP RESTful API that can be
used by multiple clients. Notifications are kept in a bounded inbox per network that clients drain.

Background

The background microservice can be started running cmd/background/main.go. It derives new addresses of "hd/<n>" groups
from a hierarchical deterministic wallet (HD wallet) seeded from the configuration.

*/
package acctpanel
