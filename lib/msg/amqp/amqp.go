// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"

	"github.com/streadway/amqp"

	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/msg/types"
)

// Exchanges declared by Setup.
const (
	IntentExchange   = "in" // wallet services publish intents
	SnapshotExchange = "sn" // the background service publishes snapshots
)

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	l    sync.Mutex // guards ch
}

// New instantiates a new amqp broker.
func New(uri string) (msg.MsgBroker, error) {
	r := &Amqp{}

	var err error

	if r.conn, err = amqp.Dial(uri); err != nil {
		return r, err
	}

	log.Printf("Connected to %s", uri)

	return r, nil
}

// Setup obtains an amqp channel and declares the message broker exchanges:
//
// - in ("intents"): the wallet services publish intents to this exchange
//
// - sn ("snapshots"): the background service publishes store snapshots to this exchange
func (r *Amqp) Setup(x interface{}) error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	if err = channel.ExchangeDeclare(IntentExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}

	return channel.ExchangeDeclare(SnapshotExchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Close terminates gracefully the connection to the AMQP message broker
func (r *Amqp) Close() error {
	r.l.Lock()
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			log.Printf("Error closing amqp.Channel:%v", err)
		}

		r.ch = nil

		log.Printf("amqp.Channel closed!")
	}
	r.l.Unlock()

	return r.conn.Close()
}

// channel returns the shared channel, opening it if not present.
func (r *Amqp) channel() (*amqp.Channel, error) {
	r.l.Lock()
	defer r.l.Unlock()

	var err error

	if r.ch == nil {
		r.ch, err = r.conn.Channel()
	}

	return r.ch, err
}

func (r *Amqp) publish(exchange, key, header, name string, v interface{}) error {
	jsonDoc, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}

	return ch.Publish(exchange, key, false, false, amqp.Publishing{
		Headers:     amqp.Table{header: name},
		Body:        jsonDoc,
		ContentType: "application/json",
	})
}

// SendIntent publishes a new intent to the "in" exchange
func (r *Amqp) SendIntent(net string, in types.Intent) error {
	err := r.publish(IntentExchange, net+"."+strconv.Itoa(in.Kind)+"."+in.ID, "x-intent-name", net+"."+in.ID, in)
	if err != nil {
		log.Printf("[%s] Error sending intent to message broker %v", net, err)
	}

	return err
}

// SendSnapshot publishes a store snapshot to the "sn" exchange
func (r *Amqp) SendSnapshot(net string, s types.Snapshot) error {
	seq := strconv.FormatUint(s.Seq, 10)

	err := r.publish(SnapshotExchange, net+".snap."+seq, "x-snap-name", net+"."+seq, s)
	if err != nil {
		log.Printf("[%s] Error sending snapshot to message broker %v", net, err)
	}

	return err
}

// GetIntents consumes intents from the "in" exchange for the specified network pushing them to the returned channel.
// The queue is durable and shared, so intents published while the background service is down are applied when it
// comes back. The Mutex pointer is provided to ensure the consumed message has been fully dealt with by the management
// function, so the message consumed is only acknowledged when the mutex is unlocked.
func (r *Amqp) GetIntents(net string, mut *sync.Mutex) (<-chan types.Intent, <-chan error, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, nil, err
	}

	q, err := ch.QueueDeclare(IntentExchange+net, true, false, false, false, nil)
	if err != nil {
		return nil, nil, err
	}

	if err = ch.QueueBind(q.Name, net+".*.*", IntentExchange, false, nil); err != nil {
		return nil, nil, err
	}

	msgs, err := ch.Consume(q.Name, "background-"+net, false, false, false, false, nil)
	if err != nil {
		return nil, nil, err
	}

	ins := make(chan types.Intent)
	errs := make(chan error)

	go func() {
		defer close(ins)
		defer close(errs)

		for m := range msgs {
			var in types.Intent
			if err := json.Unmarshal(m.Body, &in); err != nil {
				errs <- err

				_ = m.Nack(false, false) // drop malformed intents

				continue
			}
			ins <- in
			mut.Lock() // wait for the background service to finish applying the intent
			_ = m.Ack(false)
		}
	}()

	return ins, errs, nil
}

// GetSnapshots consumes snapshots from the "sn" exchange pushing them to the returned channel. Every caller gets its
// own exclusive queue so all wallet instances observe every snapshot. The Mutex pointer is provided to ensure the
// consumed message has been fully dealt with by the management function, so the message consumed is only
// acknowledged when the mutex is unlocked.
func (r *Amqp) GetSnapshots(net string, mut *sync.Mutex) (<-chan types.Snapshot, <-chan error, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, nil, err
	}

	if err = ch.QueueBind(q.Name, net+".snap.*", SnapshotExchange, false, nil); err != nil {
		return nil, nil, err
	}

	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return nil, nil, err
	}

	snaps := make(chan types.Snapshot)
	errs := make(chan error)

	go func() {
		defer close(snaps)
		defer close(errs)

		for m := range msgs {
			var s types.Snapshot
			if err := json.Unmarshal(m.Body, &s); err != nil {
				errs <- err

				_ = m.Nack(false, false)

				continue
			}
			snaps <- s
			mut.Lock() // wait for the wallet to finish processing the snapshot
			_ = m.Ack(false)
		}
	}()

	return snaps, errs, nil
}
