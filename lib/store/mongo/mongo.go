// Package mongo implements the interface for MongoDB.
package mongo

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/store"
)

// Databases used, one collection per network in each.
const (
	accountsDB  = "acct"
	selectionDB = "sel"
)

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// MongoAccount implements a store account to MongoDB.
type MongoAccount struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name,omitempty" bson:"name,omitempty"`
	Addr     string             `json:"address" bson:"address"`
	Category string             `json:"category" bson:"category"`
	Group    string             `json:"group,omitempty" bson:"group,omitempty"`
}

// Record converts a MongoAccount to account.Record type. Unknown categories are kept as account.Unknown.
func (a MongoAccount) Record(net string) account.Record {
	cat, _ := account.ParseCategory(a.Category)

	return account.Record{Address: a.Addr, Name: a.Name, Category: cat, GroupID: a.Group, Network: net}
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	// get a client
	c, err := mgo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo DB in %s: %w", uri, err)
	}
	// connect client
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:gomnd // 5 seconds timeout
	defer cancel()

	if err = c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to mongo DB: %w", err)
	}

	return &Mongo{c: c}, nil
}

// CloseMongo will close a database connection. Must be called at termination time.
func (m *Mongo) CloseMongo() error {
	return m.c.Disconnect(context.Background())
}

// AddAccount saves an account if its address does not already exist.
func (m *Mongo) AddAccount(net string, a account.Record) ([]byte, error) {
	addr := account.Normalize(a.Address)
	col := m.c.Database(accountsDB).Collection(net)

	var ma MongoAccount

	// try and find it
	err := col.FindOne(context.Background(), bson.M{"address": addr}).Decode(&ma)
	if errors.Is(err, mgo.ErrNoDocuments) { // if not found, do insert it!!
		res, errIns := col.InsertOne(context.Background(), bson.M{
			"name":     a.Name,
			"address":  addr,
			"category": a.Category.String(),
			"group":    a.GroupID,
		})
		if errIns != nil {
			return nil, fmt.Errorf("could not insert account in db: %w", errIns)
		}

		oid, _ := res.InsertedID.(primitive.ObjectID)

		return hex.DecodeString(oid.Hex())
	}

	if err != nil {
		return nil, fmt.Errorf("could not insert account in db: %w", err)
	}

	log.Printf("[%s] Account was already stored:%+v\n", net, ma)

	return hex.DecodeString(ma.ID.Hex())
}

// RemoveAccount deletes an account from the database.
func (m *Mongo) RemoveAccount(net, address string) error {
	res, err := m.c.Database(accountsDB).Collection(net).DeleteOne(context.Background(),
		bson.M{"address": account.Normalize(address)})
	if err == nil && res.DeletedCount != 1 {
		err = store.ErrAccountNotFound
	}

	return err
}

// GetAccounts returns the accounts of the network in insertion order.
func (m *Mongo) GetAccounts(net string) ([]account.Record, error) {
	ctx := context.Background()

	cur, err := m.c.Database(accountsDB).Collection(net).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error getting mongo DB object: %w", err)
	}
	defer cur.Close(ctx)

	recs := []account.Record{}

	for cur.Next(ctx) {
		var a MongoAccount
		if err = cur.Decode(&a); err != nil {
			log.Printf("[%s] Skipping malformed account document:%v", net, err)

			continue
		}

		recs = append(recs, a.Record(net))
	}

	return recs, cur.Err()
}

// LoadSelection loads from db the selection state for the indicated network.
func (m *Mongo) LoadSelection(net string) (s store.Selection, err error) {
	res := m.c.Database(selectionDB).Collection(net).FindOne(context.Background(), bson.D{})
	if err = res.Decode(&s); errors.Is(err, mgo.ErrNoDocuments) {
		err = store.ErrDataNotFound
	}

	return
}

// SaveSelection saves to db the selection state for the indicated network.
func (m *Mongo) SaveSelection(net string, s store.Selection) (err error) {
	_, err = m.c.Database(selectionDB).Collection(net).UpdateOne(context.Background(),
		bson.D{}, // filter
		bson.D{ // update
			{
				Key: "$set", Value: bson.D{
					{Key: "address", Value: s.Address},
					{Key: "locked", Value: s.Locked},
					{Key: "seq", Value: s.Seq},
				},
			},
		},
		options.Update().SetUpsert(true))

	return
}

// DeleteSelection deletes from db the selection state for the indicated network.
func (m *Mongo) DeleteSelection(net string) (err error) {
	_, err = m.c.Database(selectionDB).Collection(net).DeleteOne(context.Background(), bson.D{}, options.Delete())

	return
}

// DropAccounts deletes every account of the indicated network.
func (m *Mongo) DropAccounts(net string) error {
	return m.c.Database(accountsDB).Collection(net).Drop(context.Background())
}
