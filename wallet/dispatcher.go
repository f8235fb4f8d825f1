package wallet

import (
	"log"

	"github.com/google/uuid"

	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/msg/types"
)

// dispatcher publishes panel intents to the message broker. It does not wait for the background service.
type dispatcher struct {
	mb msg.MsgBroker
}

// send publishes in with a new ID and returns the ID.
func (d dispatcher) send(in types.Intent) (string, error) {
	in.ID = uuid.NewString()

	err := d.mb.SendIntent(in.Net, in)

	result := "ok"
	if err != nil {
		result = "error"
	}

	intentsSent.WithLabelValues(in.Net, types.KindName(in.Kind), result).Inc()
	log.Printf("[%s] Sent intent %s %s %q err:%v", in.Net, in.ID, types.KindName(in.Kind), in.Obj, err)

	return in.ID, err
}

func (d dispatcher) kind(net string, kind int, obj string) error {
	_, err := d.send(types.Intent{Net: net, Kind: kind, Obj: obj})

	return err
}

func (d dispatcher) SelectAccount(address, net string) error {
	return d.kind(net, types.SELECT, address)
}

func (d dispatcher) ClearSignature(net string) error {
	return d.kind(net, types.CLEARSIG, "")
}

func (d dispatcher) ResetClaimFlow(net string) error {
	return d.kind(net, types.RESETCLAIM, "")
}

func (d dispatcher) LockKeyrings(net string) error {
	return d.kind(net, types.LOCK, "")
}

func (d dispatcher) DeriveAddress(group, net string) error {
	return d.kind(net, types.DERIVE, group)
}
