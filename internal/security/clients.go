package security

import (
	"crypto/subtle"
	"errors"

	"github.com/mecber11/farmacia/configs"
)

var ErrInvalidClient = errors.New("invalid client")

// Client is a reporting API consumer allowed to request bearer tokens.
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"sales.read"}
	Enabled bool
}

// Clients is the configured client registry keyed by id.
type Clients map[string]Client

func NewClients(cfg []configs.ClientConfig) Clients {
	out := make(Clients, len(cfg))
	for _, c := range cfg {
		if c.ID == "" {
			continue
		}
		out[c.ID] = Client{ID: c.ID, Secret: c.Secret, Perms: append([]string(nil), c.Perms...), Enabled: c.Enabled}
	}
	return out
}

// Authenticate checks client credentials. Unknown, disabled and wrong-secret
// clients are indistinguishable to the caller.
func (cs Clients) Authenticate(id, secret string) (Client, error) {
	cl, ok := cs[id]
	if !ok || !cl.Enabled || cl.Secret == "" {
		return Client{}, ErrInvalidClient
	}
	if subtle.ConstantTimeCompare([]byte(cl.Secret), []byte(secret)) != 1 {
		return Client{}, ErrInvalidClient
	}
	return cl, nil
}
