package compute

import (
	"fmt"
	"math/big"

	"github.com/cosmian/scs/transport"
)

// DSum computes distributed sums: each client secret-shares a value under
// Curve 25519 keys held in the server's KMS, and the shares recombine into
// the sum without any client revealing its input. Values live in Zp where p
// is the order of the curve; see Modulus.
type DSum struct {
	ctx *transport.Context
}

// Keypair holds the KMS identifiers of a Curve 25519 key pair. The public
// key uid is meant to be exported to the other clients of a sum.
type Keypair struct {
	PrivateKeyUID string
	PublicKeyUID  string
}

// Modulus returns the order of Curve 25519, 2^252 + 27742317777372353535851937790883648493.
// Shared values and the recombined sum are reduced modulo this.
func Modulus() *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), 252)
	delta, _ := new(big.Int).SetString("27742317777372353535851937790883648493", 10)
	return m.Add(m, delta)
}

// CreateKeyPair creates a Curve 25519 key pair in the server's KMS and
// returns its identifiers.
func (d *DSum) CreateKeyPair() (Keypair, error) {
	var resp struct {
		PrivateKeyID string `json:"private_key_id"`
		PublicKeyID  string `json:"public_key_id"`
	}
	err := d.ctx.Post("/dsum/create_key_pair", nil, nil, &resp,
		"DSum: failed creating a Curve 25519 Keypair")
	return Keypair{PrivateKeyUID: resp.PrivateKeyID, PublicKeyUID: resp.PublicKeyID}, err
}

type keyResponse struct {
	Key string `json:"key"`
}

// PrivateKey returns the hex-encoded bytes of the private key with the
// given uid.
func (d *DSum) PrivateKey(uid string) (string, error) {
	var resp keyResponse
	err := d.ctx.Get("/dsum/private_key/"+uid, nil, &resp,
		"DSum: failed retrieving the Curve 25519 private key with uid: "+uid)
	return resp.Key, err
}

// PublicKey returns the hex-encoded bytes of the public key with the given
// uid.
func (d *DSum) PublicKey(uid string) (string, error) {
	var resp keyResponse
	err := d.ctx.Get("/dsum/public_key/"+uid, nil, &resp,
		"DSum: failed retrieving the Curve 25519 public key with uid: "+uid)
	return resp.Key, err
}

type uidResponse struct {
	UID string `json:"uid"`
}

// ImportPublicKey imports a hex-encoded Curve 25519 public key and returns
// its uid.
func (d *DSum) ImportPublicKey(hexBytes string) (string, error) {
	var resp uidResponse
	err := d.ctx.Post("/dsum/public_key", map[string]string{"key": hexBytes}, nil, &resp,
		"DSum: failed importing a Curve 25519 public key")
	return resp.UID, err
}

// UpdatePublicKey replaces the bytes of an existing public key.
func (d *DSum) UpdatePublicKey(uid, hexBytes string) (string, error) {
	var resp uidResponse
	err := d.ctx.Put("/dsum/public_key", map[string]string{"uid": uid, "key": hexBytes}, nil, &resp,
		"DSum: failed updating the Curve 25519 public key with uid: "+uid)
	return resp.UID, err
}

// SecretShare creates this client's share of a distributed sum. All clients
// of the same sum must use the same label, and publicKeyUIDs[clientNumber]
// must be this client's own public key. The returned share is encrypted.
func (d *DSum) SecretShare(clientNumber int, privateKeyUID string, publicKeyUIDs []string, label string, value *big.Int) (string, error) {
	payload := map[string]any{
		"client_number":     clientNumber,
		"private_key_uid":   privateKeyUID,
		"public_keys_uid_s": publicKeyUIDs,
		"label":             label,
		"value_to_share":    value.String(),
	}
	var resp struct {
		Share string `json:"share"`
	}
	err := d.ctx.Post("/dsum/secret_share", payload, nil, &resp,
		fmt.Sprintf("DSum: failed secret sharing the value: %s, for client: %d", value, clientNumber))
	return resp.Share, err
}

// Recombine adds the clients' shares together modulo the curve order and
// returns the sum. The shares are hex-encoded big-endian byte arrays.
func (d *DSum) Recombine(secretShares []string) (*big.Int, error) {
	var resp struct {
		Sum string `json:"sum"`
	}
	err := d.ctx.Put("/dsum/recombine", map[string]any{"secret_shares": secretShares}, nil, &resp,
		"DSum: failed recombining the secret shares")
	if err != nil {
		return nil, err
	}
	sum, ok := new(big.Int).SetString(resp.Sum, 10)
	if !ok {
		return nil, fmt.Errorf("DSum: recombined sum is not a decimal integer: %q", resp.Sum)
	}
	return sum, nil
}
