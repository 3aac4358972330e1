package compute

import (
	"fmt"

	"github.com/cosmian/scs/transport"
)

// FHE computes over fully homomorphically encrypted vectors. Values move
// through the API as opaque JSON: what the server returns for one operation
// feeds the next one unchanged.
type FHE struct {
	ctx *transport.Context
}

// KeyConf parameterizes an FHE key.
type KeyConf struct {
	VectorSize     int     `json:"vector_size"`
	D              int     `json:"d"`
	NoiseDeviation float64 `json:"noise_deviation"`
}

// GenKey generates a new key on the server and returns its id.
func (f *FHE) GenKey(conf KeyConf) (string, error) {
	var keyID string
	err := f.ctx.Post("/fhe/gen_key", conf, nil, &keyID,
		fmt.Sprintf("FHE:: Error generating key for n=%d, d=%d", conf.VectorSize, conf.D))
	return keyID, err
}

// Key downloads the raw key bytes for the given id.
func (f *FHE) Key(keyID string) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	err := f.ctx.Get("/fhe/key/"+keyID, nil, &resp,
		"FHE:: Error fetching key for with id "+keyID)
	return resp.Key, err
}

// AddKey uploads an externally generated key and returns its id.
func (f *FHE) AddKey(key string, conf KeyConf) (string, error) {
	payload := map[string]any{
		"value_conf": conf,
		"key":        key,
	}
	var keyID string
	err := f.ctx.Post("/fhe/key", payload, nil, &keyID, "FHE:: Error uploading key")
	return keyID, err
}

// Encrypt encrypts data with the given key.
func (f *FHE) Encrypt(keyID string, data any) (any, error) {
	payload := map[string]any{"key_id": keyID, "data": data}
	var resp struct {
		Res any `json:"res"`
	}
	err := f.ctx.Post("/fhe/encrypt", payload, nil, &resp,
		fmt.Sprintf("FHE:: Error encrypting with key=%s, data=%v", keyID, data))
	return resp.Res, err
}

// Add adds two encrypted values.
func (f *FHE) Add(a, b any) (any, error) {
	payload := map[string]any{"a": a, "b": b}
	var resp struct {
		Res any `json:"res"`
	}
	err := f.ctx.Post("/fhe/add", payload, nil, &resp,
		fmt.Sprintf("FHE:: Error computing %v + %v", a, b))
	return resp.Res, err
}

// Rotate rotates the encrypted vector v by n elements.
func (f *FHE) Rotate(v any, n int) (any, error) {
	payload := map[string]any{"v": v, "n": n}
	var resp struct {
		Res any `json:"res"`
	}
	err := f.ctx.Post("/fhe/rotate", payload, nil, &resp,
		fmt.Sprintf("FHE:: Error rotating %v by %d", v, n))
	return resp.Res, err
}

// CmuxScal applies the cmux_scal selector: an encrypted bit picks between
// the two encrypted operands.
func (f *FHE) CmuxScal(bit, a, b any) (any, error) {
	payload := map[string]any{"current_bit": bit, "a": a, "b": b}
	var resp struct {
		Res any `json:"res"`
	}
	err := f.ctx.Post("/fhe/cmux_scal", payload, nil, &resp,
		fmt.Sprintf("FHE:: Error invoking `cmux_scal` for %v, %v, %v", bit, a, b))
	return resp.Res, err
}

// Decrypt decrypts data with the given key.
func (f *FHE) Decrypt(keyID string, data any) (any, error) {
	payload := map[string]any{"value": data, "key_id": keyID}
	var out any
	err := f.ctx.Post("/fhe/decrypt", payload, nil, &out,
		fmt.Sprintf("FHE:: Error decrypting %v with key %s", data, keyID))
	return out, err
}
