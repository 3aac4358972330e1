package compute

import (
	"github.com/cosmian/scs/transport"
)

// CKKS computes approximate homomorphic arithmetic over real vectors. The
// provider side holds the keys and encrypts or decrypts; the computation
// side works on ciphertexts only. Every piece of server-side data is
// addressed by a uid.
type CKKS struct {
	ctx *transport.Context
}

type successResponse struct {
	Success string `json:"success"`
}

type dataResponse struct {
	Data []string `json:"data"`
}

// ProviderInit sets up the crypto primitives and returns the uid of the
// crypto context.
func (c *CKKS) ProviderInit() (string, error) {
	var uid string
	err := c.ctx.Get("/ckks/provider/init", nil, &uid, "CKKS:: failed init crypto")
	return uid, err
}

// ProviderEncrypt encrypts the input vector under the crypto context uid
// and returns the uid of the encrypted data.
func (c *CKKS) ProviderEncrypt(uid string, input []float64) (string, error) {
	var encUID string
	err := c.ctx.Post("/ckks/provider/encrypt/"+uid, map[string]any{"input": input}, nil, &encUID,
		"CKKS:: failed encrypting data on provider side")
	return encUID, err
}

// ProviderDecrypt decrypts the data behind uid.
func (c *CKKS) ProviderDecrypt(uid string) ([]float64, error) {
	var out []float64
	err := c.ctx.Get("/ckks/provider/decrypt/"+uid, nil, &out,
		"CKKS:: failed decrypting data for uid: "+uid)
	return out, err
}

// Encode encodes cleartext data into polynomials under the crypto context
// uid, returning the encoded vector.
func (c *CKKS) Encode(uid string, input []float64) ([]string, error) {
	var resp dataResponse
	err := c.ctx.Post("/ckks/computation/encode/"+uid, map[string]any{"input": input}, nil, &resp,
		"CKKS:: failed encoding data for uid: "+uid)
	return resp.Data, err
}

// EncodeMulti encodes several cleartext vectors at once.
func (c *CKKS) EncodeMulti(uid string, inputs [][]float64) ([][]string, error) {
	var resp struct {
		Data [][]string `json:"data"`
	}
	err := c.ctx.Post("/ckks/computation/encode_multi/"+uid, map[string]any{"input": inputs}, nil, &resp,
		"CKKS:: failed multi encode of data for uid: "+uid)
	return resp.Data, err
}

// LUT blindly accesses a lookup table: the encoded vector is multiplied
// with the encrypted one behind uid and the result summed, returning a
// vector of ciphertexts.
func (c *CKKS) LUT(uid string, encoded []string) ([]string, error) {
	var resp dataResponse
	err := c.ctx.Post("/ckks/computation/lut/"+uid, map[string]any{"data": encoded}, nil, &resp,
		"CKKS:: failed LUT for uid: "+uid)
	return resp.Data, err
}

// LoopMulAdd runs the rotate-multiply-add loop over the encrypted data and
// returns the resulting ciphertext vector. A zero steps lets the server
// pick the step count.
func (c *CKKS) LoopMulAdd(uid string, encData []string, steps int) ([]string, error) {
	payload := map[string]any{"data_input": encData}
	if steps > 0 {
		payload["steps"] = steps
	}
	var resp dataResponse
	err := c.ctx.Post("/ckks/computation/loop_mul_add/"+uid, payload, nil, &resp,
		"CKKS:: failed loop Rot/Mul/Add on data for uid: "+uid)
	return resp.Data, err
}

// StripAdd adds two ciphertexts and strips the result, returning the uid of
// the stripped sum.
func (c *CKKS) StripAdd(uid, ct1, ct2 string) (string, error) {
	payload := map[string]any{"bytes_ct_1": ct1, "bytes_ct_2": ct2}
	var resp successResponse
	err := c.ctx.Post("/ckks/computation/strip_add/"+uid, payload, nil, &resp,
		"CKKS:: failed Strip/Add on data for uid: "+uid)
	return resp.Success, err
}

// Square squares the encrypted data behind uid in place.
func (c *CKKS) Square(uid string) (string, error) {
	var resp successResponse
	err := c.ctx.Get("/ckks/computation/square/"+uid, nil, &resp,
		"CKKS:: failed squaring data for uid: "+uid)
	return resp.Success, err
}

// Mul multiplies the encrypted data behind uid with the given encoded data.
func (c *CKKS) Mul(uid string, encoded []string) (string, error) {
	var resp successResponse
	err := c.ctx.Post("/ckks/computation/mul/"+uid, map[string]any{"data": encoded}, nil, &resp,
		"CKKS:: failed multiplying data for uid: "+uid)
	return resp.Success, err
}

// Sum sums the encrypted data behind uid.
func (c *CKKS) Sum(uid string) (string, error) {
	var resp successResponse
	err := c.ctx.Get("/ckks/computation/sum/"+uid, nil, &resp,
		"CKKS:: failed summing up data for uid: "+uid)
	return resp.Success, err
}

// ProviderDownloadData downloads the provider data for uid into dataFile,
// returning the byte count.
func (c *CKKS) ProviderDownloadData(uid, dataFile string) (int64, error) {
	return c.ctx.Download("/ckks/provider/data/"+uid, dataFile, nil, nil,
		"CKKS:: failed downloading provider data for uid: "+uid)
}

// ComputationDownloadData downloads the computed data for uid into
// dataFile, returning the byte count.
func (c *CKKS) ComputationDownloadData(uid, dataFile string) (int64, error) {
	return c.ctx.Download("/ckks/computation/data/"+uid, dataFile, nil, nil,
		"CKKS:: failed downloading computed data for uid: "+uid)
}

// ProviderLoadData uploads data to the provider side for decryption and
// returns its uid. Synchronous; may take minutes.
func (c *CKKS) ProviderLoadData(dataFile string) (string, error) {
	var uid string
	err := c.ctx.Upload("/ckks/provider/setup", dataFile, "", "", nil, &uid,
		"CKKS:: failed loading provider data")
	return uid, err
}

// ComputationLoadData uploads data to the computation side for processing
// and returns its uid. Synchronous; may take minutes.
func (c *CKKS) ComputationLoadData(dataFile string) (string, error) {
	var uid string
	err := c.ctx.Upload("/ckks/computation/setup", dataFile, "", "", nil, &uid,
		"CKKS:: failed loading computed data")
	return uid, err
}

// Delete removes the data behind uid.
func (c *CKKS) Delete(uid string) error {
	return c.ctx.Delete("/ckks/delete/"+uid, nil, nil,
		"CKKS:: failed deleting data for uid: "+uid)
}

// DeleteAll removes all CKKS data on the server.
func (c *CKKS) DeleteAll() error {
	return c.ctx.Delete("/ckks/all", nil, nil, "CKKS:: failed deleting all the CKKS data")
}
