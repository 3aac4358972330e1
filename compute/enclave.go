package compute

import (
	"encoding/json"

	"github.com/cosmian/scs/transport"
)

// Enclave deploys encrypted code into SGX enclaves. The sender is the
// algorithm provider, the receiver the data provider.
type Enclave struct {
	ctx *transport.Context
}

// Handshake initializes the cryptographic primitives between algorithm
// provider and data provider ahead of code deployment.
func (e *Enclave) Handshake(remoteDataProvider string) (json.RawMessage, error) {
	var out json.RawMessage
	err := e.ctx.Post("/enclave/sender/handshake",
		map[string]string{"remote_data_provider": remoteDataProvider}, nil, &out,
		"enclave:: failed initial handshake with: "+remoteDataProvider)
	return out, err
}

// RemoteAttestation verifies the integrity of the data provider's SGX
// platform against the remote attestation service, using the handshake
// result. Optional but recommended.
func (e *Enclave) RemoteAttestation(quote any) (json.RawMessage, error) {
	var out json.RawMessage
	err := e.ctx.Post("/enclave/sender/remote_attestation", quote, nil, &out,
		"enclave:: failed remote attestation")
	return out, err
}

// EncryptCode encrypts source code under the primitives set up during the
// handshake.
func (e *Enclave) EncryptCode(code string) (string, error) {
	var resp struct {
		EncCode string `json:"enc_code"`
	}
	err := e.ctx.Post("/enclave/sender/encrypt", map[string]string{"code": code}, nil, &resp,
		"enclave:: failed encrypting code")
	return resp.EncCode, err
}

// SendCode ships encrypted code to the data provider under the given
// algorithm name.
func (e *Enclave) SendCode(remoteServerURL, algoName, encCode string) (string, error) {
	payload := map[string]string{
		"remote_data_provider": remoteServerURL,
		"enc_code":             encCode,
	}
	var resp successResponse
	err := e.ctx.Post("/enclave/sender/code/"+algoName, payload, nil, &resp,
		"enclave:: failed deploying code to: "+remoteServerURL)
	return resp.Success, err
}

// RunCode runs a deployed algorithm with optional parameters.
func (e *Enclave) RunCode(algoName string, params any) (json.RawMessage, error) {
	var out json.RawMessage
	err := e.ctx.Post("/enclave/receiver/code/"+algoName,
		map[string]any{"params": params}, nil, &out,
		"enclave:: failed running algorithm: "+algoName)
	return out, err
}

// ListCodes returns the names of the deployed algorithms.
func (e *Enclave) ListCodes() ([]string, error) {
	var out []string
	err := e.ctx.Get("/enclave/receiver/codes", nil, &out,
		"enclave:: failed getting algorithms list")
	return out, err
}

// ShowCode returns a hex representation of a deployed algorithm.
func (e *Enclave) ShowCode(algoName string) (string, error) {
	var out string
	err := e.ctx.Get("/enclave/receiver/code/"+algoName, nil, &out,
		"enclave:: failed showing algorithm: "+algoName)
	return out, err
}

// DeleteCode removes a deployed algorithm.
func (e *Enclave) DeleteCode(algoName string) error {
	return e.ctx.Delete("/enclave/receiver/code/"+algoName, nil, nil,
		"enclave:: failed deleting algorithm: "+algoName)
}

// PushData ships a data file's content to the data provider.
func (e *Enclave) PushData(filename, content string) (string, error) {
	var resp successResponse
	err := e.ctx.Post("/enclave/receiver/data/"+filename,
		map[string]string{"data": content}, nil, &resp,
		"enclave:: failed pushing data as "+filename)
	return resp.Success, err
}

// DeleteData removes previously pushed data.
func (e *Enclave) DeleteData(filename string) error {
	return e.ctx.Delete("/enclave/receiver/data/"+filename, nil, nil,
		"enclave:: failed deleting data as "+filename)
}
