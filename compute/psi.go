package compute

import (
	"net/url"

	"github.com/cosmian/scs/transport"
)

// PSI runs private set intersections. The receiver holds the set against
// which the sender intersects; only the receiver learns the intersection.
//
// The flow is: the receiver sets up its set (ReceiverSetup*), its generated
// data is shipped to the sender (ReceiverDownloadSenderData then
// SenderSetup on the sender's server), the sender processes its own set
// against it (SenderProcess*), and the receiver reveals the intersection
// from the sender's encrypted results (ReceiverRevealIntersection).
type PSI struct {
	ctx *transport.Context
}

type uuidResponse struct {
	UUID string `json:"uuid"`
}

// Clean removes all data generated for the given uid.
func (p *PSI) Clean(uid string) error {
	return p.ctx.Delete("/psi/"+uid, nil, nil,
		"PSI:: failed cleaning up data files for uid: "+uid)
}

// CleanAll removes all generated data files.
func (p *PSI) CleanAll() error {
	return p.ctx.Delete("/psi/all", nil, nil, "PSI:: failed cleaning up all data files")
}

// ReceiverSetupFromURL sets up receiver data with values read from an URL,
// one hex string per line, and returns the uid.
func (p *PSI) ReceiverSetupFromURL(sourceURL string) (string, error) {
	var resp uuidResponse
	err := p.ctx.Get("/psi/receiver/setup", url.Values{"url": {sourceURL}}, &resp,
		"PSI:: failed setting up a receiver with data from an url")
	return resp.UUID, err
}

// ReceiverSetupFromView sets up receiver data with values from a view and
// returns the uid. An empty column selects the view's first column.
func (p *PSI) ReceiverSetupFromView(viewName, column string) (string, error) {
	params := url.Values{"view": {viewName}}
	if column != "" {
		params.Set("column", column)
	}
	var resp uuidResponse
	err := p.ctx.Get("/psi/receiver/setup", params, &resp,
		"PSI:: failed setting up a receiver with data from a view")
	return resp.UUID, err
}

// ReceiverSetupFromHexStrings sets up receiver data from an in-memory array
// of hex strings and returns the uid.
func (p *PSI) ReceiverSetupFromHexStrings(hexStrings []string) (string, error) {
	var resp uuidResponse
	err := p.ctx.Post("/psi/receiver/setup/post", hexStrings, nil, &resp,
		"PSI:: Error setting up a receiver with data from hex strings")
	return resp.UUID, err
}

// ReceiverDownloadSenderData downloads the receiver data generated during
// setup for uid into dataFile, returning the number of bytes written.
func (p *PSI) ReceiverDownloadSenderData(uid, dataFile string) (int64, error) {
	return p.ctx.Download("/psi/receiver/data/"+uid, dataFile, nil, nil,
		"PSI:: failed downloading the sender data for uid: "+uid)
}

// SenderSetup uploads a receiver data file and returns the sender uid. This
// is a synchronous call and may take minutes on large sets.
func (p *PSI) SenderSetup(receiverDataFile string) (string, error) {
	var resp uuidResponse
	err := p.ctx.Upload("/psi/sender/setup", receiverDataFile, "", "", nil, &resp,
		"PSI:: Error setting up a sender from: "+receiverDataFile)
	return resp.UUID, err
}

// SenderSetupAsync is SenderSetup on its own worker and session; cb is
// resolved with the raw uuid response.
func (p *PSI) SenderSetupAsync(receiverDataFile string, cb transport.Callback, userCtx any) *transport.Async {
	return p.ctx.UploadAsync("/psi/sender/setup", receiverDataFile, cb, userCtx, "", "", nil,
		"PSI:: failed to asynchronously setup the sender with data file: "+receiverDataFile)
}

// SenderProcessFromURL intersects the sender set read from an URL against
// the receiver data for uid. The encrypted results are downloaded into
// resultsFile; the byte count is returned.
func (p *PSI) SenderProcessFromURL(uid, resultsFile, sourceURL string) (int64, error) {
	return p.ctx.Download("/psi/sender/process/"+uid, resultsFile,
		url.Values{"url": {sourceURL}}, nil,
		"PSI:: failed processing the sender intersection for the uid: "+uid+" and the url: "+sourceURL)
}

// SenderProcessFromView intersects values from a view against the receiver
// data for uid, downloading the encrypted results into resultsFile. An
// empty column selects the view's first column.
func (p *PSI) SenderProcessFromView(uid, resultsFile, viewName, column string) (int64, error) {
	params := url.Values{"view": {viewName}}
	if column != "" {
		params.Set("column", column)
	}
	return p.ctx.Download("/psi/sender/process/"+uid, resultsFile, params, nil,
		"PSI:: failed processing the sender intersection for the uid: "+uid+" and the view: "+viewName)
}

// SenderProcessFromHexStrings intersects an in-memory array of hex strings
// against the receiver data for uid, downloading the encrypted results into
// resultsFile.
func (p *PSI) SenderProcessFromHexStrings(uid, resultsFile string, hexStrings []string) (int64, error) {
	return p.ctx.Download("/psi/sender/process/post/"+uid, resultsFile, nil, hexStrings,
		"PSI:: failed processing the sender intersection for the uid: "+uid)
}

// SenderProcessFromURLAsync is SenderProcessFromURL on its own worker and
// session; cb is resolved with the downloaded byte count.
func (p *PSI) SenderProcessFromURLAsync(uid, resultsFile, sourceURL string, cb transport.SizeCallback, userCtx any) *transport.Async {
	return p.ctx.DownloadAsync("/psi/sender/process/"+uid, resultsFile, cb, userCtx,
		url.Values{"url": {sourceURL}}, nil,
		"PSI:: failed processing the sender intersection for the uid: "+uid)
}

// SenderProcessFromViewAsync is SenderProcessFromView on its own worker and
// session.
func (p *PSI) SenderProcessFromViewAsync(uid, resultsFile, viewName, column string, cb transport.SizeCallback, userCtx any) *transport.Async {
	params := url.Values{"view": {viewName}}
	if column != "" {
		params.Set("column", column)
	}
	return p.ctx.DownloadAsync("/psi/sender/process/"+uid, resultsFile, cb, userCtx, params, nil,
		"PSI:: failed processing the sender intersection for the uid: "+uid)
}

// SenderProcessFromHexStringsAsync is SenderProcessFromHexStrings on its
// own worker and session.
func (p *PSI) SenderProcessFromHexStringsAsync(uid, resultsFile string, hexStrings []string, cb transport.SizeCallback, userCtx any) *transport.Async {
	return p.ctx.DownloadAsync("/psi/sender/process/post/"+uid, resultsFile, cb, userCtx, nil, hexStrings,
		"PSI:: failed processing the sender intersection for the uid: "+uid)
}

// ReceiverRevealIntersection uploads a sender results file and reveals the
// intersection as an array of hex strings.
func (p *PSI) ReceiverRevealIntersection(resultsFile string) ([]string, error) {
	var out []string
	err := p.ctx.Upload("/psi/receiver/process", resultsFile, "", "", nil, &out,
		"PSI:: failed processing the results file: "+resultsFile)
	return out, err
}
