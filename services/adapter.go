package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/meridianhq/meridian/errors"
	"github.com/meridianhq/meridian/logger"
)

// Adapter is an invocable backend bound to one operation.
type Adapter interface {
	// Invoke performs the backend work for the bound operation
	Invoke(ctx context.Context) error

	// Name returns the adapter's service name for logging
	Name() string
}

// adapterConstructor builds an adapter from a descriptor and the operation
// it is bound to.
type adapterConstructor func(Descriptor, *Operation) Adapter

// adapterConstructors is the closed mapping from backend kind to adapter
// constructor. Kinds absent from this map cannot be built; that is the one
// place selection can hard-fail.
var adapterConstructors = map[Kind]adapterConstructor{
	KindHTTP:   newHTTPAdapter,
	KindDocker: newDockerAdapter,
	KindNoOp:   newNoOpAdapter,
}

// BuildAdapter maps a descriptor's declared backend kind to a concrete
// adapter bound to the operation. An unrecognized kind is a configuration
// fault and returns a not-found error.
func BuildAdapter(desc Descriptor, op *Operation) (Adapter, error) {
	ctor, ok := adapterConstructors[desc.Kind]
	if !ok {
		return nil, errors.NewNotFoundError("no adapter registered for backend kind %q (service %s)", desc.Kind, desc.Name)
	}
	return ctor(desc, op), nil
}

// noOpAdapter performs no backend work. It exists to carry the router's
// diagnostic message back to the caller as a completed no-op.
type noOpAdapter struct {
	desc Descriptor
}

func newNoOpAdapter(desc Descriptor, _ *Operation) Adapter {
	return &noOpAdapter{desc: desc}
}

func (a *noOpAdapter) Name() string { return a.desc.Name }

func (a *noOpAdapter) Invoke(_ context.Context) error {
	logger.Infow("No-op service selected",
		"service", a.desc.Name,
		"message", a.desc.Message)
	return nil
}

// invocationRequest is the payload posted to HTTP backends.
type invocationRequest struct {
	Sources      []Source `json:"sources"`
	OutputFormat string   `json:"format,omitempty"`
}

// httpAdapter invokes a remote backend by posting the operation to the
// service URL.
type httpAdapter struct {
	desc   Descriptor
	op     *Operation
	client *http.Client
}

func newHTTPAdapter(desc Descriptor, op *Operation) Adapter {
	return &httpAdapter{
		desc: desc,
		op:   op,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *httpAdapter) Name() string { return a.desc.Name }

func (a *httpAdapter) Invoke(ctx context.Context) error {
	body, err := json.Marshal(invocationRequest{
		Sources:      a.op.Sources,
		OutputFormat: a.op.OutputFormat,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal invocation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.desc.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to build invocation request for %s", a.desc.Name)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to invoke service %s", a.desc.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Newf("service %s returned %d: %s", a.desc.Name, resp.StatusCode, string(detail))
	}

	logger.Debugw("Service invocation accepted",
		"service", a.desc.Name,
		"status", resp.StatusCode)
	return nil
}

// dockerAdapter invokes a backend as a local container execution. Meridian
// only hands the operation to the container runtime; execution itself is
// the backend's concern.
type dockerAdapter struct {
	desc Descriptor
	op   *Operation
	run  func(ctx context.Context, image string, payload []byte) error
}

func newDockerAdapter(desc Descriptor, op *Operation) Adapter {
	return &dockerAdapter{desc: desc, op: op, run: runContainer}
}

func (a *dockerAdapter) Name() string { return a.desc.Name }

func (a *dockerAdapter) Invoke(ctx context.Context) error {
	payload, err := json.Marshal(invocationRequest{
		Sources:      a.op.Sources,
		OutputFormat: a.op.OutputFormat,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal invocation request")
	}
	if err := a.run(ctx, a.desc.URL, payload); err != nil {
		return errors.Wrapf(err, "failed to run container for service %s", a.desc.Name)
	}
	return nil
}
