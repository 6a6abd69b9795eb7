package services

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/meridianhq/meridian/errors"
)

// runContainer executes a backend image with the operation payload on
// stdin. The container is removed on exit; logs beyond the captured output
// are the runtime's concern.
func runContainer(ctx context.Context, image string, payload []byte) error {
	if image == "" {
		return errors.New("docker service has no image configured")
	}

	cmd := exec.CommandContext(ctx, "docker", "run", "--rm", "-i", image)
	cmd.Stdin = bytes.NewReader(payload)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "container %s failed: %s", image, output.String())
	}
	return nil
}
