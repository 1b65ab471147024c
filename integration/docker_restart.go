//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

var serviceName = getenv("E2E_SERVICE", "cocktails")

// restartServiceContainer restarts the API so only the durable store carries state over.
func restartServiceContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", serviceName)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", serviceName, err, string(out))
	}
}
