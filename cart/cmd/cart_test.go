package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunFailedStartup(t *testing.T) {
	t.Setenv("DB_DRIVER", "unknown")
	t.Setenv("CACHE_ENABLED", "false")

	tests := []struct {
		name string
		run  func(c context.Context) error
	}{
		{name: "given unknown db driver when run cart service should return error", run: RunCartService},
		{name: "given unknown db driver when run sweep should return error", run: RunSweep},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.run(context.Background())
			assert.ErrorContains(t, err, "unknown db.driver=unknown")
		})
	}
}
