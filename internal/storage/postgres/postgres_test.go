package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dronepath/autopilot/internal/config"
)

func TestInit_Unreachable(t *testing.T) {
	b := New(config.PostgresConfig{
		Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d",
	}, nil, nil, zerolog.Nop())

	err := b.Init()
	assert.ErrorContains(t, err, "failed to connect to postgres")
	assert.NoError(t, b.Close())
}
